package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	var debug bool
	a := &app{}

	cmd := &cobra.Command{
		Use:          AppName,
		Short:        "Find lane lines, curvature and offset in road frames",
		Version:      AppVersion,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			a.logger = initLogger(debug)
			a.logger.WithFields(logrus.Fields{
				"version":    AppVersion,
				"debug_mode": debug,
			}).Debug("Starting lane finder")
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode with verbose logging")
	cmd.AddCommand(runCmd(a), reportCmd(a))
	return cmd
}
