package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"advanced-lane-finding/internal/report"
	"advanced-lane-finding/internal/store"
)

func reportCmd(a *app) *cobra.Command {
	var dbPath, sessionID, outDir string

	c := &cobra.Command{
		Use:   "report",
		Short: "Render charts for a recorded session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(sessionID)
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", sessionID, err)
			}

			s, err := store.Open(dbPath, a.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.GetSession(cmd.Context(), id); err != nil {
				return err
			}
			frames, err := s.FramesForSession(cmd.Context(), id)
			if err != nil {
				return err
			}

			written, err := report.Write(frames, outDir, id.String())
			if err != nil {
				return err
			}
			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	c.Flags().StringVar(&dbPath, "db", "lanefinder.db", "SQLite file written by run")
	c.Flags().StringVar(&sessionID, "session", "", "session id to report")
	c.Flags().StringVar(&outDir, "out", ".", "output directory")
	_ = c.MarkFlagRequired("session")
	return c
}
