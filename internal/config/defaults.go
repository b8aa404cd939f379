package config

import (
	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/search"
	"advanced-lane-finding/internal/threshold"
)

// The getters are safe on nil receivers and return the default for any
// unset field.

func (t *ThresholdTuning) GetSobelKernel() int {
	if t == nil || t.SobelKernel == nil {
		return threshold.DefaultOptions().SobelKernel
	}
	return *t.SobelKernel
}

func (t *ThresholdTuning) GetColorOrder() string {
	if t == nil || t.ColorOrder == nil {
		return string(threshold.DefaultOptions().ColorOrder)
	}
	return *t.ColorOrder
}

func (t *ThresholdTuning) GetBlurKernel() int {
	if t == nil || t.BlurKernel == nil {
		return 0
	}
	return *t.BlurKernel
}

func (t *ThresholdTuning) GetCloseKernel() int {
	if t == nil || t.CloseKernel == nil {
		return 0
	}
	return *t.CloseKernel
}

func (s *SearchTuning) GetWindows() int {
	if s == nil || s.Windows == nil {
		return search.DefaultParams().Windows
	}
	return *s.Windows
}

func (s *SearchTuning) GetMargin() int {
	if s == nil || s.Margin == nil {
		return search.DefaultParams().Margin
	}
	return *s.Margin
}

func (s *SearchTuning) GetMinPixels() int {
	if s == nil || s.MinPixels == nil {
		return search.DefaultParams().MinPixels
	}
	return *s.MinPixels
}

func (s *SearchTuning) GetPriorMargin() float64 {
	if s == nil || s.PriorMargin == nil {
		return search.DefaultParams().PriorMargin
	}
	return *s.PriorMargin
}

func (s *ScaleTuning) GetMetersPerPixelY() float64 {
	if s == nil || s.MetersPerPixelY == nil {
		return lane.DefaultScale().MetersPerPixelY
	}
	return *s.MetersPerPixelY
}

func (s *ScaleTuning) GetMetersPerPixelX() float64 {
	if s == nil || s.MetersPerPixelX == nil {
		return lane.DefaultScale().MetersPerPixelX
	}
	return *s.MetersPerPixelX
}
