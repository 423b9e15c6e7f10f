package model_test

import (
	"testing"

	"github.com/retouch-ml/retouch/internal/model"
)

// TestDefaultConfigValid tests that the defaults pass validation.
func TestDefaultConfigValid(t *testing.T) {
	if err := model.DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

// TestConfigValidate tests the rejection cases.
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{"downscale factor 3", func(c *model.Config) { c.DownscaleFactor = 3 }},
		{"downscale factor 0", func(c *model.Config) { c.DownscaleFactor = 0 }},
		{"negative pixel loss min", func(c *model.Config) { c.PixelLossMin = -0.1 }},
		{"pixel loss max above one", func(c *model.Config) { c.PixelLossMax = 1.2 }},
		{"min above max", func(c *model.Config) { c.PixelLossMin = 0.9; c.PixelLossMax = 0.25 }},
		{"zero learning rate", func(c *model.Config) { c.LearningRateStart = 0 }},
		{"negative learning rate", func(c *model.Config) { c.LearningRateStart = -1e-4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
