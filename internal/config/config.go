// Package config reads process configuration from SAR2RGB_* environment
// variables.
package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const prefix = "sar2rgb"

// Config holds process-level settings for the server.
type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	ModelPath      string `envconfig:"MODEL_PATH" default:"sar2rgb.onnx"`
	MetadataPath   string `envconfig:"METADATA_PATH"`
	OrtLibrary     string `envconfig:"ORT_LIBRARY"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"static/uploads"`
	OutputDir      string `envconfig:"OUTPUT_DIR" default:"static/outputs"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"16777216"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogConsole     bool   `envconfig:"LOG_CONSOLE" default:"false"`
}

// Load populates a Config from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, errors.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH must not be empty")
	}
	return &cfg, nil
}
