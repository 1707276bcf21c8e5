package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger from the "logging" section:
//
//	level     debug, info, warn, error (default info)
//	format    json or console (default json)
//	outputs   sink URLs or file paths (default stderr)
//	sampling  false disables zap's per-message sampling
//
// Each scoring run logs one line per series, so production sampling stays
// on unless explicitly turned off.
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	level := v.GetString("logging.level")
	if level == "" {
		level = "info"
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg, err := baseConfig(v.GetString("logging.format"))
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.InitialFields = map[string]any{"service": "qualitywatch"}

	if outputs := v.GetStringSlice("logging.outputs"); len(outputs) > 0 {
		cfg.OutputPaths = outputs
	}
	if v.IsSet("logging.sampling") && !v.GetBool("logging.sampling") {
		cfg.Sampling = nil
	}

	return cfg.Build()
}

func baseConfig(format string) (zap.Config, error) {
	switch format {
	case "json", "":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg, nil
	case "console":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, nil
	default:
		return zap.Config{}, fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", format)
	}
}
