// Package logger builds the process-wide zap logger and carries
// request-scoped loggers through context.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/vecrec/internal/version"
)

// Options tune NewLogger beyond the environment preset.
type Options struct {
	// Service is attached to every entry as "service".
	Service string
	// Level overrides the preset level: debug, info, warn, error.
	Level string
}

// NewLogger creates a zap logger for the given environment.
// prod writes JSON, local/dev/docker write colored console output.
func NewLogger(env string, opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker", "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	fields := []zap.Field{zap.String("version", version.Version)}
	if opts.Service != "" {
		fields = append(fields, zap.String("service", opts.Service))
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(fields...))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
