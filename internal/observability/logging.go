package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/workticket-service/internal/config"
)

// LoggerOptions carries the settings NewLogger reads.
type LoggerOptions struct {
	Level       string
	Service     string
	Development bool
}

// OptionsFromConfig derives logger options from service configuration.
func OptionsFromConfig(cfg *config.Config) LoggerOptions {
	return LoggerOptions{
		Level:       cfg.Logger.Level,
		Service:     cfg.App.Name,
		Development: cfg.App.Env == "development",
	}
}

// NewLogger creates a structured zap.Logger configured via env settings.
func NewLogger(cfg LoggerOptions) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: cfg.Development,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			LevelKey:      "level",
			TimeKey:       "ts",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			EncodeCaller:  zapcore.ShortCallerEncoder,
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
		},
		InitialFields:    map[string]interface{}{"service": cfg.Service},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
