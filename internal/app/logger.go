package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "interview-autopilot"

// NewLogger builds the process logger. Production gets JSON with a service
// field; anything else gets the colored console encoder. An unknown level
// keeps the environment default.
func NewLogger(env, level string) *zap.Logger {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.InitialFields = map[string]any{"service": serviceName}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if parsed, err := zapcore.ParseLevel(level); err == nil && level != "" {
		config.Level = zap.NewAtomicLevelAt(parsed)
	}

	config.OutputPaths = []string{"stdout"}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}
