package internal

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger returns the process-wide sugared logger. Development gets
// the human-readable config, everything else ships JSON.
func NewLogger() (*zap.SugaredLogger, error) {
	if os.Getenv("ENVIRONMENT") == "development" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
