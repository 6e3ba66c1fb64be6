package utils

import (
	"os"

	"go.uber.org/zap"
)

// SetupLogger builds the process logger and installs it as the zap global,
// so call sites use zap.L(). Set LOG_MODE=development for human-readable
// output. The returned sync function should be deferred in main.
func SetupLogger() (func(), error) {
	var logger *zap.Logger
	var err error

	if os.Getenv("LOG_MODE") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}
