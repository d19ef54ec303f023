package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the process logger. Batch runs are operator-facing,
// so the development encoder is used; verbose lowers the level to Debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	logConfig := zap.NewDevelopmentConfig()
	if verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return logConfig.Build()
}
