// Package logger provides structured logging with zap.
package logger

import "go.uber.org/zap"

const service = "organizer-portal"

// New creates a zap.Logger for the given environment. Production gets the
// JSON encoder at info level, "test" gets a no-op logger and everything else
// the development console encoder.
func New(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	switch env {
	case "production":
		log, err = zap.NewProduction()
	case "test":
		return zap.NewNop()
	default:
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log.With(zap.String("service", service))
}
