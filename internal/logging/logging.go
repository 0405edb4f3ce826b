// internal/logging/logging.go
// Structured logging setup based on the environment

package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New configures a structured logger based on the environment, mirroring
// the shape of a typical service entrypoint's logger setup: text output
// for local development, JSON for production.
func New(env string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger.WithField("service", "matchcore")
}
