// Package logger owns the process-wide logrus logger and the field helpers
// components use to tag their entries.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger configures the global logger. Development runs get colored text,
// everything else gets JSON.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel == "" {
		if isDevelopment {
			logLevel = "debug"
		} else {
			logLevel = "info"
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("invalid LOG_LEVEL, using info")
	}

	if isDevelopment {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}
	log.SetOutput(os.Stdout)

	Logger = log
	return log
}

// GetLogger returns the global logger, creating an info-level one on first use.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// Discard returns an entry that writes nowhere. Tests use it.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func WithService(name string) *logrus.Entry {
	return GetLogger().WithField("service", name)
}

func WithGame(gameKey string) *logrus.Entry {
	return GetLogger().WithField("game_key", gameKey)
}

func WithJob(jobID string) *logrus.Entry {
	return GetLogger().WithField("job_id", jobID)
}

func WithPlayer(team string, jersey int) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"team":   team,
		"jersey": jersey,
	})
}
