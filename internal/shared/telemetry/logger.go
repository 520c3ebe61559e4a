package telemetry

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	once sync.Once
	base *logrus.Logger
)

func logger() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stdout)

		// Local env = pretty console; others = JSON for log aggregation.
		env := os.Getenv("ENV")
		if env == "" || env == "local" || env == "dev" {
			base.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: time.RFC3339Nano,
			})
		} else {
			base.SetFormatter(&logrus.JSONFormatter{
				TimestampFormat: time.RFC3339Nano,
			})
		}

		switch os.Getenv("LOG_LEVEL") {
		case "debug":
			base.SetLevel(logrus.DebugLevel)
		case "warn":
			base.SetLevel(logrus.WarnLevel)
		case "error":
			base.SetLevel(logrus.ErrorLevel)
		default:
			base.SetLevel(logrus.InfoLevel)
		}
	})
	return base
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	logger().WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	logger().WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	logger().WithFields(logrus.Fields(fields)).Error(msg)
}
