package config

import (
	"net/http"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var logrusInstance *logrus.Logger

func GetLogrusInstance() *logrus.Logger {
	if logrusInstance == nil {
		logrusInstance = logrus.New()
		configureLogger(logrusInstance)
	}
	return logrusInstance
}

func configureLogger(log *logrus.Logger) {
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(viper.GetString("log_level")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

// PrintLogInfo writes one access line per handled request.
func PrintLogInfo(username *string, statusCode int, functionName string) {
	user := "Unknown"
	if username != nil {
		user = *username
	}

	entry := GetLogrusInstance().WithFields(logrus.Fields{
		"user":     user,
		"function": functionName,
		"status":   statusCode,
	})
	msg := http.StatusText(statusCode)

	switch {
	case statusCode >= fiber.StatusInternalServerError:
		entry.Error(msg)
	case statusCode >= fiber.StatusBadRequest:
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}
