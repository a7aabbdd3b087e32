package errors

import (
	"github.com/sirupsen/logrus"
)

// LogError logs an error with the structured context carried by an AppError.
func LogError(logger *logrus.Logger, err error, message string) {
	entryFor(logger, err).Error(message)
}

// LogWarn logs a warning with the structured context carried by an AppError.
func LogWarn(logger *logrus.Logger, err error, message string) {
	entryFor(logger, err).Warn(message)
}

func entryFor(logger *logrus.Logger, err error) *logrus.Entry {
	entry := logger.WithError(err)

	if appErr, ok := err.(*AppError); ok {
		entry = entry.WithFields(logrus.Fields{
			"error_code": appErr.Code,
			"retryable":  appErr.Retryable,
		})
		for k, v := range appErr.Context {
			entry = entry.WithField(k, v)
		}
	}

	return entry
}
