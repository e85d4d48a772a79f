package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with the few helpers the services use.
type Logger struct {
	*logrus.Logger
}

// New creates a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func New(level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{Logger: log}
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithRequestID creates a new logger entry with request ID field
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Logger.WithField("request_id", requestID)
}

// Audit logs an account action (login, password change, deactivation).
func (l *Logger) Audit(userID, action, resource string, success bool) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":    true,
		"user_id":  userID,
		"action":   action,
		"resource": resource,
		"success":  success,
	})

	if success {
		entry.Info("Audit event")
	} else {
		entry.Warn("Audit event failed")
	}
}

// DatabaseOperation logs one data access call.
func (l *Logger) DatabaseOperation(operation, table string, durationMs int64, rows int64, err error) {
	entry := l.Logger.WithFields(logrus.Fields{
		"database":      true,
		"operation":     operation,
		"table":         table,
		"duration_ms":   durationMs,
		"rows_affected": rows,
	})

	if err != nil {
		entry.WithError(err).Error("Database operation failed")
		return
	}
	entry.Debug("Database operation completed")
}

// HTTPRequest logs a finished request.
func (l *Logger) HTTPRequest(requestID, method, path, clientIP string, statusCode int, durationMs int64) {
	entry := l.Logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": durationMs,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}
