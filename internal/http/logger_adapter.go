package http

import (
	"github.com/hashicorp/go-retryablehttp"

	"github.com/anchore/go-logger"
)

var _ retryablehttp.LeveledLogger = (*retryLogger)(nil)

// retryLogger routes retryablehttp messages into the application log one level quieter than they are emitted.
// retryablehttp reports every failed attempt as an error even when a later attempt succeeds; the error that
// matters reaches the caller of the release listing or download anyway.
type retryLogger struct {
	lgr logger.Logger
}

// NewLeveledLogger creates a retryablehttp.LeveledLogger that tags messages with component=http.
func NewLeveledLogger(lgr logger.Logger) retryablehttp.LeveledLogger {
	return &retryLogger{lgr: lgr.Nested("component", "http")}
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.lgr.WithFields(keysAndValues...).Warn(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.lgr.WithFields(keysAndValues...).Warn(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.lgr.WithFields(keysAndValues...).Debug(msg)
}

// Debug is called once per request attempt.
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.lgr.WithFields(keysAndValues...).Trace(msg)
}
