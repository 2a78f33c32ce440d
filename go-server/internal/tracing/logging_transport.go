package tracing

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// loggingTransport logs every export request the OTLP client makes.
type loggingTransport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func NewLoggingTransport(logger *zap.Logger) http.RoundTripper {
	return &loggingTransport{
		base:   http.DefaultTransport,
		logger: logger,
	}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.logger.Warn("OTLP export failed",
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("url", req.URL.String()),
		zap.Int64("content_length", req.ContentLength),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	}
	if resp.StatusCode >= 400 {
		t.logger.Warn("OTLP export rejected", fields...)
	} else {
		t.logger.Debug("OTLP export sent", fields...)
	}

	return resp, nil
}
