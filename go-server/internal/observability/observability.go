package observability

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/config"
	"github.com/fonsecaaso/tinylinks/go-server/internal/logger"
	"github.com/fonsecaaso/tinylinks/go-server/internal/tracing"
)

// Observability holds all observability components
type Observability struct {
	tracerShutdown func(ctx context.Context) error
	Logger         *zap.Logger
}

// Setup builds the logger, installs it globally and then starts tracing, so
// tracing can already log through zap.L().
func Setup(ctx context.Context, cfg *config.Config) (*Observability, error) {
	obs := &Observability{}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log = log.With(zap.String("service", cfg.ServiceName))
	zap.ReplaceGlobals(log)
	obs.Logger = log

	tracerShutdown, err := tracing.Init(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	obs.tracerShutdown = tracerShutdown

	return obs, nil
}

// Shutdown flushes pending spans and log entries.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error

	if o.tracerShutdown != nil {
		if err := o.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if o.Logger != nil {
		// syncing stderr/stdout fails on some platforms; nothing to flush there
		_ = o.Logger.Sync()
	}

	return errors.Join(errs...)
}
