// Package bootstrap wires the process-level stack shared by both services: logger,
// metrics, tracing, the event bus with its Kafka relay, and the HTTP server lifecycle.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zhima-Mochi/minishop-batches/internal/config"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/kafka"
	infraobs "github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/observability/tracing"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-batches/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-batches/internal/presentation/worker"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Runtime is the started process stack. Close releases it in reverse order.
type Runtime struct {
	Tel observability.Observability
	Bus *outbox.Bus

	cfg           config.Common
	zap           *zap.Logger
	log           observability.Logger
	writer        *kafkago.Writer
	shutdownTrace func(context.Context) error
}

func Start(ctx context.Context, cfg config.Common) (*Runtime, error) {
	base, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	zap.ReplaceGlobals(base)

	logger := zaplogger.New(base)
	tel := infraobs.NewService(cfg.ServiceName, logger, prometrics.New("", "", prometheus.DefaultRegisterer))

	shutdownTrace, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Endpoint:       cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
	})
	if err != nil {
		_ = base.Sync()
		return nil, fmt.Errorf("bootstrap: tracing: %w", err)
	}

	rt := &Runtime{
		Tel:           tel,
		Bus:           outbox.NewBus(logger),
		cfg:           cfg,
		zap:           base,
		log:           logger.With(observability.F("component", "bootstrap")),
		shutdownTrace: shutdownTrace,
	}

	if len(cfg.KafkaBrokers) > 0 {
		rt.writer = kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		workerpresentation.NewRelay(rt.Bus, kafka.NewSink(rt.writer), tel).Start()
		rt.log.Info("kafka_relay_enabled",
			observability.F("brokers", cfg.KafkaBrokers),
			observability.F("topic", cfg.KafkaTopic),
		)
	}
	rt.Bus.Start(ctx)
	return rt, nil
}

// Logger is the process logger without request scope.
func (rt *Runtime) Logger() observability.Logger { return rt.log }

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func (rt *Runtime) Serve(ctx context.Context, router *httppresentation.Router) error {
	router.Mount("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              rt.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info("http_server_start", observability.F("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.log.Error("http_server_shutdown_error", observability.Err(err))
			return err
		}
		rt.log.Info("http_server_stopped")
		return nil
	})
	return g.Wait()
}

// Close drains the bus, then flushes the Kafka writer, spans and logs.
func (rt *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := rt.Bus.Stop(ctx); err != nil {
		rt.log.Warn("event_bus_stop_error", observability.Err(err))
	}
	if rt.writer != nil {
		if err := rt.writer.Close(); err != nil {
			rt.log.Warn("kafka_writer_close_error", observability.Err(err))
		}
	}
	if err := rt.shutdownTrace(ctx); err != nil {
		rt.log.Warn("tracing_shutdown_error", observability.Err(err))
	}
	_ = rt.zap.Sync()
}
