package workerpresentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability/logctx"
)

const (
	relayService = "event_relay"
	useCaseRelay = "relay.forward"
	spanPrefix   = "UC."
)

// Sink delivers an event outside the process.
type Sink interface {
	Forward(ctx context.Context, env domoutbox.Envelope) error
}

// Relay forwards bus events to a Sink.
type Relay struct {
	subscriber domoutbox.Subscriber
	sink       Sink
	events     []string
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

// NewRelay forwards the named events, or every event when none are given.
func NewRelay(subscriber domoutbox.Subscriber, sink Sink, tel observability.Observability, events ...string) *Relay {
	if tel == nil {
		tel = observability.Nop()
	}
	if len(events) == 0 {
		events = []string{domoutbox.AllEvents}
	}
	m := tel.Metrics()
	return &Relay{
		subscriber:   subscriber,
		sink:         sink,
		events:       events,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", relayService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (r *Relay) Start() {
	if r.subscriber == nil || r.sink == nil {
		return
	}
	for _, name := range r.events {
		r.subscriber.Subscribe(name, r.handle)
	}
}

func (r *Relay) handle(ctx context.Context, env domoutbox.Envelope) (err error) {
	ctx, span := r.tel.Tracer().Start(ctx, spanPrefix+"RelayEvent",
		attribute.String("use_case", useCaseRelay),
		attribute.String("event", env.Name),
		attribute.String("event.id", env.ID),
	)
	ctx = WithEventContext(ctx, r.log, env)
	logger := logctx.FromOr(ctx, r.log).With(observability.F("use_case", useCaseRelay))
	start := time.Now()
	outcome, status := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()
		r.reqCounter.Add(1,
			observability.L("use_case", useCaseRelay),
			observability.L("outcome", outcome),
		)
		r.durHistogram.Observe(lat, observability.L("use_case", useCaseRelay))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
		logger.Info("use_case_done", fields...)
	}()

	if err = r.sink.Forward(ctx, env); err != nil {
		outcome, status = "error", "FORWARD_FAILED"
		return fmt.Errorf("relay: forward %s: %w", env.Name, err)
	}
	return nil
}
