package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability/logctx"
)

var ErrBusClosed = errors.New("outbox: bus closed")

const (
	componentOutbox    = "outbox"
	defaultQueueSize   = 1024
	defaultConcurrency = 8
	handlerTimeout     = 30 * time.Second
)

type queued struct {
	env  domoutbox.Envelope
	span trace.SpanContext
}

// Bus is an in-process event bus with asynchronous fanout. It is not durable.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]domoutbox.Handler

	stateMu sync.RWMutex
	closed  bool

	queue       chan queued
	done        chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
	concurrency int
	now         func() time.Time
	log         observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan queued, defaultQueueSize),
		done:        make(chan struct{}),
		concurrency: defaultConcurrency,
		now:         time.Now,
		log:         logger.With(observability.F("component", componentOutbox)),
	}
}

// Subscribe registers h for eventName, or for every event with domoutbox.AllEvents.
func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop()
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop rejects new events and waits until queued ones are handled or ctx expires.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.stateMu.Lock()
		b.closed = true
		close(b.queue)
		b.stateMu.Unlock()

		// Start may never have run.
		b.startOnce.Do(func() { go b.dispatchLoop() })

		select {
		case <-b.done:
			logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
		case <-ctx.Done():
			err = ctx.Err()
			logctx.FromOr(ctx, b.log).Warn("event_bus_stop_timeout", observability.Err(err))
		}
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	env := domoutbox.Envelope{
		ID:          uuid.NewString(),
		Name:        e.EventName(),
		PublishedAt: b.now().UTC(),
		Event:       e,
	}
	logger := logctx.FromOr(ctx, b.log).With(
		observability.F("event", env.Name),
		observability.F("event_id", env.ID),
	)

	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	if b.closed {
		logger.Warn("event_rejected_bus_closed")
		return ErrBusClosed
	}

	select {
	case b.queue <- queued{env: env, span: trace.SpanContextFromContext(ctx)}:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.Err(ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop() {
	defer close(b.done)
	for q := range b.queue {
		b.fanout(q)
	}
}

func (b *Bus) fanout(q queued) {
	name := q.env.Name

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	handlers = append(handlers, b.subs[domoutbox.AllEvents]...)
	b.mu.RUnlock()

	logger := b.log.With(
		observability.F("event", name),
		observability.F("event_id", q.env.ID),
	)

	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	base := context.Background()
	if q.span.IsValid() {
		base = trace.ContextWithRemoteSpanContext(base, q.span)
	}
	base = logctx.With(base, logger)

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			ctx, cancel := context.WithTimeout(base, handlerTimeout)
			defer cancel()
			if err := h(ctx, q.env); err != nil {
				logger.Warn("event_handler_error", observability.Err(err))
			}
		}()
	}

	wg.Wait()

	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
