package outbox

import (
	"context"
	"time"
)

// AllEvents subscribes a handler to every event name.
const AllEvents = "*"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Keyed events carry a partitioning key, such as the aggregate id.
type Keyed interface {
	EventKey() string
}

// Envelope wraps a published event with delivery metadata.
type Envelope struct {
	ID          string
	Name        string
	PublishedAt time.Time
	Event       Event
}

// Key returns the event key, or "" when the event is not Keyed.
func (e Envelope) Key() string {
	if k, ok := e.Event.(Keyed); ok {
		return k.EventKey()
	}
	return ""
}

// Handler processes a published event.
type Handler func(ctx context.Context, env Envelope) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
