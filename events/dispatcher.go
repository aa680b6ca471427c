package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tigrisdata/inviter/models"
)

// Event is a lifecycle notification delivered to listeners.
type Event struct {
	Name       string             `json:"event"`
	Invitation *models.Invitation `json:"invitation,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Listener handles one event. Errors are logged and never reach the publisher.
type Listener func(ctx context.Context, evt Event) error

// Dispatcher fans lifecycle events out to the registered listeners synchronously, in
// registration order.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	all       []Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]Listener)}
}

// Subscribe registers l for the named event.
func (d *Dispatcher) Subscribe(event string, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[event] = append(d.listeners[event], l)
}

// SubscribeAll registers l for every event.
func (d *Dispatcher) SubscribeAll(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = append(d.all, l)
}

// Publish delivers the event to its listeners. Delivery is at most once.
func (d *Dispatcher) Publish(ctx context.Context, event string, inv *models.Invitation) {
	d.mu.RLock()
	listeners := make([]Listener, 0, len(d.listeners[event])+len(d.all))
	listeners = append(listeners, d.listeners[event]...)
	listeners = append(listeners, d.all...)
	d.mu.RUnlock()

	evt := Event{Name: event, Invitation: inv, OccurredAt: time.Now()}
	for _, l := range listeners {
		if err := l(ctx, evt); err != nil {
			logger := log.With().Str("component", "events").Str("event", event).Logger()
			if inv != nil {
				logger = logger.With().Str("code", inv.Code).Logger()
			}
			logger.Error().Err(err).Msg("event listener failed")
		}
	}
}
