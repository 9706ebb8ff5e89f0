package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"myfinance/models"
)

const publishTimeout = 5 * time.Second

// Dispatcher delivers each change to every registered sink. Sink failures are
// logged and never reach the caller.
type Dispatcher struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
	now    func() time.Time
}

func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:  sinks,
		logger: logger.With("component", "events"),
		now:    time.Now,
	}
}

func (d *Dispatcher) Add(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// FiltersChanged matches filters.ChangeFunc.
func (d *Dispatcher) FiltersChanged(criteria models.FilterCriteria) {
	event := NewFilterEvent(criteria, d.now())

	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	for _, sink := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := sink.Publish(ctx, event); err != nil {
			d.logger.Warn("Failed to publish filter event", "sink", sinkName(sink), "error", err)
		}
		cancel()
	}
}

func sinkName(s Sink) string {
	switch s.(type) {
	case *Hub:
		return "websocket"
	case *AMQPPublisher:
		return "amqp"
	default:
		return "custom"
	}
}
