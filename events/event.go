// Package events fans filter changes out to websocket clients and AMQP.
package events

import (
	"context"
	"encoding/json"
	"time"

	"myfinance/filters"
	"myfinance/models"
)

// TypeFiltersChanged is the event type sent after every criteria mutation.
const TypeFiltersChanged = "filters.changed"

// FilterEvent is the payload pushed to every sink.
type FilterEvent struct {
	Type        string                `json:"type"`
	Criteria    models.FilterCriteria `json:"criteria"`
	ActiveCount int                   `json:"activeCount"`
	Timestamp   time.Time             `json:"timestamp"`
}

func NewFilterEvent(criteria models.FilterCriteria, at time.Time) FilterEvent {
	return FilterEvent{
		Type:        TypeFiltersChanged,
		Criteria:    criteria,
		ActiveCount: filters.CountActive(criteria),
		Timestamp:   at.UTC(),
	}
}

func (e FilterEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Sink receives filter events.
type Sink interface {
	Publish(ctx context.Context, event FilterEvent) error
}
