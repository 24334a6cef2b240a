// Package events defines the booking events published after a mutation has
// been persisted, and the publishers that deliver them.
package events

import (
	"aula-booking/model"
	"context"
	"time"
)

type EventType string

const (
	BookingCreated   EventType = "booking.created"
	BookingCancelled EventType = "booking.cancelled"
)

type BookingEvent struct {
	Type       EventType     `json:"type"`
	Booking    model.Booking `json:"booking"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NopPublisher drops every event. It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event BookingEvent) error {
	return nil
}
