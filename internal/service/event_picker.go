package service

import (
	"context"
	"errors"
	"fmt"

	"registration-form-api/internal/client"
	"registration-form-api/internal/domain"
)

var (
	// ErrEventNotFound is returned when the feed has no event with the requested id
	ErrEventNotFound = errors.New("event not found")
	// ErrEventNotDesignable is returned for events that are not Upcoming
	ErrEventNotDesignable = errors.New("event is not open for form design")
)

// EventPicker offers the events a form can be designed for
type EventPicker interface {
	DesignableEvents(ctx context.Context) ([]domain.Event, error)
	Find(ctx context.Context, eventID string) (domain.Event, error)
}

type eventPickerImpl struct {
	source client.EventSource
}

// NewEventPicker creates a new instance of EventPicker
func NewEventPicker(source client.EventSource) EventPicker {
	return &eventPickerImpl{source: source}
}

// DesignableEvents returns the Upcoming events in feed order
func (p *eventPickerImpl) DesignableEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := p.source.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	designable := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.IsDesignable() {
			designable = append(designable, e)
		}
	}
	return designable, nil
}

// Find returns the designable event with eventID
func (p *eventPickerImpl) Find(ctx context.Context, eventID string) (domain.Event, error) {
	events, err := p.source.ListEvents(ctx)
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to list events: %w", err)
	}

	for _, e := range events {
		if e.ID != eventID {
			continue
		}
		if !e.IsDesignable() {
			return domain.Event{}, fmt.Errorf("%w: %s is %s", ErrEventNotDesignable, e.Name, e.Status)
		}
		return e, nil
	}
	return domain.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
}
