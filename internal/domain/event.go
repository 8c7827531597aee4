package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventStatus is the lifecycle state reported by the event feed
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "Upcoming"
	EventStatusOngoing   EventStatus = "Ongoing"
	EventStatusCompleted EventStatus = "Completed"
)

// Event is the external event reference. Schemas are keyed by its ID.
type Event struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Date   string      `json:"date"`
	Image  string      `json:"image,omitempty"`
	Status EventStatus `json:"status"`
}

// IsDesignable reports whether a registration form may be designed for the event
func (e Event) IsDesignable() bool {
	return e.Status == EventStatusUpcoming
}

// UnmarshalJSON accepts the id as a JSON string or number
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var aux struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := decodeEventID(aux.ID)
	if err != nil {
		return err
	}
	*e = Event(aux.plain)
	e.ID = id
	return nil
}

func decodeEventID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid event id: %w", err)
		}
		return s, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("invalid event id %s: %w", raw, err)
	}
	return n.String(), nil
}
