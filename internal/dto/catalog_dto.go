package dto

import "registration-form-api/internal/domain"

// FieldTypeResponse represents one catalog entry
type FieldTypeResponse struct {
	Type            string   `json:"type"`
	Label           string   `json:"label"`
	Attributes      []string `json:"attributes"`
	MultipleAllowed bool     `json:"multipleAllowed"`
	DefaultLabel    string   `json:"defaultLabel"`
	DefaultOptions  string   `json:"defaultOptions,omitempty"`
}

// NewFieldTypeResponse converts a catalog spec
func NewFieldTypeResponse(spec domain.FieldSpec) FieldTypeResponse {
	return FieldTypeResponse{
		Type:            string(spec.Type),
		Label:           spec.Label,
		Attributes:      spec.Attributes.Names(),
		MultipleAllowed: spec.MultipleAllowed,
		DefaultLabel:    spec.NewLabel(),
		DefaultOptions:  spec.DefaultOptions,
	}
}

// EventResponse represents an event available for design
type EventResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Image  string `json:"image,omitempty"`
	Status string `json:"status"`
}

// NewEventResponse converts a domain event
func NewEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:     e.ID,
		Name:   e.Name,
		Date:   e.Date,
		Image:  e.Image,
		Status: string(e.Status),
	}
}
