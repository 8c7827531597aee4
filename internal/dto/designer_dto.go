package dto

import (
	"registration-form-api/internal/domain"
	"registration-form-api/internal/editor"
	"registration-form-api/internal/preview"
)

// OpenSessionRequest represents the request to open a designer session
type OpenSessionRequest struct {
	EventID string `json:"eventId"`
}

// SelectEventRequest represents the request to switch the session's event
type SelectEventRequest struct {
	EventID string `json:"eventId" binding:"required"`
}

// AddFieldRequest represents the request to append a field
type AddFieldRequest struct {
	Type string `json:"type" binding:"required"`
}

// UpdateFieldRequest represents the request to edit a field's attributes
type UpdateFieldRequest struct {
	Label       *string `json:"label" binding:"omitempty,max=500"`
	Required    *bool   `json:"required"`
	Placeholder *string `json:"placeholder" binding:"omitempty,max=500"`
	Options     *string `json:"options"`
	QRURL       *string `json:"qrUrl"`
	QRData      *string `json:"qrData"`
}

// ToPatch converts the request into an editor patch
func (r *UpdateFieldRequest) ToPatch() editor.FieldPatch {
	return editor.FieldPatch{
		Label:       r.Label,
		Required:    r.Required,
		Placeholder: r.Placeholder,
		Options:     r.Options,
		QRURL:       r.QRURL,
		QRData:      r.QRData,
	}
}

// MoveFieldRequest represents the request to reorder a field
type MoveFieldRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// UpdateMetaRequest represents the request to change the form heading
type UpdateMetaRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=500"`
	Description *string `json:"desc"`
}

// SessionView represents the full state of a designer session
type SessionView struct {
	SessionID       string             `json:"sessionId"`
	Event           *domain.Event      `json:"event"`
	Loading         bool               `json:"loading"`
	Schema          *domain.FormSchema `json:"schema"`
	SelectedFieldID int64              `json:"selectedFieldId,omitempty"`
	Notice          *editor.Notice     `json:"notice,omitempty"`
	Dirty           bool               `json:"dirty"`
	Preview         *preview.Form      `json:"preview"`
}

// ExportResult is a downloadable schema document
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
	// ArchiveURL is set when a copy was archived to object storage
	ArchiveURL string
}
