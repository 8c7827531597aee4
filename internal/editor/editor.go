// Package editor implements the in-memory field collection editor of a
// registration form. An Editor is not safe for concurrent use; callers
// serialize access (see the session package).
package editor

import (
	"errors"
	"fmt"
	"time"

	"registration-form-api/internal/domain"
)

// DefaultNoticeTTL is how long a rejection notice stays visible
const DefaultNoticeTTL = 3 * time.Second

// ErrUnknownFieldType is returned when adding a type missing from the catalog
var ErrUnknownFieldType = errors.New("unknown field type")

// RejectionError is returned when adding a second field of a singleton type
type RejectionError struct {
	Type  domain.FieldType
	Label string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("Only one %s field is allowed per form.", e.Label)
}

// Direction of a MoveField call
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a direction string
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be up or down", s)
	}
}

// FieldPatch holds the attributes to merge into a field; nil means unchanged
type FieldPatch struct {
	Label       *string
	Required    *bool
	Placeholder *string
	Options     *string
	QRURL       *string
	QRData      *string
}

// IsEmpty reports whether the patch changes nothing
func (p FieldPatch) IsEmpty() bool {
	return p.Label == nil && p.Required == nil && p.Placeholder == nil &&
		p.Options == nil && p.QRURL == nil && p.QRData == nil
}

func (p FieldPatch) applyTo(f *domain.Field) {
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Placeholder != nil {
		f.Placeholder = *p.Placeholder
	}
	if p.Options != nil {
		f.Options = *p.Options
	}
	if p.QRURL != nil {
		f.QRURL = *p.QRURL
	}
	if p.QRData != nil {
		f.QRData = *p.QRData
	}
}

// Notice levels
const (
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a transient user-visible message
type Notice struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Editor owns one in-memory schema during an editing session
type Editor struct {
	schema     domain.FormSchema
	selectedID int64
	ids        *IDGenerator
	notice     *Notice
	noticeTTL  time.Duration
	now        func() time.Time
	dirty      bool
}

// Option configures an Editor
type Option func(*Editor)

// WithClock overrides the clock used for ids and notice expiry
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// WithNoticeTTL overrides how long notices stay visible
func WithNoticeTTL(ttl time.Duration) Option {
	return func(e *Editor) {
		if ttl > 0 {
			e.noticeTTL = ttl
		}
	}
}

// New returns an editor holding a copy of schema
func New(schema domain.FormSchema, opts ...Option) *Editor {
	e := &Editor{
		schema:    schema.Clone(),
		noticeTTL: DefaultNoticeTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.schema.Fields == nil {
		e.schema.Fields = []domain.Field{}
	}
	e.ids = NewIDGenerator(e.schema.MaxID(), e.now)
	return e
}

// Schema returns a copy of the current schema
func (e *Editor) Schema() domain.FormSchema {
	return e.schema.Clone()
}

// Fields returns a copy of the ordered field list
func (e *Editor) Fields() []domain.Field {
	return e.schema.Clone().Fields
}

// SelectedID returns the id of the field selected for editing, or 0
func (e *Editor) SelectedID() int64 {
	return e.selectedID
}

// Selected returns the field selected for editing
func (e *Editor) Selected() (domain.Field, bool) {
	if i := e.schema.IndexOf(e.selectedID); i >= 0 && e.selectedID != 0 {
		return e.schema.Fields[i], true
	}
	return domain.Field{}, false
}

// Dirty reports whether the schema changed since it was loaded or last saved
func (e *Editor) Dirty() bool {
	return e.dirty
}

// MarkSaved clears the dirty flag
func (e *Editor) MarkSaved() {
	e.dirty = false
}

// Notice returns the current notice unless it has expired
func (e *Editor) Notice() (Notice, bool) {
	if e.notice == nil {
		return Notice{}, false
	}
	if !e.now().Before(e.notice.ExpiresAt) {
		e.notice = nil
		return Notice{}, false
	}
	return *e.notice, true
}

// SetTitle changes the form heading
func (e *Editor) SetTitle(title string) {
	e.schema.Title = title
	e.dirty = true
}

// SetDescription changes the form tagline
func (e *Editor) SetDescription(desc string) {
	e.schema.Description = desc
	e.dirty = true
}

// AddField appends a new field of type t and selects it. Adding a second
// field of a singleton type is rejected with a *RejectionError.
func (e *Editor) AddField(t domain.FieldType) (domain.Field, error) {
	spec, ok := domain.LookupFieldType(t)
	if !ok {
		return domain.Field{}, fmt.Errorf("%w: %s", ErrUnknownFieldType, t)
	}

	if !spec.MultipleAllowed && e.schema.HasType(t) {
		rejection := &RejectionError{Type: t, Label: spec.Label}
		e.SetNotice(NoticeWarning, rejection.Error())
		return domain.Field{}, rejection
	}

	field := domain.Field{
		ID:       e.ids.Next(),
		Type:     t,
		Label:    spec.NewLabel(),
		Required: false,
		Options:  spec.DefaultOptions,
	}

	e.schema.Fields = append(e.schema.Fields, field)
	e.selectedID = field.ID
	e.dirty = true
	return field, nil
}

// UpdateField merges patch into the field with id
func (e *Editor) UpdateField(id int64, patch FieldPatch) bool {
	i := e.schema.IndexOf(id)
	if i < 0 {
		return false
	}
	patch.applyTo(&e.schema.Fields[i])
	e.dirty = true
	return true
}

// RemoveField deletes the field with id, clearing the selection if needed
func (e *Editor) RemoveField(id int64) bool {
	i := e.schema.IndexOf(id)
	if i < 0 {
		return false
	}
	e.schema.Fields = append(e.schema.Fields[:i], e.schema.Fields[i+1:]...)
	if e.selectedID == id {
		e.selectedID = 0
	}
	e.dirty = true
	return true
}

// MoveField swaps the field with its neighbour. Moving past either end is a no-op.
func (e *Editor) MoveField(id int64, dir Direction) bool {
	i := e.schema.IndexOf(id)
	if i < 0 {
		return false
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(e.schema.Fields) {
		return false
	}
	e.schema.Fields[i], e.schema.Fields[j] = e.schema.Fields[j], e.schema.Fields[i]
	e.dirty = true
	return true
}

// SelectField marks the field with id for editing
func (e *Editor) SelectField(id int64) bool {
	if e.schema.IndexOf(id) < 0 {
		return false
	}
	e.selectedID = id
	return true
}

// Replace swaps in a whole schema, as on import
func (e *Editor) Replace(schema domain.FormSchema) {
	e.schema = schema.Clone()
	if e.schema.Fields == nil {
		e.schema.Fields = []domain.Field{}
	}
	e.ids.Observe(e.schema.MaxID())
	e.selectedID = 0
	e.dirty = true
}

// SetNotice shows message until the notice TTL elapses
func (e *Editor) SetNotice(level, message string) {
	e.notice = &Notice{
		Level:     level,
		Message:   message,
		ExpiresAt: e.now().Add(e.noticeTTL),
	}
}
