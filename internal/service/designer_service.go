package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"registration-form-api/internal/client"
	"registration-form-api/internal/domain"
	"registration-form-api/internal/dto"
	"registration-form-api/internal/editor"
	"registration-form-api/internal/metrics"
	"registration-form-api/internal/preview"
	"registration-form-api/internal/response"
	"registration-form-api/internal/session"
)

// MaxQRImageSize is the largest accepted payment QR image
const MaxQRImageSize = 5 << 20

// DesignerService drives designer sessions: event selection, field editing,
// persistence and file exchange.
type DesignerService interface {
	OpenSession(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionView, error)
	CloseSession(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (*dto.SessionView, error)
	SelectEvent(ctx context.Context, sessionID string, req *dto.SelectEventRequest) (*dto.SessionView, error)
	AddField(ctx context.Context, sessionID string, req *dto.AddFieldRequest) (*dto.SessionView, error)
	UpdateField(ctx context.Context, sessionID string, fieldID int64, req *dto.UpdateFieldRequest) (*dto.SessionView, error)
	RemoveField(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error)
	MoveField(ctx context.Context, sessionID string, fieldID int64, req *dto.MoveFieldRequest) (*dto.SessionView, error)
	SelectField(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error)
	UpdateMeta(ctx context.Context, sessionID string, req *dto.UpdateMetaRequest) (*dto.SessionView, error)
	Save(ctx context.Context, sessionID string) (*dto.SessionView, error)
	Export(ctx context.Context, sessionID string) (*dto.ExportResult, error)
	Import(ctx context.Context, sessionID string, data []byte) (*dto.SessionView, error)
	UploadQR(ctx context.Context, sessionID string, fieldID int64, fileName string, data []byte) (*dto.SessionView, error)
	Preview(ctx context.Context, sessionID string) (*preview.Form, error)
	Subscribe(ctx context.Context, sessionID string) (<-chan preview.Form, func(), error)
}

// designerServiceImpl is the implementation of DesignerService
type designerServiceImpl struct {
	sessions *session.Registry
	picker   EventPicker
	store    SchemaStore
	files    client.S3ClientInterface
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewDesignerService creates a new instance of DesignerService. files may be
// nil, in which case QR images are inlined and exports are not archived.
func NewDesignerService(
	sessions *session.Registry,
	picker EventPicker,
	store SchemaStore,
	files client.S3ClientInterface,
	logger *zap.Logger,
	m *metrics.Metrics,
) DesignerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &designerServiceImpl{
		sessions: sessions,
		picker:   picker,
		store:    store,
		files:    files,
		logger:   logger,
		metrics:  m,
	}
}

// OpenSession creates a session, optionally loading an event right away
func (s *designerServiceImpl) OpenSession(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionView, error) {
	sess := s.sessions.Create()
	s.metrics.SetActiveSessions(s.sessions.Len())

	if req == nil || req.EventID == "" {
		return toSessionView(sess.Snapshot()), nil
	}

	if err := s.load(ctx, sess, req.EventID); err != nil {
		s.sessions.Delete(sess.ID())
		s.metrics.SetActiveSessions(s.sessions.Len())
		return nil, err
	}
	return toSessionView(sess.Snapshot()), nil
}

// CloseSession discards the session without saving
func (s *designerServiceImpl) CloseSession(ctx context.Context, sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return response.NewNotFoundError("Session not found", "")
	}
	s.metrics.SetActiveSessions(s.sessions.Len())
	return nil
}

// GetSession returns the session state
func (s *designerServiceImpl) GetSession(ctx context.Context, sessionID string) (*dto.SessionView, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionView(sess.Snapshot()), nil
}

// SelectEvent switches the session to another event, discarding unsaved edits
func (s *designerServiceImpl) SelectEvent(ctx context.Context, sessionID string, req *dto.SelectEventRequest) (*dto.SessionView, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, sess, req.EventID); err != nil {
		return nil, err
	}
	return toSessionView(sess.Snapshot()), nil
}

func (s *designerServiceImpl) load(ctx context.Context, sess *session.Session, eventID string) error {
	event, err := s.picker.Find(ctx, eventID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			return response.NewNotFoundError("Event not found", eventID)
		case errors.Is(err, ErrEventNotDesignable):
			return response.NewValidationError("Forms can only be designed for upcoming events", err.Error())
		default:
			s.logger.Error("Failed to look up event", zap.String("event_id", eventID), zap.Error(err))
			return response.NewAppError(response.ErrCodeInternal, "Failed to fetch events", err.Error())
		}
	}

	token := sess.BeginLoad(event)
	result := s.store.Load(ctx, event)

	if !sess.ApplyLoad(token, result.Schema, result.Notice) {
		s.logger.Warn("Discarded stale schema load",
			zap.String("session_id", sess.ID()),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	s.logger.Info("Schema loaded",
		zap.String("session_id", sess.ID()),
		zap.String("event_id", event.ID),
		zap.String("source", result.Source),
		zap.Bool("migrated", result.Migrated),
	)
	return nil
}

// AddField appends a field of the requested type
func (s *designerServiceImpl) AddField(ctx context.Context, sessionID string, req *dto.AddFieldRequest) (*dto.SessionView, error) {
	fieldType := domain.FieldType(req.Type)
	rejected := false
	view, err := s.edit(sessionID, func(e *editor.Editor) error {
		_, err := e.AddField(fieldType)
		var rejection *editor.RejectionError
		rejected = errors.As(err, &rejection)
		return err
	})
	if err != nil {
		if rejected {
			s.metrics.RecordFieldRejected(req.Type)
		}
		return nil, err
	}
	s.metrics.RecordFieldAdded(req.Type)
	return view, nil
}

// UpdateField merges attributes into a field. Unknown ids leave the form unchanged.
func (s *designerServiceImpl) UpdateField(ctx context.Context, sessionID string, fieldID int64, req *dto.UpdateFieldRequest) (*dto.SessionView, error) {
	patch := req.ToPatch()
	return s.edit(sessionID, func(e *editor.Editor) error {
		if !patch.IsEmpty() {
			e.UpdateField(fieldID, patch)
		}
		return nil
	})
}

// RemoveField deletes a field. Unknown ids leave the form unchanged.
func (s *designerServiceImpl) RemoveField(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error) {
	return s.edit(sessionID, func(e *editor.Editor) error {
		e.RemoveField(fieldID)
		return nil
	})
}

// MoveField swaps a field with its neighbour
func (s *designerServiceImpl) MoveField(ctx context.Context, sessionID string, fieldID int64, req *dto.MoveFieldRequest) (*dto.SessionView, error) {
	dir, err := editor.ParseDirection(req.Direction)
	if err != nil {
		return nil, response.NewValidationError("Invalid direction", err.Error())
	}
	return s.edit(sessionID, func(e *editor.Editor) error {
		e.MoveField(fieldID, dir)
		return nil
	})
}

// SelectField marks a field for editing
func (s *designerServiceImpl) SelectField(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error) {
	return s.edit(sessionID, func(e *editor.Editor) error {
		if !e.SelectField(fieldID) {
			return response.NewNotFoundError("Field not found", fmt.Sprintf("%d", fieldID))
		}
		return nil
	})
}

// UpdateMeta changes the form title and description
func (s *designerServiceImpl) UpdateMeta(ctx context.Context, sessionID string, req *dto.UpdateMetaRequest) (*dto.SessionView, error) {
	return s.edit(sessionID, func(e *editor.Editor) error {
		if req.Title != nil {
			e.SetTitle(*req.Title)
		}
		if req.Description != nil {
			e.SetDescription(*req.Description)
		}
		return nil
	})
}

// Save persists the session's schema under its event
func (s *designerServiceImpl) Save(ctx context.Context, sessionID string) (*dto.SessionView, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	if snap.Schema == nil || snap.Event == nil {
		return nil, mapSessionError(session.ErrNoSchema)
	}

	if err := s.store.Save(ctx, snap.Event.ID, *snap.Schema); err != nil {
		s.logger.Error("Failed to save schema",
			zap.String("session_id", sessionID),
			zap.String("event_id", snap.Event.ID),
			zap.Error(err),
		)
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to save form", err.Error())
	}

	after, err := sess.EditAt(snap.Token, func(e *editor.Editor) error {
		e.MarkSaved()
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrStaleLoad) {
			return toSessionView(sess.Snapshot()), nil
		}
		return nil, mapSessionError(err)
	}

	s.logger.Info("Schema saved",
		zap.String("session_id", sessionID),
		zap.String("event_id", snap.Event.ID),
		zap.Int("fields", len(snap.Schema.Fields)),
	)
	return toSessionView(after), nil
}

// Export returns the schema as a downloadable document and archives a copy when storage is configured
func (s *designerServiceImpl) Export(ctx context.Context, sessionID string) (*dto.ExportResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	if snap.Schema == nil || snap.Event == nil {
		return nil, mapSessionError(session.ErrNoSchema)
	}

	data, err := s.store.Export(*snap.Schema, snap.Event)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to export form", err.Error())
	}

	result := &dto.ExportResult{
		FileName:    fmt.Sprintf("registration-form-%s.json", snap.Event.ID),
		ContentType: "application/json",
		Data:        data,
	}
	result.ArchiveURL = s.archive(ctx, snap.Event.ID, data)
	return result, nil
}

func (s *designerServiceImpl) archive(ctx context.Context, eventID string, data []byte) string {
	if s.files == nil {
		return ""
	}
	key, err := s.files.GenerateFileKey(client.CategoryExports, eventID, ".json")
	if err == nil {
		var url string
		url, err = s.files.UploadFile(ctx, key, bytes.NewReader(data), "application/json")
		if err == nil {
			return url
		}
	}
	s.logger.Warn("Failed to archive export",
		zap.String("event_id", eventID),
		zap.Error(err),
	)
	s.metrics.RecordMirrorFailure(metrics.MirrorTargetArchive)
	return ""
}

// Import replaces the session's schema with an exported document. On failure
// the session is left untouched.
func (s *designerServiceImpl) Import(ctx context.Context, sessionID string, data []byte) (*dto.SessionView, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	if snap.Schema == nil || snap.Event == nil {
		return nil, mapSessionError(session.ErrNoSchema)
	}

	if !utf8.Valid(data) {
		s.metrics.RecordImport(false)
		return nil, response.NewValidationError("The import file must be UTF-8 encoded JSON", "")
	}
	schema, err := s.store.Import(data)
	if err != nil {
		s.logger.Warn("Rejected schema import",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, response.NewValidationError("The file is not a valid form export", err.Error())
	}
	if schema.Title == "" {
		schema.Title = domain.DefaultTitle(snap.Event.Name)
	}

	after, err := sess.EditAt(snap.Token, func(e *editor.Editor) error {
		e.Replace(schema)
		return nil
	})
	if err != nil {
		return nil, mapSessionError(err)
	}
	return toSessionView(after), nil
}

// UploadQR attaches a payment QR image to a payment field
func (s *designerServiceImpl) UploadQR(ctx context.Context, sessionID string, fieldID int64, fileName string, data []byte) (*dto.SessionView, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	if snap.Schema == nil || snap.Event == nil {
		return nil, mapSessionError(session.ErrNoSchema)
	}
	if err := requirePaymentField(*snap.Schema, fieldID); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, response.NewValidationError("The QR image is empty", fileName)
	}
	if len(data) > MaxQRImageSize {
		return nil, response.NewValidationError("The QR image is too large", fmt.Sprintf("max %d bytes", MaxQRImageSize))
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, response.NewValidationError("The QR file must be an image", mime.String())
	}

	patch, err := s.qrPatch(ctx, snap.Event.ID, mime, data)
	if err != nil {
		return nil, err
	}

	after, err := sess.EditAt(snap.Token, func(e *editor.Editor) error {
		if err := requirePaymentField(e.Schema(), fieldID); err != nil {
			return err
		}
		e.UpdateField(fieldID, patch)
		return nil
	})
	if err != nil {
		return nil, mapSessionError(err)
	}

	s.logger.Info("Payment QR attached",
		zap.String("session_id", sessionID),
		zap.Int64("field_id", fieldID),
		zap.String("mime", mime.String()),
		zap.Bool("stored_remotely", patch.QRURL != nil && *patch.QRURL != ""),
	)
	return toSessionView(after), nil
}

// qrPatch stores the image in object storage when available, else inlines it as a data URL
func (s *designerServiceImpl) qrPatch(ctx context.Context, eventID string, mime *mimetype.MIME, data []byte) (editor.FieldPatch, error) {
	empty := ""
	if s.files != nil {
		key, err := s.files.GenerateFileKey(client.CategoryQR, eventID, mime.Extension())
		if err != nil {
			return editor.FieldPatch{}, response.NewAppError(response.ErrCodeInternal, "Failed to store QR image", err.Error())
		}
		url, err := s.files.UploadFile(ctx, key, bytes.NewReader(data), mime.String())
		if err != nil {
			s.logger.Error("Failed to upload QR image", zap.String("key", key), zap.Error(err))
			return editor.FieldPatch{}, response.NewAppError(response.ErrCodeInternal, "Failed to store QR image", err.Error())
		}
		return editor.FieldPatch{QRURL: &url, QRData: &empty}, nil
	}

	dataURL := "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
	return editor.FieldPatch{QRData: &dataURL}, nil
}

func requirePaymentField(schema domain.FormSchema, fieldID int64) error {
	i := schema.IndexOf(fieldID)
	if i < 0 {
		return response.NewNotFoundError("Field not found", fmt.Sprintf("%d", fieldID))
	}
	if schema.Fields[i].Type != domain.FieldTypePayment {
		return response.NewValidationError("QR images can only be attached to payment fields", string(schema.Fields[i].Type))
	}
	return nil
}

// Preview returns the rendered form
func (s *designerServiceImpl) Preview(ctx context.Context, sessionID string) (*preview.Form, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	if snap.Preview == nil {
		return nil, mapSessionError(session.ErrNoSchema)
	}
	return snap.Preview, nil
}

// Subscribe streams previews after every change to the session
func (s *designerServiceImpl) Subscribe(ctx context.Context, sessionID string) (<-chan preview.Form, func(), error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.Subscribe()
	return ch, cancel, nil
}

func (s *designerServiceImpl) getSession(sessionID string) (*session.Session, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, response.NewNotFoundError("Session not found", sessionID)
	}
	return sess, nil
}

func (s *designerServiceImpl) edit(sessionID string, fn func(*editor.Editor) error) (*dto.SessionView, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Edit(fn)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return toSessionView(snap), nil
}

// mapSessionError converts session and editor errors into AppErrors
func mapSessionError(err error) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var rejection *editor.RejectionError
	switch {
	case errors.As(err, &rejection):
		return response.NewAlreadyExistsError(rejection.Error(), string(rejection.Type))
	case errors.Is(err, editor.ErrUnknownFieldType):
		return response.NewValidationError("Unknown field type", err.Error())
	case errors.Is(err, session.ErrNoSchema):
		return response.NewValidationError("Select an event before editing the form", "")
	case errors.Is(err, session.ErrStaleLoad):
		return response.NewValidationError("The selected event changed before the operation finished", "")
	case errors.Is(err, session.ErrClosed):
		return response.NewNotFoundError("Session not found", "")
	default:
		return response.NewAppError(response.ErrCodeInternal, "Failed to update form", err.Error())
	}
}

func toSessionView(snap session.Snapshot) *dto.SessionView {
	return &dto.SessionView{
		SessionID:       snap.ID,
		Event:           snap.Event,
		Loading:         snap.Loading,
		Schema:          snap.Schema,
		SelectedFieldID: snap.SelectedID,
		Notice:          snap.Notice,
		Dirty:           snap.Dirty,
		Preview:         snap.Preview,
	}
}
