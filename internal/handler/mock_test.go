package handler

import (
	"context"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/dto"
	"registration-form-api/internal/preview"
)

// MockDesignerService is a mock implementation of DesignerService
type MockDesignerService struct {
	OpenSessionFunc  func(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionView, error)
	CloseSessionFunc func(ctx context.Context, sessionID string) error
	GetSessionFunc   func(ctx context.Context, sessionID string) (*dto.SessionView, error)
	SelectEventFunc  func(ctx context.Context, sessionID string, req *dto.SelectEventRequest) (*dto.SessionView, error)
	AddFieldFunc     func(ctx context.Context, sessionID string, req *dto.AddFieldRequest) (*dto.SessionView, error)
	UpdateFieldFunc  func(ctx context.Context, sessionID string, fieldID int64, req *dto.UpdateFieldRequest) (*dto.SessionView, error)
	RemoveFieldFunc  func(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error)
	MoveFieldFunc    func(ctx context.Context, sessionID string, fieldID int64, req *dto.MoveFieldRequest) (*dto.SessionView, error)
	SelectFieldFunc  func(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error)
	UpdateMetaFunc   func(ctx context.Context, sessionID string, req *dto.UpdateMetaRequest) (*dto.SessionView, error)
	SaveFunc         func(ctx context.Context, sessionID string) (*dto.SessionView, error)
	ExportFunc       func(ctx context.Context, sessionID string) (*dto.ExportResult, error)
	ImportFunc       func(ctx context.Context, sessionID string, data []byte) (*dto.SessionView, error)
	UploadQRFunc     func(ctx context.Context, sessionID string, fieldID int64, fileName string, data []byte) (*dto.SessionView, error)
	PreviewFunc      func(ctx context.Context, sessionID string) (*preview.Form, error)
	SubscribeFunc    func(ctx context.Context, sessionID string) (<-chan preview.Form, func(), error)
}

func view(sessionID string) *dto.SessionView {
	return &dto.SessionView{SessionID: sessionID}
}

func (m *MockDesignerService) OpenSession(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionView, error) {
	if m.OpenSessionFunc != nil {
		return m.OpenSessionFunc(ctx, req)
	}
	return view("new"), nil
}

func (m *MockDesignerService) CloseSession(ctx context.Context, sessionID string) error {
	if m.CloseSessionFunc != nil {
		return m.CloseSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockDesignerService) GetSession(ctx context.Context, sessionID string) (*dto.SessionView, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) SelectEvent(ctx context.Context, sessionID string, req *dto.SelectEventRequest) (*dto.SessionView, error) {
	if m.SelectEventFunc != nil {
		return m.SelectEventFunc(ctx, sessionID, req)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) AddField(ctx context.Context, sessionID string, req *dto.AddFieldRequest) (*dto.SessionView, error) {
	if m.AddFieldFunc != nil {
		return m.AddFieldFunc(ctx, sessionID, req)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) UpdateField(ctx context.Context, sessionID string, fieldID int64, req *dto.UpdateFieldRequest) (*dto.SessionView, error) {
	if m.UpdateFieldFunc != nil {
		return m.UpdateFieldFunc(ctx, sessionID, fieldID, req)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) RemoveField(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error) {
	if m.RemoveFieldFunc != nil {
		return m.RemoveFieldFunc(ctx, sessionID, fieldID)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) MoveField(ctx context.Context, sessionID string, fieldID int64, req *dto.MoveFieldRequest) (*dto.SessionView, error) {
	if m.MoveFieldFunc != nil {
		return m.MoveFieldFunc(ctx, sessionID, fieldID, req)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) SelectField(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error) {
	if m.SelectFieldFunc != nil {
		return m.SelectFieldFunc(ctx, sessionID, fieldID)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) UpdateMeta(ctx context.Context, sessionID string, req *dto.UpdateMetaRequest) (*dto.SessionView, error) {
	if m.UpdateMetaFunc != nil {
		return m.UpdateMetaFunc(ctx, sessionID, req)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) Save(ctx context.Context, sessionID string) (*dto.SessionView, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sessionID)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) Export(ctx context.Context, sessionID string) (*dto.ExportResult, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, sessionID)
	}
	return &dto.ExportResult{FileName: "registration-form-1.json", ContentType: "application/json", Data: []byte(`{}`)}, nil
}

func (m *MockDesignerService) Import(ctx context.Context, sessionID string, data []byte) (*dto.SessionView, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, sessionID, data)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) UploadQR(ctx context.Context, sessionID string, fieldID int64, fileName string, data []byte) (*dto.SessionView, error) {
	if m.UploadQRFunc != nil {
		return m.UploadQRFunc(ctx, sessionID, fieldID, fileName, data)
	}
	return view(sessionID), nil
}

func (m *MockDesignerService) Preview(ctx context.Context, sessionID string) (*preview.Form, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, sessionID)
	}
	return &preview.Form{Controls: []preview.Control{}}, nil
}

func (m *MockDesignerService) Subscribe(ctx context.Context, sessionID string) (<-chan preview.Form, func(), error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, sessionID)
	}
	ch := make(chan preview.Form)
	return ch, func() {}, nil
}

// MockEventPicker is a mock implementation of EventPicker
type MockEventPicker struct {
	DesignableEventsFunc func(ctx context.Context) ([]domain.Event, error)
	FindFunc             func(ctx context.Context, eventID string) (domain.Event, error)
}

func (m *MockEventPicker) DesignableEvents(ctx context.Context) ([]domain.Event, error) {
	if m.DesignableEventsFunc != nil {
		return m.DesignableEventsFunc(ctx)
	}
	return []domain.Event{}, nil
}

func (m *MockEventPicker) Find(ctx context.Context, eventID string) (domain.Event, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, eventID)
	}
	return domain.Event{ID: eventID}, nil
}
