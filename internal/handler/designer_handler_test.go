package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/dto"
	"registration-form-api/internal/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupDesignerRouter(svc *MockDesignerService) *gin.Engine {
	h := NewDesignerHandler(svc)
	r := gin.New()
	s := r.Group("/sessions")
	s.POST("", h.OpenSession)
	s.GET("/:sessionId", h.GetSession)
	s.DELETE("/:sessionId", h.CloseSession)
	s.PUT("/:sessionId/event", h.SelectEvent)
	s.PATCH("/:sessionId/meta", h.UpdateMeta)
	s.POST("/:sessionId/fields", h.AddField)
	s.PATCH("/:sessionId/fields/:fieldId", h.UpdateField)
	s.DELETE("/:sessionId/fields/:fieldId", h.RemoveField)
	s.POST("/:sessionId/fields/:fieldId/move", h.MoveField)
	s.POST("/:sessionId/fields/:fieldId/select", h.SelectField)
	s.POST("/:sessionId/fields/:fieldId/qr", h.UploadQR)
	s.GET("/:sessionId/preview", h.GetPreview)
	s.POST("/:sessionId/save", h.Save)
	s.GET("/:sessionId/export", h.Export)
	s.POST("/:sessionId/import", h.Import)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestDesignerHandler_OpenSession(t *testing.T) {
	tests := []struct {
		name        string
		body        interface{}
		wantEventID string
	}{
		{name: "with event", body: dto.OpenSessionRequest{EventID: "7"}, wantEventID: "7"},
		{name: "empty body", body: nil, wantEventID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			svc := &MockDesignerService{
				OpenSessionFunc: func(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionView, error) {
					got = req.EventID
					return view("s-1"), nil
				},
			}

			w := doJSON(setupDesignerRouter(svc), http.MethodPost, "/sessions", tt.body)

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, tt.wantEventID, got)
			assert.Contains(t, w.Body.String(), `"sessionId":"s-1"`)
		})
	}
}

func TestDesignerHandler_OpenSessionInvalidJSON(t *testing.T) {
	w := doJSON(setupDesignerRouter(&MockDesignerService{}), http.MethodPost, "/sessions", "{nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDesignerHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", response.NewNotFoundError("Session not found", ""), http.StatusNotFound, response.ErrCodeNotFound},
		{"singleton rejection", response.NewAlreadyExistsError("Only one Select field is allowed per form.", "select"), http.StatusConflict, response.ErrCodeAlreadyExists},
		{"validation", response.NewValidationError("Unknown field type", ""), http.StatusBadRequest, response.ErrCodeValidation},
		{"unauthorized", response.NewAppError(response.ErrCodeUnauthorized, "no", ""), http.StatusUnauthorized, response.ErrCodeUnauthorized},
		{"forbidden", response.NewAppError(response.ErrCodeForbidden, "no", ""), http.StatusForbidden, response.ErrCodeForbidden},
		{"internal", response.NewAppError(response.ErrCodeInternal, "Failed to save form", ""), http.StatusInternalServerError, response.ErrCodeInternal},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, response.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDesignerService{
				AddFieldFunc: func(ctx context.Context, sessionID string, req *dto.AddFieldRequest) (*dto.SessionView, error) {
					return nil, tt.err
				},
			}

			w := doJSON(setupDesignerRouter(svc), http.MethodPost, "/sessions/s-1/fields", dto.AddFieldRequest{Type: "select"})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestDesignerHandler_AddFieldRequiresType(t *testing.T) {
	called := false
	svc := &MockDesignerService{
		AddFieldFunc: func(ctx context.Context, sessionID string, req *dto.AddFieldRequest) (*dto.SessionView, error) {
			called = true
			return view(sessionID), nil
		},
	}

	w := doJSON(setupDesignerRouter(svc), http.MethodPost, "/sessions/s-1/fields", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestDesignerHandler_FieldRoutes(t *testing.T) {
	var gotSession string
	var gotField int64
	record := func(sessionID string, fieldID int64) (*dto.SessionView, error) {
		gotSession, gotField = sessionID, fieldID
		return view(sessionID), nil
	}
	svc := &MockDesignerService{
		UpdateFieldFunc: func(ctx context.Context, sessionID string, fieldID int64, req *dto.UpdateFieldRequest) (*dto.SessionView, error) {
			require.NotNil(t, req.Label)
			assert.Equal(t, "Pass", *req.Label)
			assert.Nil(t, req.Required)
			return record(sessionID, fieldID)
		},
		RemoveFieldFunc: func(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error) {
			return record(sessionID, fieldID)
		},
		MoveFieldFunc: func(ctx context.Context, sessionID string, fieldID int64, req *dto.MoveFieldRequest) (*dto.SessionView, error) {
			assert.Equal(t, "down", req.Direction)
			return record(sessionID, fieldID)
		},
		SelectFieldFunc: func(ctx context.Context, sessionID string, fieldID int64) (*dto.SessionView, error) {
			return record(sessionID, fieldID)
		},
	}
	r := setupDesignerRouter(svc)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPatch, "/sessions/s-9/fields/1700000000001", map[string]string{"label": "Pass"}},
		{http.MethodDelete, "/sessions/s-9/fields/1700000000001", nil},
		{http.MethodPost, "/sessions/s-9/fields/1700000000001/move", dto.MoveFieldRequest{Direction: "down"}},
		{http.MethodPost, "/sessions/s-9/fields/1700000000001/select", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			gotSession, gotField = "", 0
			w := doJSON(r, tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "s-9", gotSession)
			assert.Equal(t, int64(1700000000001), gotField)
		})
	}
}

func TestDesignerHandler_InvalidFieldID(t *testing.T) {
	r := setupDesignerRouter(&MockDesignerService{})

	for _, id := range []string{"abc", "0", "-3"} {
		w := doJSON(r, http.MethodDelete, "/sessions/s-1/fields/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestDesignerHandler_MoveFieldRejectsDirection(t *testing.T) {
	w := doJSON(setupDesignerRouter(&MockDesignerService{}), http.MethodPost, "/sessions/s-1/fields/5/move", dto.MoveFieldRequest{Direction: "left"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDesignerHandler_SelectEventAndMeta(t *testing.T) {
	svc := &MockDesignerService{
		SelectEventFunc: func(ctx context.Context, sessionID string, req *dto.SelectEventRequest) (*dto.SessionView, error) {
			return &dto.SessionView{SessionID: sessionID, Event: &domain.Event{ID: req.EventID}}, nil
		},
		UpdateMetaFunc: func(ctx context.Context, sessionID string, req *dto.UpdateMetaRequest) (*dto.SessionView, error) {
			require.NotNil(t, req.Description)
			assert.Nil(t, req.Title)
			return view(sessionID), nil
		},
	}
	r := setupDesignerRouter(svc)

	w := doJSON(r, http.MethodPut, "/sessions/s-1/event", dto.SelectEventRequest{EventID: "12"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"12"`)

	w = doJSON(r, http.MethodPut, "/sessions/s-1/event", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPatch, "/sessions/s-1/meta", map[string]string{"desc": "Bring your badge"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDesignerHandler_SessionLifecycle(t *testing.T) {
	closed := ""
	svc := &MockDesignerService{
		CloseSessionFunc: func(ctx context.Context, sessionID string) error {
			closed = sessionID
			return nil
		},
		SaveFunc: func(ctx context.Context, sessionID string) (*dto.SessionView, error) {
			return &dto.SessionView{SessionID: sessionID, Dirty: false}, nil
		},
	}
	r := setupDesignerRouter(svc)

	w := doJSON(r, http.MethodGet, "/sessions/s-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/sessions/s-1/save", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dirty":false`)

	w = doJSON(r, http.MethodGet, "/sessions/s-1/preview", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"controls":[]`)

	w = doJSON(r, http.MethodDelete, "/sessions/s-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", closed)
}

func TestDesignerHandler_Export(t *testing.T) {
	svc := &MockDesignerService{
		ExportFunc: func(ctx context.Context, sessionID string) (*dto.ExportResult, error) {
			return &dto.ExportResult{
				FileName:    "registration-form-42.json",
				ContentType: "application/json",
				Data:        []byte(`{"version":2}`),
				ArchiveURL:  "https://bucket.example.com/forms/exports/42/x.json",
			}, nil
		},
	}

	w := doJSON(setupDesignerRouter(svc), http.MethodGet, "/sessions/s-1/export", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="registration-form-42.json"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "https://bucket.example.com/forms/exports/42/x.json", w.Header().Get("X-Archive-URL"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"version":2}`, w.Body.String())
}

func TestDesignerHandler_ImportJSONBody(t *testing.T) {
	var got []byte
	svc := &MockDesignerService{
		ImportFunc: func(ctx context.Context, sessionID string, data []byte) (*dto.SessionView, error) {
			got = data
			return view(sessionID), nil
		},
	}

	w := doJSON(setupDesignerRouter(svc), http.MethodPost, "/sessions/s-1/import", `{"title":"T","fields":[]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"title":"T","fields":[]}`, string(got))
}

func TestDesignerHandler_ImportTooLarge(t *testing.T) {
	body := `{"title":"` + strings.Repeat("x", MaxImportSize) + `"}`
	w := doJSON(setupDesignerRouter(&MockDesignerService{}), http.MethodPost, "/sessions/s-1/import", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartRequest(t *testing.T, path, field, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDesignerHandler_ImportMultipart(t *testing.T) {
	var got []byte
	svc := &MockDesignerService{
		ImportFunc: func(ctx context.Context, sessionID string, data []byte) (*dto.SessionView, error) {
			got = data
			return view(sessionID), nil
		},
	}

	w := httptest.NewRecorder()
	setupDesignerRouter(svc).ServeHTTP(w, multipartRequest(t, "/sessions/s-1/import", "file", "form.json", []byte(`{"fields":[]}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"fields":[]}`, string(got))
}

func TestDesignerHandler_UploadQR(t *testing.T) {
	var gotName string
	var gotData []byte
	var gotField int64
	svc := &MockDesignerService{
		UploadQRFunc: func(ctx context.Context, sessionID string, fieldID int64, fileName string, data []byte) (*dto.SessionView, error) {
			gotField, gotName, gotData = fieldID, fileName, data
			return view(sessionID), nil
		},
	}
	r := setupDesignerRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/sessions/s-1/fields/3/qr", "file", "qr.png", []byte("png-bytes")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), gotField)
	assert.Equal(t, "qr.png", gotName)
	assert.Equal(t, []byte("png-bytes"), gotData)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/sessions/s-1/fields/3/qr", "image", "qr.png", []byte("png-bytes")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
