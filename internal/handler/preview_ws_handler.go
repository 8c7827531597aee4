package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"registration-form-api/internal/preview"
	"registration-form-api/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// PreviewMessage is pushed to stream clients after every change
type PreviewMessage struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId"`
	Preview   preview.Form `json:"preview"`
	Timestamp time.Time    `json:"timestamp"`
}

type PreviewStreamHandler struct {
	designerService service.DesignerService
	logger          *zap.Logger
}

func NewPreviewStreamHandler(designerService service.DesignerService, logger *zap.Logger) *PreviewStreamHandler {
	return &PreviewStreamHandler{designerService: designerService, logger: logger}
}

// Stream godoc
// @Summary      Live preview stream
// @Description  WebSocket that pushes the rendered preview after every change to the session
// @Tags         preview
// @Param        sessionId path string true "Session ID"
// @Router       /sessions/{sessionId}/preview/stream [get]
func (h *PreviewStreamHandler) Stream(c *gin.Context) {
	sessionID := c.Param("sessionId")

	updates, cancel, err := h.designerService.Subscribe(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	h.logger.Info("Preview stream opened", zap.String("session_id", sessionID))

	done := make(chan struct{})
	go h.readPump(conn, done)
	go h.writePump(conn, sessionID, updates, cancel, done)
}

// readPump only services control frames; it closes done when the peer goes away
func (h *PreviewStreamHandler) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Preview stream read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *PreviewStreamHandler) writePump(conn *websocket.Conn, sessionID string, updates <-chan preview.Form, cancel func(), done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		conn.Close()
		h.logger.Info("Preview stream closed", zap.String("session_id", sessionID))
	}()

	for {
		select {
		case form, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// session closed or expired
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			msg := PreviewMessage{Type: "PREVIEW", SessionID: sessionID, Preview: form, Timestamp: time.Now().UTC()}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
