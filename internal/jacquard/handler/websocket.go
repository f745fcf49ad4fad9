package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/foundation/gcode"
	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/pkg/core/logging"
)

// wsBatchSize is the number of annotated lines per "lines" message.
const wsBatchSize = 32

// WebSocket upgrader with permissive settings for local tooling
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler handles WebSocket connections for live annotation
type WebSocketHandler struct {
	service *service.Service
	logger  *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(svc *service.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: svc,
		logger:  logging.New("jacquard-websocket"),
	}
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "annotate", "profile", "ping"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSAnnotatePayload carries the document text to annotate
type WSAnnotatePayload struct {
	Text string `json:"text"`
}

// WSProfilePayload selects the session's active profile
type WSProfilePayload struct {
	Profile string `json:"profile"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"`    // "session", "lines", "done", "profile", "error", "pong"
	Payload interface{} `json:"payload"` // Response-specific payload
}

// WSSessionPayload describes the connection's annotation session
type WSSessionPayload struct {
	SessionID string `json:"session_id"`
	Profile   string `json:"profile"`
}

// WSLinesPayload carries one batch of annotated lines
type WSLinesPayload struct {
	Lines []Line `json:"lines"`
}

// WSDonePayload signals a completed annotation pass
type WSDonePayload struct {
	Lines int `json:"lines"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wsConn serializes writes; gorilla/websocket allows one concurrent writer.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(conn, r.URL.Query().Get("profile"))
}

// handleConnection handles a single WebSocket connection. Each
// connection owns one annotation session which is closed on disconnect.
func (h *WebSocketHandler) handleConnection(conn *websocket.Conn, profile string) {
	defer conn.Close()

	client := &wsConn{Conn: conn}

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	sess, err := h.service.CreateSession(sctx, profile)
	scancel()
	if err != nil {
		h.sendError(client, wsErrorCode(err), err.Error())
		return
	}
	defer h.service.CloseSession(sess.ID)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	h.sendResponse(client, WSResponse{
		Type:    "session",
		Payload: WSSessionPayload{SessionID: sess.ID, Profile: sess.Profile},
	})

	var passMu sync.Mutex
	var cancelPass context.CancelFunc

	// Set read deadline for ping/pong
	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	// Read messages in a loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed", "session", sess.ID)
			}
			return
		}

		switch msg.Type {
		case "ping":
			h.sendResponse(client, WSResponse{Type: "pong", Payload: nil})

		case "annotate":
			var payload WSAnnotatePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(client, "invalid_payload", "Invalid annotate payload")
				continue
			}

			// A new document supersedes the running pass
			passMu.Lock()
			if cancelPass != nil {
				cancelPass()
			}
			passCtx, cancel := context.WithCancel(ctx)
			cancelPass = cancel
			passMu.Unlock()

			wg.Add(1)
			go func() {
				defer wg.Done()
				h.streamAnnotation(passCtx, client, sess.ID, payload.Text)
			}()

		case "profile":
			var payload WSProfilePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(client, "invalid_payload", "Invalid profile payload")
				continue
			}

			passMu.Lock()
			if cancelPass != nil {
				cancelPass()
			}
			passMu.Unlock()

			info, err := h.service.SwitchProfile(ctx, sess.ID, payload.Profile)
			if err != nil {
				h.sendError(client, wsErrorCode(err), err.Error())
				continue
			}
			h.sendResponse(client, WSResponse{
				Type:    "profile",
				Payload: WSSessionPayload{SessionID: info.ID, Profile: info.Profile},
			})

		default:
			h.sendError(client, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// streamAnnotation runs one annotation pass and streams line batches
func (h *WebSocketHandler) streamAnnotation(ctx context.Context, conn *wsConn, sessionID, text string) {
	lines := 0
	err := h.service.AnnotateStream(ctx, &service.AnnotateRequest{
		SessionID: sessionID,
		Text:      text,
	}, wsBatchSize, func(batch []gcode.LineAnnotation) error {
		lines += len(batch)
		return conn.writeJSON(WSResponse{
			Type:    "lines",
			Payload: WSLinesPayload{Lines: ToLines(batch)},
		})
	})
	if err != nil {
		// Superseded passes end quietly; the next pass is already running
		if mcwerror.HasCode(err, mcwerror.CodeCanceled) || ctx.Err() != nil {
			return
		}
		h.sendError(conn, wsErrorCode(err), err.Error())
		return
	}

	h.sendResponse(conn, WSResponse{Type: "done", Payload: WSDonePayload{Lines: lines}})
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *wsConn, resp WSResponse) {
	if err := conn.writeJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

// sendError sends an error response via WebSocket
func (h *WebSocketHandler) sendError(conn *wsConn, code, message string) {
	h.sendResponse(conn, WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// wsErrorCode maps service error codes onto WebSocket error codes
func wsErrorCode(err error) string {
	switch {
	case mcwerror.HasCode(err, mcwerror.CodeProfileNotFound):
		return "profile_not_found"
	case mcwerror.HasCode(err, mcwerror.CodeSessionNotFound):
		return "session_not_found"
	case mcwerror.HasCode(err, mcwerror.CodeDocumentTooLarge):
		return "document_too_large"
	case mcwerror.HasCode(err, mcwerror.CodeInvalidInput):
		return "invalid_request"
	default:
		return "annotation_failed"
	}
}
