package tutor

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type      string `json:"type"` // "message" or "hint"
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type     string      `json:"type"` // "decision", "hint" or "error"
	Kind     string      `json:"kind,omitempty"`
	Decision *Decision   `json:"decision,omitempty"`
	Hint     *HintResult `json:"hint,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// RegisterWebSocket mounts the live tutoring socket.
func RegisterWebSocket(r chi.Router, orch *Orchestrator) {
	r.Get("/api/chat/ws", wsHandler(orch))
}

func wsHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("tutor: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("tutor: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendWSError(conn, "invalid_input", "invalid message format")
				continue
			}

			switch req.Type {
			case "message":
				decision, err := orch.HandleMessage(r.Context(), MessageRequest{
					UserID:  req.UserID,
					Message: req.Message,
					Code:    req.Code,
				})
				if err != nil {
					sendWSFailure(conn, err)
					continue
				}
				sendWS(conn, wsResponse{Type: "decision", Decision: decision})
			case "hint":
				hint, err := orch.RequestNextHint(req.SessionID)
				if err != nil {
					sendWSFailure(conn, err)
					continue
				}
				sendWS(conn, wsResponse{Type: "hint", Hint: &hint})
			default:
				sendWSError(conn, "invalid_input", "unknown message type: "+req.Type)
			}
		}
	}
}

func sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("tutor: websocket write: %v", err)
	}
}

func sendWSError(conn *websocket.Conn, kind, message string) {
	sendWS(conn, wsResponse{Type: "error", Kind: kind, Error: message})
}

// sendWSFailure mirrors writeFailure for the socket: fixed per-kind message
// out, full chain into the log.
func sendWSFailure(conn *websocket.Conn, err error) {
	kind := Kind(err)
	log.Printf("tutor: websocket request failed (%s): %v", kind, err)
	sendWSError(conn, kind, failureMessage(kind))
}
