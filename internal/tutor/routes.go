package tutor

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the tutoring API endpoints on the given router.
func RegisterRoutes(r chi.Router, orch *Orchestrator) {
	r.Post("/api/chat/message", messageHandler(orch))
	r.Post("/api/chat/hint/{sessionID}", hintHandler(orch))
	r.Get("/api/users/{userID}", userHandler(orch))
	r.Post("/api/users/{userID}/mode", modeHandler(orch))
	r.Put("/api/users/{userID}/style", styleHandler(orch))
	r.Get("/api/users/{userID}/flashcards", flashcardsHandler(orch))
	r.Post("/api/flashcards/{userID}/{cardID}/review", reviewHandler(orch))
	r.Get("/api/users/{userID}/session", sessionHandler(orch))
	r.Post("/api/users/{userID}/session/restore", restoreHandler(orch))
}

func messageHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
			return
		}
		decision, err := orch.HandleMessage(r.Context(), req)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, decision)
	}
}

type hintRequest struct {
	JumpTo    int  `json:"jump_to,omitempty"`
	AllowSkip bool `json:"allow_skip,omitempty"`
}

func hintHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		var req hintRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
				return
			}
		}

		var result HintResult
		var err error
		if req.JumpTo > 0 {
			result, err = orch.JumpToHint(sessionID, req.JumpTo, req.AllowSkip)
		} else {
			result, err = orch.RequestNextHint(sessionID)
		}
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func userHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := orch.User(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func modeHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Mode Mode `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
			return
		}
		if err := orch.SetMode(r.Context(), chi.URLParam(r, "userID"), req.Mode); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func styleHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Style LearningStyle `json:"style"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
			return
		}
		if err := orch.SetLearningStyle(r.Context(), chi.URLParam(r, "userID"), req.Style); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func flashcardsHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := CardFilter{}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = n
			}
		}
		if v := r.URL.Query().Get("unreviewed"); v == "true" || v == "1" {
			filter.UnreviewedOnly = true
		}
		if v := r.URL.Query().Get("created_after"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.CreatedAfter = t
			}
		}

		cards, err := orch.ListFlashcards(r.Context(), chi.URLParam(r, "userID"), filter)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if cards == nil {
			cards = []Flashcard{}
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func reviewHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := orch.ReviewFlashcard(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "cardID"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func sessionHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := orch.ExportSession(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func restoreHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap SessionHistory
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
			return
		}
		if err := orch.RestoreSession(r.Context(), chi.URLParam(r, "userID"), &snap); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// statusForKind maps the stable error kind strings onto HTTP statuses.
func statusForKind(kind string) int {
	switch kind {
	case "invalid_input", "skip_not_allowed":
		return http.StatusBadRequest
	case "hint_exhausted":
		return http.StatusConflict
	case "malformed_snapshot":
		return http.StatusUnprocessableEntity
	case "analysis_unavailable", "model_rate_limited":
		return http.StatusServiceUnavailable
	case "model_timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// kindMessages are the only error texts that cross the boundary. The wrapped
// chain carries collaborator detail and stays in the server log.
var kindMessages = map[string]string{
	"invalid_input":            "invalid input",
	"analysis_unavailable":     "analysis unavailable",
	"hint_exhausted":           "hint ladder exhausted",
	"skip_not_allowed":         "hint skip not allowed",
	"malformed_snapshot":       "malformed session snapshot",
	"flashcard_limit_reached":  "flashcard limit reached",
	"model_timeout":            "model request timed out",
	"model_rate_limited":       "model request rate limited",
	"malformed_model_response": "malformed model response",
}

// failureMessage returns the boundary text for an error kind.
func failureMessage(kind string) string {
	if msg, ok := kindMessages[kind]; ok {
		return msg
	}
	return "internal error"
}

// writeFailure renders a core error as {error, kind}. The response body only
// ever carries the fixed per-kind message; the full chain is logged.
func writeFailure(w http.ResponseWriter, err error) {
	kind := Kind(err)
	log.Printf("tutor: request failed (%s): %v", kind, err)
	writeError(w, statusForKind(kind), kind, failureMessage(kind))
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
