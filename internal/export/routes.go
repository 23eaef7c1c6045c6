package export

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutorloop/internal/tutor"
)

// RegisterRoutes mounts the study-sheet export endpoint.
func RegisterRoutes(r chi.Router, orch *tutor.Orchestrator) {
	r.Get("/api/users/{userID}/session/export", exportHandler(orch))
}

func exportHandler(orch *tutor.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := orch.ExportSession(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		switch r.URL.Query().Get("format") {
		case "html":
			page, err := RenderHTML(history)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
		default:
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(RenderMarkdown(history)))
		}
	}
}
