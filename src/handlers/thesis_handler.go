// backend/src/handlers/thesis_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mingli/holding-analyzer/backend/src/database"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/model"
	"github.com/mingli/holding-analyzer/backend/src/models"
)

// ThesisHandler manages the per-symbol investment thesis notes. Thin enough
// that it talks to the store directly.
type ThesisHandler struct{}

func NewThesisHandler() *ThesisHandler {
	return &ThesisHandler{}
}

func (h *ThesisHandler) HandleListTheses(w http.ResponseWriter, r *http.Request) {
	notes, err := model.GetAllTheses(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to list thesis notes", "error", err)
		sendJSONError(w, "Failed to retrieve thesis notes", http.StatusInternalServerError)
		return
	}
	sendJSON(w, notes)
}

func (h *ThesisHandler) HandleUpsertThesis(w http.ResponseWriter, r *http.Request) {
	var note models.ThesisNote
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		sendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	// The symbol may come from the URL (PUT /thesis/{symbol}) or the body.
	if urlSymbol := chi.URLParam(r, "symbol"); urlSymbol != "" {
		note.Symbol = urlSymbol
	}
	note.Symbol = strings.ToUpper(strings.TrimSpace(note.Symbol))
	if note.Symbol == "" {
		sendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	if err := model.UpsertThesis(database.DB, note); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to save thesis note", "symbol", note.Symbol, "error", err)
		sendJSONError(w, "Failed to save thesis note", http.StatusInternalServerError)
		return
	}
	sendJSON(w, note)
}

func (h *ThesisHandler) HandleDeleteThesis(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		sendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}
	if err := model.DeleteThesis(database.DB, symbol); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to delete thesis note", "symbol", symbol, "error", err)
		sendJSONError(w, "Failed to delete thesis note", http.StatusInternalServerError)
		return
	}
	sendJSON(w, map[string]string{"status": "ok"})
}
