// backend/src/handlers/dividend_handler.go
package handlers

import (
	"net/http"

	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/services"
)

type DividendHandler struct {
	snapshotService services.SnapshotService
}

func NewDividendHandler(snapshotService services.SnapshotService) *DividendHandler {
	return &DividendHandler{snapshotService: snapshotService}
}

// HandleGetDividendProjection serves the projected 12-month dividend
// calendar for the current holdings.
func (h *DividendHandler) HandleGetDividendProjection(w http.ResponseWriter, r *http.Request) {
	projection, err := h.snapshotService.GetDividendProjection()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to build dividend projection", "error", err)
		sendJSONError(w, "Failed to build dividend projection", http.StatusInternalServerError)
		return
	}
	sendJSON(w, projection)
}
