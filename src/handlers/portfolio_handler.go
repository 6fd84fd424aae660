// backend/src/handlers/portfolio_handler.go
package handlers

import (
	"net/http"

	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/processors"
	"github.com/mingli/holding-analyzer/backend/src/services"
)

type PortfolioHandler struct {
	snapshotService    services.SnapshotService
	performanceService services.PerformanceService
}

func NewPortfolioHandler(snapshotService services.SnapshotService, performanceService services.PerformanceService) *PortfolioHandler {
	return &PortfolioHandler{
		snapshotService:    snapshotService,
		performanceService: performanceService,
	}
}

// filterFromQuery reads the optional broker / account_type narrowing from
// the request.
func filterFromQuery(r *http.Request) processors.PositionFilter {
	return processors.PositionFilter{
		Broker:      r.URL.Query().Get("broker"),
		AccountType: r.URL.Query().Get("account_type"),
	}
}

// HandleGetPortfolio serves the full derived snapshot: summary, positions,
// realized records and any data-quality flags.
func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotService.GetSnapshot(filterFromQuery(r))
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to build portfolio snapshot", "error", err)
		sendJSONError(w, "Failed to build portfolio snapshot", http.StatusInternalServerError)
		return
	}
	sendJSON(w, snap)
}

// HandleGetRealized serves only the realized side of the snapshot.
func (h *PortfolioHandler) HandleGetRealized(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotService.GetSnapshot(filterFromQuery(r))
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to build portfolio snapshot", "error", err)
		sendJSONError(w, "Failed to retrieve realized records", http.StatusInternalServerError)
		return
	}
	realized := snap.Realized
	if realized == nil {
		realized = []models.RealizedRecord{}
	}
	sendJSON(w, map[string]interface{}{
		"total_realized_pnl": snap.Summary.TotalRealizedPnL,
		"reporting_currency": snap.Summary.ReportingCurrency,
		"records":            realized,
		"oversells":          snap.Oversells,
	})
}

// HandleGetSectorExposure serves the portfolio grouped by sector.
func (h *PortfolioHandler) HandleGetSectorExposure(w http.ResponseWriter, r *http.Request) {
	exposure, err := h.snapshotService.GetSectorExposure(filterFromQuery(r))
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to build sector exposure", "error", err)
		sendJSONError(w, "Failed to build sector exposure", http.StatusInternalServerError)
		return
	}
	sendJSON(w, exposure)
}

// HandleGetPerformance serves the daily history with the benchmark baseline.
func (h *PortfolioHandler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	data, err := h.performanceService.GetChartData()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to get performance chart data", "error", err)
		sendJSONError(w, "Failed to retrieve chart data", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = []models.HistoricalDataPoint{}
	}
	sendJSON(w, map[string]interface{}{
		"target_cagr": config.Cfg.TargetCAGR,
		"points":      data,
	})
}

// HandleRebuildHistory forces a synchronous history rebuild.
func (h *PortfolioHandler) HandleRebuildHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.performanceService.RebuildHistory(); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to rebuild history", "error", err)
		sendJSONError(w, "Failed to rebuild history", http.StatusInternalServerError)
		return
	}
	sendJSON(w, map[string]string{"status": "ok", "message": "History rebuilt"})
}
