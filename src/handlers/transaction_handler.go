// backend/src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/services"
)

type TransactionHandler struct {
	ledgerService services.LedgerService
}

func NewTransactionHandler(ledgerService services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// HandleListTransactions serves the whole ledger in store order.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledgerService.ListTransactions()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to list transactions", "error", err)
		sendJSONError(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	sendJSON(w, txs)
}

// HandleAddTransaction appends one manual ledger entry.
func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var raw models.RawLedgerEntry
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		sendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	tx, err := h.ledgerService.AddEntry(raw)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntry) {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.ErrorFromContext(r.Context(), "Failed to add transaction", "error", err)
		sendJSONError(w, "Failed to add transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// HandleDeleteTransaction removes one ledger row by id.
func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		sendJSONError(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	if err := h.ledgerService.DeleteTransaction(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			sendJSONError(w, fmt.Sprintf("Transaction %d not found", id), http.StatusNotFound)
			return
		}
		logger.ErrorFromContext(r.Context(), "Failed to delete transaction", "id", id, "error", err)
		sendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	sendJSON(w, map[string]string{"status": "ok"})
}

// HandleImportCSV ingests a broker activity export. The broker name selects
// the parser; the optional account_type field is stamped on every row.
func (h *TransactionHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		sendJSONError(w, "File too large or malformed form", http.StatusBadRequest)
		return
	}

	broker := strings.TrimSpace(r.FormValue("broker"))
	if broker == "" {
		sendJSONError(w, "broker field is required", http.StatusBadRequest)
		return
	}
	accountType := strings.TrimSpace(r.FormValue("account_type"))

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	logger.InfoFromContext(r.Context(), "Importing broker CSV",
		"broker", broker, "accountType", accountType, "filename", header.Filename, "size", header.Size)

	result, err := h.ledgerService.ImportCSV(file, broker, accountType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownBroker):
			sendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrParsingFailed):
			sendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			logger.ErrorFromContext(r.Context(), "Import failed", "error", err)
			sendJSONError(w, "Import failed", http.StatusInternalServerError)
		}
		return
	}
	sendJSON(w, result)
}
