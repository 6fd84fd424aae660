// backend/src/services/ledger_service.go
package services

import (
	"errors"
	"fmt"
	"io"

	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/database"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	"github.com/mingli/holding-analyzer/backend/src/model"
	"github.com/mingli/holding-analyzer/backend/src/models"
	"github.com/mingli/holding-analyzer/backend/src/parsers"
	"github.com/mingli/holding-analyzer/backend/src/processors"
)

type ledgerServiceImpl struct {
	normalizer  *processors.LedgerNormalizer
	performance PerformanceService
}

// NewLedgerService builds the ledger service. The performance service is
// optional; when present, every ledger mutation schedules a history rebuild
// in the background.
func NewLedgerService(performance PerformanceService) LedgerService {
	return &ledgerServiceImpl{
		normalizer:  processors.NewLedgerNormalizer(config.Cfg.ReportingCurrency),
		performance: performance,
	}
}

// AddEntry validates one manual ledger entry and appends it.
func (s *ledgerServiceImpl) AddEntry(raw models.RawLedgerEntry) (models.Transaction, error) {
	tx, err := s.normalizer.Normalize(raw)
	if err != nil {
		var vErr *processors.ValidationError
		if errors.As(err, &vErr) {
			return models.Transaction{}, fmt.Errorf("%w: %s", ErrInvalidEntry, vErr.Error())
		}
		return models.Transaction{}, err
	}

	id, err := model.InsertTransaction(database.DB, tx)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.ID = id

	logger.L.Info("Ledger entry added", "id", id, "symbol", tx.Symbol, "side", tx.Side, "quantity", tx.Quantity)
	s.scheduleRebuild()
	return tx, nil
}

// ImportCSV parses a broker export and appends all valid rows in one batch.
// Rows the normalizer rejects are reported back, never silently dropped.
func (s *ledgerServiceImpl) ImportCSV(file io.Reader, broker, accountType string) (*ImportResult, error) {
	parser, err := parsers.GetParser(broker)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBroker, broker)
	}

	entries, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	for i := range entries {
		if accountType != "" {
			entries[i].AccountType = accountType
		}
	}

	txs, issues := s.normalizer.NormalizeAll(entries)

	inserted := 0
	if len(txs) > 0 {
		inserted, err = model.InsertTransactions(database.DB, txs)
		if err != nil {
			return nil, err
		}
	}

	logger.L.Info("Broker CSV imported", "broker", broker, "accountType", accountType,
		"imported", inserted, "rejected", len(issues))
	if inserted > 0 {
		s.scheduleRebuild()
	}

	return &ImportResult{
		Imported: inserted,
		Rejected: len(issues),
		Issues:   issues,
	}, nil
}

func (s *ledgerServiceImpl) ListTransactions() ([]models.Transaction, error) {
	return model.ListTransactions(database.DB)
}

func (s *ledgerServiceImpl) DeleteTransaction(id int64) error {
	deleted, err := model.DeleteTransaction(database.DB, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	logger.L.Info("Ledger entry deleted", "id", id)
	s.scheduleRebuild()
	return nil
}

func (s *ledgerServiceImpl) scheduleRebuild() {
	if s.performance == nil {
		return
	}
	go func() {
		if err := s.performance.RebuildHistory(); err != nil {
			logger.L.Error("Failed to rebuild history after ledger change", "error", err)
		}
	}()
}
