package model

import (
	"database/sql"
	"fmt"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// UpsertThesis creates or replaces the thesis note for a symbol.
func UpsertThesis(db *sql.DB, note models.ThesisNote) error {
	_, err := db.Exec(`
		INSERT INTO thesis_notes (symbol, thesis, conviction, timeframe, kill_switch, comment)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			thesis = excluded.thesis,
			conviction = excluded.conviction,
			timeframe = excluded.timeframe,
			kill_switch = excluded.kill_switch,
			comment = excluded.comment`,
		note.Symbol, note.Thesis, note.Conviction, note.Timeframe, note.KillSwitch, note.Comment,
	)
	if err != nil {
		return fmt.Errorf("error upserting thesis for %s: %w", note.Symbol, err)
	}
	return nil
}

// GetAllTheses returns every thesis note keyed by symbol for easy merging
// into position rows.
func GetAllTheses(db *sql.DB) (map[string]models.ThesisNote, error) {
	rows, err := db.Query(`SELECT symbol, thesis, conviction, timeframe, kill_switch, comment FROM thesis_notes`)
	if err != nil {
		return nil, fmt.Errorf("error querying thesis notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[string]models.ThesisNote)
	for rows.Next() {
		var note models.ThesisNote
		if err := rows.Scan(&note.Symbol, &note.Thesis, &note.Conviction, &note.Timeframe, &note.KillSwitch, &note.Comment); err != nil {
			return nil, fmt.Errorf("error scanning thesis row: %w", err)
		}
		notes[note.Symbol] = note
	}
	return notes, rows.Err()
}

// DeleteThesis removes the note for a symbol, if any.
func DeleteThesis(db *sql.DB, symbol string) error {
	if _, err := db.Exec(`DELETE FROM thesis_notes WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("error deleting thesis for %s: %w", symbol, err)
	}
	return nil
}
