package db

import (
	"database/sql"
	"fmt"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// UpdateSetpointsWithTx writes both setpoints atomically so a reader
// never observes a pair that collapses the deadband.
func UpdateSetpointsWithTx(tx *sql.Tx, heat, cool int) error {
	if cool-heat < model.SetpointDeadband {
		return fmt.Errorf("setpoints %d/%d collapse the deadband", heat, cool)
	}
	_, err := tx.Exec(`UPDATE system SET heat_setpoint = ?, cool_setpoint = ? WHERE id = 1`, heat, cool)
	if err != nil {
		return fmt.Errorf("failed to update setpoints: %w", err)
	}
	return nil
}

// SaveRunTimesWithTx persists the accumulated run counters in one
// transaction.
func SaveRunTimesWithTx(tx *sql.Tx, runSeconds map[string]int64) error {
	for name, secs := range runSeconds {
		if _, err := tx.Exec(`UPDATE devices SET run_seconds = ? WHERE name = ?`, secs, name); err != nil {
			return fmt.Errorf("failed to save run time for %s: %w", name, err)
		}
	}
	return nil
}
