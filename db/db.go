package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS system (
	id INTEGER PRIMARY KEY CHECK(id=1),
	system_mode TEXT NOT NULL,
	fan_mode TEXT NOT NULL,
	heat_setpoint INTEGER NOT NULL,
	cool_setpoint INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS devices (
	name TEXT PRIMARY KEY,
	enabled BOOLEAN NOT NULL,
	run_seconds INTEGER NOT NULL
);
`

// Open opens the controller database, creating and seeding it on first
// run.
func Open(path string) (*sql.DB, error) {
	fresh := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fresh = true
	}

	dbConn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := dbConn.Exec(schema); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := seedIfEmpty(dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}

	if fresh {
		log.Info().Str("path", path).Msg("Database created and seeded")
	}
	return dbConn, nil
}

func seedIfEmpty(dbConn *sql.DB) error {
	var count int
	if err := dbConn.QueryRow(`SELECT COUNT(*) FROM system`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check system table: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := dbConn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO system (id, system_mode, fan_mode, heat_setpoint, cool_setpoint) VALUES (1, ?, ?, ?, ?)`,
		string(model.ModeOff), string(model.FanModeAuto), model.DefaultHeatSetpoint, model.DefaultCoolSetpoint)
	if err != nil {
		return fmt.Errorf("failed to insert system record: %w", err)
	}

	for _, item := range model.Items() {
		_, err = tx.Exec(`INSERT INTO devices (name, enabled, run_seconds) VALUES (?, ?, ?)`,
			item.String(), true, 0)
		if err != nil {
			return fmt.Errorf("failed to insert device %s: %w", item, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

// ValidateDatabase checks the expected tables exist with a full device
// roster.
func ValidateDatabase(dbConn *sql.DB) error {
	var count int
	if err := dbConn.QueryRow(`SELECT COUNT(*) FROM system`).Scan(&count); err != nil {
		return fmt.Errorf("failed to query system table: %w", err)
	}
	if count != 1 {
		return fmt.Errorf("system table has %d records, want 1", count)
	}
	if err := dbConn.QueryRow(`SELECT COUNT(*) FROM devices`).Scan(&count); err != nil {
		return fmt.Errorf("failed to query devices table: %w", err)
	}
	if count != int(model.NumHardwareItems) {
		return fmt.Errorf("devices table has %d records, want %d", count, model.NumHardwareItems)
	}
	return nil
}
