package db

import (
	"database/sql"
	"fmt"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

// GetSystemMode retrieves the persisted system mode.
func GetSystemMode(db *sql.DB) (model.SystemMode, error) {
	var mode string
	err := db.QueryRow(`SELECT system_mode FROM system WHERE id = 1`).Scan(&mode)
	if err != nil {
		return model.ModeOff, fmt.Errorf("failed to get system mode: %w", err)
	}
	return model.SystemMode(mode), nil
}

func UpdateSystemMode(db *sql.DB, mode model.SystemMode) error {
	_, err := db.Exec(`UPDATE system SET system_mode = ? WHERE id = 1`, string(mode))
	if err != nil {
		return fmt.Errorf("failed to update system mode: %w", err)
	}
	return nil
}

func GetFanMode(db *sql.DB) (model.FanMode, error) {
	var mode string
	err := db.QueryRow(`SELECT fan_mode FROM system WHERE id = 1`).Scan(&mode)
	if err != nil {
		return model.FanModeAuto, fmt.Errorf("failed to get fan mode: %w", err)
	}
	return model.FanMode(mode), nil
}

func UpdateFanMode(db *sql.DB, mode model.FanMode) error {
	_, err := db.Exec(`UPDATE system SET fan_mode = ? WHERE id = 1`, string(mode))
	if err != nil {
		return fmt.Errorf("failed to update fan mode: %w", err)
	}
	return nil
}

// GetSetpoints returns the persisted heat and cool setpoints.
func GetSetpoints(db *sql.DB) (heat, cool int, err error) {
	err = db.QueryRow(`SELECT heat_setpoint, cool_setpoint FROM system WHERE id = 1`).Scan(&heat, &cool)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get setpoints: %w", err)
	}
	return heat, cool, nil
}

func UpdateHeatSetpoint(db *sql.DB, setpoint int) error {
	_, err := db.Exec(`UPDATE system SET heat_setpoint = ? WHERE id = 1`, setpoint)
	if err != nil {
		return fmt.Errorf("failed to update heat setpoint: %w", err)
	}
	return nil
}

func UpdateCoolSetpoint(db *sql.DB, setpoint int) error {
	_, err := db.Exec(`UPDATE system SET cool_setpoint = ? WHERE id = 1`, setpoint)
	if err != nil {
		return fmt.Errorf("failed to update cool setpoint: %w", err)
	}
	return nil
}

// DeviceState is one row of the devices table.
type DeviceState struct {
	Name       string
	Enabled    bool
	RunSeconds int64
}

func GetAllDevices(db *sql.DB) ([]DeviceState, error) {
	rows, err := db.Query(`SELECT name, enabled, run_seconds FROM devices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceState
	for rows.Next() {
		var d DeviceState
		if err := rows.Scan(&d.Name, &d.Enabled, &d.RunSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func GetDevice(db *sql.DB, name string) (*DeviceState, error) {
	var d DeviceState
	err := db.QueryRow(`SELECT name, enabled, run_seconds FROM devices WHERE name = ?`, name).
		Scan(&d.Name, &d.Enabled, &d.RunSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to get device %s: %w", name, err)
	}
	return &d, nil
}

func UpdateDeviceEnabled(db *sql.DB, name string, enabled bool) error {
	_, err := db.Exec(`UPDATE devices SET enabled = ? WHERE name = ?`, enabled, name)
	if err != nil {
		return fmt.Errorf("failed to update enabled flag for %s: %w", name, err)
	}
	return nil
}

func UpdateDeviceRunSeconds(db *sql.DB, name string, runSeconds int64) error {
	_, err := db.Exec(`UPDATE devices SET run_seconds = ? WHERE name = ?`, runSeconds, name)
	if err != nil {
		return fmt.Errorf("failed to update run seconds for %s: %w", name, err)
	}
	return nil
}
