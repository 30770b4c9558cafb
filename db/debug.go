package db

import (
	"fmt"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

// CLI entry points for the hvac-debug tool. Each opens the database,
// applies one mutation and closes it; the controller picks the change
// up when it restores persisted state at its next boot.

func SetSystemModeCLI(path, mode string) error {
	parsed, ok := model.ParseSystemMode(mode)
	if !ok {
		return fmt.Errorf("invalid system mode: %s", mode)
	}
	dbConn, err := Open(path)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	return UpdateSystemMode(dbConn, parsed)
}

func SetFanModeCLI(path, mode string) error {
	parsed, ok := model.ParseFanMode(mode)
	if !ok {
		return fmt.Errorf("invalid fan mode: %s", mode)
	}
	dbConn, err := Open(path)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	return UpdateFanMode(dbConn, parsed)
}

func SetSetpointsCLI(path string, heat, cool int) error {
	dbConn, err := Open(path)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	tx, err := StartTransaction(dbConn)
	if err != nil {
		return err
	}
	if err := UpdateSetpointsWithTx(tx, heat, cool); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func SetDeviceEnabledCLI(path, name string, enabled bool) error {
	if _, ok := model.ParseHardwareItem(name); !ok {
		return fmt.Errorf("unknown device: %s", name)
	}
	dbConn, err := Open(path)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	return UpdateDeviceEnabled(dbConn, name, enabled)
}
