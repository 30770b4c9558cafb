package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jahartley/HvacStateMachine/db"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, command, mode, device string
	var heat, cool int
	var enabled bool
	flag.StringVar(&dbPath, "db", "data/hvac.db", "Path to the SQLite database file")
	flag.StringVar(&command, "cmd", "", "Command to run: set-system-mode, set-fan-mode, set-setpoints, set-device-enabled")
	flag.StringVar(&mode, "mode", "", "Mode for set-system-mode or set-fan-mode")
	flag.StringVar(&device, "device", "", "Device name for set-device-enabled")
	flag.IntVar(&heat, "heat", 0, "Heat setpoint for set-setpoints")
	flag.IntVar(&cool, "cool", 0, "Cool setpoint for set-setpoints")
	flag.BoolVar(&enabled, "enabled", true, "Enabled flag for set-device-enabled")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of hvac-debug:")
		fmt.Println("  -db string\tPath to the SQLite database file (default 'data/hvac.db')")
		fmt.Println("  -cmd string\tCommand to run: set-system-mode, set-fan-mode, set-setpoints, set-device-enabled")
		fmt.Println("  -mode string\tMode for system or fan commands")
		fmt.Println("  -device string\tDevice name for set-device-enabled")
		fmt.Println("  -heat int\tHeat setpoint for set-setpoints")
		fmt.Println("  -cool int\tCool setpoint for set-setpoints")
		fmt.Println("  -enabled\tEnabled flag for set-device-enabled")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "set-system-mode":
		err = db.SetSystemModeCLI(dbPath, mode)
	case "set-fan-mode":
		err = db.SetFanModeCLI(dbPath, mode)
	case "set-setpoints":
		err = db.SetSetpointsCLI(dbPath, heat, cool)
	case "set-device-enabled":
		if device == "" {
			fmt.Println("Error: device name is required")
			os.Exit(1)
		}
		err = db.SetDeviceEnabledCLI(dbPath, device, enabled)
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}
