package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/db"
	"github.com/jahartley/HvacStateMachine/internal/api"
	"github.com/jahartley/HvacStateMachine/internal/availability"
	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/config"
	"github.com/jahartley/HvacStateMachine/internal/controller"
	"github.com/jahartley/HvacStateMachine/internal/datadog"
	"github.com/jahartley/HvacStateMachine/internal/gpio"
	"github.com/jahartley/HvacStateMachine/internal/logging"
	"github.com/jahartley/HvacStateMachine/internal/model"
	"github.com/jahartley/HvacStateMachine/internal/notifications"
	"github.com/jahartley/HvacStateMachine/internal/temperature"
	"github.com/jahartley/HvacStateMachine/system/shutdown"
	"github.com/jahartley/HvacStateMachine/system/startup"
)

// ntfyNotifier adapts the notifications package to the temperature
// service's notifier seam.
type ntfyNotifier struct{}

func (ntfyNotifier) Send(title, message string) error {
	return notifications.Send(title, message)
}

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("db_path", cfg.DBPath).
		Msg("Starting HVAC controller")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED — GPIO writes are disabled system-wide")
	}

	pins := cfg.Pins()
	if err := gpio.ValidateInitialPinStates(pins); err != nil {
		log.Fatal().Err(err).Msg("Refusing to start with energized actuator pins")
	}

	if cfg.StartupScriptPath != "" {
		if err := startup.WriteStartupScript(&cfg, cfg.StartupScriptPath); err != nil {
			log.Error().Err(err).Msg("Could not write startup pin script")
		}
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer dbConn.Close()

	if err := db.ValidateDatabase(dbConn); err != nil {
		log.Fatal().Err(err).Msg("Database validation failed")
	}

	notifications.Init(cfg.NtfyTopic)
	datadog.InitMetrics(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags, cfg.EnableDatadog)

	ctrl := controller.New(controller.Config{
		Clock:  clock.NewMonotonic(),
		Output: gpio.Sink{},
		Pins:   pins,
		Timing: cfg.Timing(),
		Logger: &log.Logger,
	})

	restorePersistedState(dbConn, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tempService := temperature.NewService(cfg.SensorBus, cfg.SensorPollSeconds, ntfyNotifier{})
	go tempService.Run(ctx)

	monitor := availability.New(ctrl, *cfg.Sense.ShorePower, *cfg.Sense.CoolantHot, cfg.SensorPollSeconds)
	go monitor.Run(ctx)

	apiServer := api.NewServer(dbConn, ctrl)
	go func() {
		if err := apiServer.Start(cfg.APIPort); err != nil {
			log.Error().Err(err).Msg("API server stopped")
		}
	}()

	go tickLoop(ctx, cfg, ctrl, tempService, dbConn)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutdown signal received")
	cancel()
	persistRunTimes(dbConn, ctrl)
	shutdown.Shutdown(pins)
}

// restorePersistedState pushes the operator state saved in the db into
// the freshly built controller.
func restorePersistedState(dbConn *sql.DB, ctrl *controller.Controller) {
	if mode, err := db.GetSystemMode(dbConn); err == nil {
		ctrl.SetSystemMode(mode)
	} else {
		log.Error().Err(err).Msg("Could not restore system mode")
	}

	if fan, err := db.GetFanMode(dbConn); err == nil {
		ctrl.SetFanMode(fan)
	} else {
		log.Error().Err(err).Msg("Could not restore fan mode")
	}

	heat, cool, err := db.GetSetpoints(dbConn)
	if err != nil {
		log.Error().Err(err).Msg("Could not restore setpoints")
	} else {
		// Order matters when the band has moved relative to defaults.
		if !ctrl.SetCoolSetpoint(cool) {
			ctrl.SetHeatSetpoint(heat)
			ctrl.SetCoolSetpoint(cool)
		} else {
			ctrl.SetHeatSetpoint(heat)
		}
	}

	devices, err := db.GetAllDevices(dbConn)
	if err != nil {
		log.Error().Err(err).Msg("Could not restore device enabled flags")
		return
	}
	for _, d := range devices {
		item, ok := model.ParseHardwareItem(d.Name)
		if !ok {
			log.Warn().Str("device", d.Name).Msg("Unknown device in database, skipping")
			continue
		}
		ctrl.SetEnabled(item, d.Enabled)
	}

	log.Info().
		Str("mode", string(ctrl.Mode())).
		Int("heat_setpoint", ctrl.HeatSetpoint()).
		Int("cool_setpoint", ctrl.CoolSetpoint()).
		Msg("Restored persisted state")
}

func tickLoop(ctx context.Context, cfg config.Config, ctrl *controller.Controller, tempService *temperature.Service, dbConn *sql.DB) {
	ticker := time.NewTicker(time.Duration(cfg.TickIntervalSeconds) * time.Second)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down controller loop")
			return
		case <-ticker.C:
			if temp, valid := tempService.GetTemperature(); valid {
				ctrl.SetTemperature(int(math.Round(temp)))
			}
			ctrl.Tick()

			ticks++
			if ticks%15 == 0 {
				emitMetrics(ctrl)
			}
			if ticks%60 == 0 {
				persistRunTimes(dbConn, ctrl)
			}
		}
	}
}

func emitMetrics(ctrl *controller.Controller) {
	if temp := ctrl.Temperature(); temp != model.NoTemperature {
		datadog.Gauge("coach.temperature", float64(temp), "component:sensor")
	}
	for _, item := range model.Items() {
		on := 0.0
		if ctrl.IsOn(item) {
			on = 1.0
		}
		tag := fmt.Sprintf("device:%s", item)
		datadog.Gauge("device.on", on, tag)
		datadog.Gauge("device.run_seconds", float64(ctrl.RunTimeSeconds(item)), tag)
	}
}

func persistRunTimes(dbConn *sql.DB, ctrl *controller.Controller) {
	runSeconds := make(map[string]int64, model.NumHardwareItems)
	for _, item := range model.Items() {
		runSeconds[item.String()] = ctrl.RunTimeSeconds(item)
	}

	tx, err := db.StartTransaction(dbConn)
	if err != nil {
		log.Error().Err(err).Msg("Could not start run time persistence transaction")
		return
	}
	if err := db.SaveRunTimesWithTx(tx, runSeconds); err != nil {
		db.RollbackTransaction(tx)
		log.Error().Err(err).Msg("Failed to persist run times")
		return
	}
	if err := db.CommitTransaction(tx); err != nil {
		log.Error().Err(err).Msg("Failed to commit run times")
	}
}
