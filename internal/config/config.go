package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

// Actuators maps each hardware item to its relay board pin.
type Actuators struct {
	Compressor1    *int `json:"compressor_1"`
	Compressor2    *int `json:"compressor_2"`
	GasHeat        *int `json:"gas_heat"`
	ReversingValve *int `json:"reversing_valve"`
	FanLow         *int `json:"fan_low"`
	FanHigh        *int `json:"fan_high"`
	CoachHeatLow   *int `json:"coach_heat_low"`
	CoachHeatHigh  *int `json:"coach_heat_high"`
}

// Senses are host input pins consulted for availability.
type Senses struct {
	ShorePower *int `json:"shore_power"`
	CoolantHot *int `json:"coolant_hot"`
}

type Config struct {
	ConfigFile string
	LogFile    string
	LogLevel   zerolog.Level

	DBPath            string `json:"db_path"`
	SafeMode          bool   `json:"safe_mode"`
	APIPort           int    `json:"api_port"`
	StartupScriptPath string `json:"startup_script_path"`

	TickIntervalSeconds int    `json:"tick_interval_seconds"`
	SensorPollSeconds   int    `json:"sensor_poll_seconds"`
	SensorBus           string `json:"sensor_bus"`

	RelayActiveHigh bool `json:"relay_active_high"`

	// Timing overrides in seconds; zero keeps the defaults.
	DecidePeriodSeconds     int `json:"decide_period_seconds"`
	FanToCompDelaySeconds   int `json:"fan_to_comp_delay_seconds"`
	CompStaggerSeconds      int `json:"comp_stagger_seconds"`
	CompRestartDelaySeconds int `json:"comp_restart_delay_seconds"`
	ValveSettleSeconds      int `json:"valve_settle_seconds"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic string `json:"ntfy_topic"`

	GPIO  Actuators `json:"gpio"`
	Sense Senses    `json:"sense"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&cfg.LogFile, "log-file", "/var/log/hvac-controller.log", "Path to log file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = ParseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func ParseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.DBPath == "" {
		cfg.DBPath = "data/hvac.db"
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8080
	}
	if cfg.TickIntervalSeconds == 0 {
		cfg.TickIntervalSeconds = 1
	}
	if cfg.SensorPollSeconds == 0 {
		cfg.SensorPollSeconds = 15
	}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	check := func(group string, v reflect.Value, t reflect.Type) {
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			fieldName := t.Field(i).Tag.Get("json")

			if field.IsNil() {
				missingFields = append(missingFields, group+"."+fieldName)
				continue
			}

			pin := int(field.Elem().Int())
			if other, exists := usedPins[pin]; exists {
				conflicts = append(conflicts, fmt.Sprintf("%s.%s and %s both use pin %d", group, fieldName, other, pin))
			} else {
				usedPins[pin] = group + "." + fieldName
			}
		}
	}

	check("gpio", reflect.ValueOf(cfg.GPIO), reflect.TypeOf(cfg.GPIO))
	check("sense", reflect.ValueOf(cfg.Sense), reflect.TypeOf(cfg.Sense))

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
}

// Pins returns the actuator pin bindings keyed by hardware item.
func (cfg *Config) Pins() map[model.HardwareItem]model.GPIOPin {
	pin := func(n *int) model.GPIOPin {
		return model.GPIOPin{Number: *n, ActiveHigh: cfg.RelayActiveHigh}
	}
	return map[model.HardwareItem]model.GPIOPin{
		model.Comp1:          pin(cfg.GPIO.Compressor1),
		model.Comp2:          pin(cfg.GPIO.Compressor2),
		model.GasHeat:        pin(cfg.GPIO.GasHeat),
		model.ReversingValve: pin(cfg.GPIO.ReversingValve),
		model.FanLow:         pin(cfg.GPIO.FanLow),
		model.FanHigh:        pin(cfg.GPIO.FanHigh),
		model.CoachHeatLow:   pin(cfg.GPIO.CoachHeatLow),
		model.CoachHeatHigh:  pin(cfg.GPIO.CoachHeatHigh),
	}
}

// Timing folds the per-deployment overrides over the defaults.
func (cfg *Config) Timing() model.Timing {
	timing := model.DefaultTiming()
	override := func(dst *time.Duration, seconds int) {
		if seconds > 0 {
			*dst = time.Duration(seconds) * time.Second
		}
	}
	override(&timing.DecidePeriod, cfg.DecidePeriodSeconds)
	override(&timing.FanToCompDelay, cfg.FanToCompDelaySeconds)
	override(&timing.CompStagger, cfg.CompStaggerSeconds)
	override(&timing.CompRestartDelay, cfg.CompRestartDelaySeconds)
	override(&timing.ValveSettle, cfg.ValveSettleSeconds)
	return timing
}
