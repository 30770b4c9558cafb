package temperature

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Reading struct {
	Temperature float64
	Timestamp   time.Time
	Valid       bool
}

// Notifier interface for sending notifications.
type Notifier interface {
	Send(title, message string) error
}

type noopNotifier struct{}

func (noopNotifier) Send(string, string) error { return nil }

// Service polls the coach DS18B20 sensor and vets readings before they
// reach the controller. A sensor that jumps around repeatedly is taken
// out of service until it produces a run of stable readings again.
type Service struct {
	mu      sync.RWMutex
	current Reading

	sensorPath   string
	pollInterval time.Duration

	maxDelta      float64
	maxAnomalies  int
	recoveryRuns  int
	anomalyCount  int
	recoveryCount int
	disabled      bool
	lastGood      Reading

	notifier Notifier
}

func NewService(sensorBus string, pollSeconds int, notifier Notifier) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		sensorPath:   filepath.Join("/sys/bus/w1/devices", sensorBus),
		pollInterval: time.Duration(pollSeconds) * time.Second,
		maxDelta:     5.0,
		maxAnomalies: 6,
		recoveryRuns: 10,
		notifier:     notifier,
	}
}

// Run polls until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Info().Str("sensor", s.sensorPath).Dur("interval", s.pollInterval).Msg("Starting temperature service")
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down temperature service")
			return
		case <-ticker.C:
			temp, err := readSensor(s.sensorPath)
			if err != nil {
				log.Error().Err(err).Msg("Sensor read failed")
				continue
			}
			s.observe(temp, time.Now())
		}
	}
}

// GetTemperature returns the latest vetted reading in °F.
func (s *Service) GetTemperature() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Temperature, s.current.Valid
}

// observe applies anomaly screening to one raw sample.
func (s *Service) observe(temp float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reading := Reading{Temperature: temp, Timestamp: now, Valid: true}

	if !s.lastGood.Valid {
		s.lastGood = reading
		s.current = reading
		return
	}

	delta := temp - s.lastGood.Temperature
	if delta < 0 {
		delta = -delta
	}

	if s.disabled {
		if delta <= s.maxDelta {
			s.recoveryCount++
			s.lastGood = reading
			if s.recoveryCount >= s.recoveryRuns {
				s.disabled = false
				s.anomalyCount = 0
				s.recoveryCount = 0
				s.current = reading
				log.Info().Float64("temp", temp).Msg("Sensor recovered, readings re-enabled")
				s.notifier.Send("HVAC sensor recovered", fmt.Sprintf("Coach sensor stable again at %.1f°F", temp))
			}
		} else {
			s.recoveryCount = 0
		}
		return
	}

	if delta > s.maxDelta {
		s.anomalyCount++
		log.Warn().
			Float64("temp", temp).
			Float64("last_good", s.lastGood.Temperature).
			Int("anomaly_count", s.anomalyCount).
			Msg("Anomalous temperature reading discarded")
		if s.anomalyCount >= s.maxAnomalies {
			s.disabled = true
			s.recoveryCount = 0
			s.current.Valid = false
			log.Error().Msg("Sensor disabled after repeated anomalies")
			s.notifier.Send("HVAC sensor disabled", "Coach sensor produced repeated anomalous readings")
		}
		return
	}

	s.anomalyCount = 0
	s.lastGood = reading
	s.current = reading
}

// readSensor parses a DS18B20 w1_slave file and converts to °F.
// Stubbed in tests.
var readSensor = func(sensorPath string) (float64, error) {
	file := filepath.Join(sensorPath, "w1_slave")
	data, err := os.ReadFile(file)
	if err != nil {
		return 0.0, fmt.Errorf("failed to read sensor data: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "t=") {
		return 0.0, fmt.Errorf("temperature data missing or malformed")
	}

	parts := strings.Split(lines[1], "t=")
	if len(parts) != 2 {
		return 0.0, fmt.Errorf("could not parse temperature line")
	}

	tempMilliC, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0.0, fmt.Errorf("failed to convert temperature to int: %w", err)
	}

	tempC := float64(tempMilliC) / 1000.0
	return tempC*9.0/5.0 + 32.0, nil
}
