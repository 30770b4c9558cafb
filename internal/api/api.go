package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/db"
	"github.com/jahartley/HvacStateMachine/internal/controller"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

type Server struct {
	db   *sql.DB
	ctrl *controller.Controller
}

type SystemModeRequest struct {
	Mode string `json:"mode"`
}

type FanModeRequest struct {
	Mode string `json:"mode"`
}

type SetpointsRequest struct {
	Heat *int `json:"heat"`
	Cool *int `json:"cool"`
}

type SetpointsResponse struct {
	Heat int `json:"heat"`
	Cool int `json:"cool"`
}

type DeviceResponse struct {
	Name       string `json:"name"`
	On         bool   `json:"on"`
	Available  bool   `json:"available"`
	Enabled    bool   `json:"enabled"`
	RunSeconds int64  `json:"run_seconds"`
}

type StatusResponse struct {
	Mode        string           `json:"mode"`
	FanMode     string           `json:"fan_mode"`
	GoalMode    string           `json:"goal_mode"`
	Temperature int              `json:"temperature"`
	Setpoints   SetpointsResponse `json:"setpoints"`
	Devices     []DeviceResponse `json:"devices"`
}

type DeviceEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(database *sql.DB, ctrl *controller.Controller) *Server {
	return &Server{
		db:   database,
		ctrl: ctrl,
	}
}

// Handler builds the routing mux with CORS headers applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/system/mode", s.handleSystemMode)
	mux.HandleFunc("/api/system/fan", s.handleFanMode)
	mux.HandleFunc("/api/system/setpoints", s.handleSetpoints)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/devices/", s.handleDeviceOperations)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting REST API server")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleSystemMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, SystemModeRequest{Mode: string(s.ctrl.Mode())})
	case http.MethodPut:
		var req SystemModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		mode, ok := model.ParseSystemMode(req.Mode)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "Invalid system mode. Valid modes: off, cool, heat, auto")
			return
		}
		s.ctrl.SetSystemMode(mode)
		if err := db.UpdateSystemMode(s.db, mode); err != nil {
			log.Error().Err(err).Str("mode", req.Mode).Msg("Failed to persist system mode")
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Info().Str("mode", req.Mode).Msg("System mode updated via API")
		w.WriteHeader(http.StatusOK)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleFanMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, FanModeRequest{Mode: string(s.ctrl.FanMode())})
	case http.MethodPut:
		var req FanModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		mode, ok := model.ParseFanMode(req.Mode)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "Invalid fan mode. Valid modes: auto, low, high, circulate")
			return
		}
		s.ctrl.SetFanMode(mode)
		if err := db.UpdateFanMode(s.db, mode); err != nil {
			log.Error().Err(err).Str("mode", req.Mode).Msg("Failed to persist fan mode")
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Info().Str("mode", req.Mode).Msg("Fan mode updated via API")
		w.WriteHeader(http.StatusOK)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleSetpoints(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, SetpointsResponse{
			Heat: s.ctrl.HeatSetpoint(),
			Cool: s.ctrl.CoolSetpoint(),
		})
	case http.MethodPut:
		var req SetpointsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		if req.Heat == nil && req.Cool == nil {
			s.writeError(w, http.StatusBadRequest, "Provide heat and/or cool")
			return
		}
		if !s.applySetpoints(req) {
			s.writeError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("Setpoints must keep cool at least %d°F above heat", model.SetpointDeadband))
			return
		}

		heat, cool := s.ctrl.HeatSetpoint(), s.ctrl.CoolSetpoint()
		tx, err := db.StartTransaction(s.db)
		if err == nil {
			if err = db.UpdateSetpointsWithTx(tx, heat, cool); err == nil {
				err = db.CommitTransaction(tx)
			} else {
				db.RollbackTransaction(tx)
			}
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to persist setpoints")
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		log.Info().Int("heat", heat).Int("cool", cool).Msg("Setpoints updated via API")
		s.writeJSON(w, http.StatusOK, SetpointsResponse{Heat: heat, Cool: cool})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// applySetpoints tries both orderings so a pair that shifts the whole
// band (for example heat 74, cool 78) is accepted atomically.
func (s *Server) applySetpoints(req SetpointsRequest) bool {
	apply := func() bool {
		ok := true
		if req.Cool != nil {
			ok = s.ctrl.SetCoolSetpoint(*req.Cool)
		}
		if ok && req.Heat != nil {
			ok = s.ctrl.SetHeatSetpoint(*req.Heat)
		}
		return ok
	}
	if apply() {
		return true
	}
	// Cool-first failed; raising both setpoints needs heat set last,
	// lowering needs cool set last.
	if req.Heat != nil && req.Cool != nil {
		if s.ctrl.SetHeatSetpoint(*req.Heat) && s.ctrl.SetCoolSetpoint(*req.Cool) {
			return true
		}
	}
	return false
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	devices := make([]DeviceResponse, 0, model.NumHardwareItems)
	for _, item := range model.Items() {
		devices = append(devices, DeviceResponse{
			Name:       item.String(),
			On:         s.ctrl.IsOn(item),
			Available:  s.ctrl.Available(item),
			Enabled:    s.ctrl.Enabled(item),
			RunSeconds: s.ctrl.RunTimeSeconds(item),
		})
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{
		Mode:        string(s.ctrl.Mode()),
		FanMode:     string(s.ctrl.FanMode()),
		GoalMode:    string(s.ctrl.GoalMode()),
		Temperature: s.ctrl.Temperature(),
		Setpoints: SetpointsResponse{
			Heat: s.ctrl.HeatSetpoint(),
			Cool: s.ctrl.CoolSetpoint(),
		},
		Devices: devices,
	})
}

func (s *Server) handleDeviceOperations(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "enabled" {
		s.writeError(w, http.StatusNotFound, "Invalid path")
		return
	}
	if r.Method != http.MethodPut {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	item, ok := model.ParseHardwareItem(parts[0])
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unknown device")
		return
	}

	var req DeviceEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	s.ctrl.SetEnabled(item, req.Enabled)
	if err := db.UpdateDeviceEnabled(s.db, item.String(), req.Enabled); err != nil {
		log.Error().Err(err).Str("device", item.String()).Msg("Failed to persist enabled flag")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("device", item.String()).Bool("enabled", req.Enabled).Msg("Device enabled flag updated via API")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
