package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jahartley/HvacStateMachine/db"
	"github.com/jahartley/HvacStateMachine/internal/actuator"
	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/controller"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

func newTestServer(t *testing.T) (*Server, *controller.Controller) {
	dbConn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })

	pins := make(map[model.HardwareItem]model.GPIOPin)
	for _, item := range model.Items() {
		pins[item] = model.GPIOPin{Number: 10 + int(item), ActiveHigh: true}
	}
	ctrl := controller.New(controller.Config{
		Clock:  clock.NewManual(),
		Output: actuator.OutputFunc(func(model.GPIOPin, bool) {}),
		Pins:   pins,
	})

	return NewServer(dbConn, ctrl), ctrl
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetSystemMode(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/system/mode", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SystemModeRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "off", resp.Mode)
}

func TestPutSystemModePersists(t *testing.T) {
	srv, ctrl := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/system/mode", SystemModeRequest{Mode: "cool"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ModeCool, ctrl.Mode())

	mode, err := db.GetSystemMode(srv.db)
	require.NoError(t, err)
	assert.Equal(t, model.ModeCool, mode)
}

func TestPutSystemModeRejectsUnknown(t *testing.T) {
	srv, ctrl := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/system/mode", SystemModeRequest{Mode: "defrost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ModeOff, ctrl.Mode())
}

func TestPutFanMode(t *testing.T) {
	srv, ctrl := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/system/fan", FanModeRequest{Mode: "circulate"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.FanModeCirculate, ctrl.FanMode())

	fan, err := db.GetFanMode(srv.db)
	require.NoError(t, err)
	assert.Equal(t, model.FanModeCirculate, fan)
}

func intPtr(n int) *int { return &n }

func TestPutSetpoints(t *testing.T) {
	srv, ctrl := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/system/setpoints",
		SetpointsRequest{Heat: intPtr(68), Cool: intPtr(76)})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 68, ctrl.HeatSetpoint())
	assert.Equal(t, 76, ctrl.CoolSetpoint())

	heat, cool, err := db.GetSetpoints(srv.db)
	require.NoError(t, err)
	assert.Equal(t, 68, heat)
	assert.Equal(t, 76, cool)
}

func TestPutSetpointsShiftsWholeBand(t *testing.T) {
	srv, ctrl := newTestServer(t)

	// Lowering both: heat must land before cool.
	rec := doRequest(t, srv, http.MethodPut, "/api/system/setpoints",
		SetpointsRequest{Heat: intPtr(60), Cool: intPtr(64)})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, ctrl.HeatSetpoint())
	assert.Equal(t, 64, ctrl.CoolSetpoint())
}

func TestPutSetpointsRejectsCollapsedDeadband(t *testing.T) {
	srv, ctrl := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/system/setpoints",
		SetpointsRequest{Heat: intPtr(72)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, model.DefaultHeatSetpoint, ctrl.HeatSetpoint())

	heat, cool, err := db.GetSetpoints(srv.db)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultHeatSetpoint, heat)
	assert.Equal(t, model.DefaultCoolSetpoint, cool)
}

func TestStatusListsAllDevices(t *testing.T) {
	srv, ctrl := newTestServer(t)
	ctrl.SetTemperature(75)

	rec := doRequest(t, srv, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "off", resp.Mode)
	assert.Equal(t, "off", resp.GoalMode)
	assert.Equal(t, 75, resp.Temperature)
	assert.Len(t, resp.Devices, int(model.NumHardwareItems))
	for _, d := range resp.Devices {
		assert.False(t, d.On)
		assert.True(t, d.Enabled)
	}
}

func TestPutDeviceEnabled(t *testing.T) {
	srv, ctrl := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/devices/compressor_2/enabled",
		DeviceEnabledRequest{Enabled: false})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ctrl.Enabled(model.Comp2))

	device, err := db.GetDevice(srv.db, "compressor_2")
	require.NoError(t, err)
	assert.False(t, device.Enabled)
}

func TestPutDeviceEnabledUnknownDevice(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/devices/flux_capacitor/enabled",
		DeviceEnabledRequest{Enabled: false})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodDelete, "/api/system/mode", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
