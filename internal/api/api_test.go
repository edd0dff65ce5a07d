package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oebus/sprinkler-controller/internal/controller"
	"github.com/oebus/sprinkler-controller/internal/journal"
	"github.com/oebus/sprinkler-controller/internal/session"
	"github.com/oebus/sprinkler-controller/internal/station"
	"github.com/oebus/sprinkler-controller/internal/status"
)

type fakeLister struct {
	names []string
}

func (f *fakeLister) StationNames() []string { return f.names }

type fakeCommander struct {
	activateOK   bool
	deactivateOK bool
}

func (f *fakeCommander) Activate(deviceIndex, durationSeconds int) bool { return f.activateOK }
func (f *fakeCommander) Deactivate(deviceIndex int) bool                { return f.deactivateOK }

type fakeSnapshotter struct{}

func (f *fakeSnapshotter) Snapshot() map[string]json.RawMessage {
	return map[string]json.RawMessage{"settings": json.RawMessage(`{"devt":123}`)}
}

func setupServer(t *testing.T, cmd *fakeCommander) (*Server, *session.Tracker, *fakeLister) {
	lister := &fakeLister{names: []string{"S1", "Front Lawn", "s2", "Back Garden"}}
	reg := station.Build(lister)
	tracker := session.NewTracker()

	jrnl, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { jrnl.Close() })

	coord := controller.New(reg, tracker, cmd, jrnl)
	reporter := status.NewReporter(reg, tracker)

	return NewServer(reporter, coord, reg, &fakeSnapshotter{}, jrnl, 5*time.Minute), tracker, lister
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetStations(t *testing.T) {
	srv, tracker, _ := setupServer(t, &fakeCommander{})
	tracker.MarkActive(1, 2*time.Minute)

	rec := doRequest(t, srv, http.MethodGet, "/api/stations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stations []status.StationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stations))
	require.Len(t, stations, 2)
	assert.Equal(t, "Front Lawn", stations[0].Name)
	assert.False(t, stations[0].Active)
	assert.Equal(t, "Back Garden", stations[1].Name)
	assert.True(t, stations[1].Active)
}

func TestToggleStation(t *testing.T) {
	srv, tracker, _ := setupServer(t, &fakeCommander{activateOK: true, deactivateOK: true})

	body, _ := json.Marshal(ToggleRequest{DurationSeconds: 120})
	rec := doRequest(t, srv, http.MethodPost, "/api/stations/0/toggle", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ToggleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "activated", resp.Outcome)
	assert.Equal(t, 120, resp.DurationSeconds)
	assert.True(t, tracker.IsActive(0))
}

func TestToggleStation_DefaultDuration(t *testing.T) {
	srv, tracker, _ := setupServer(t, &fakeCommander{activateOK: true})

	rec := doRequest(t, srv, http.MethodPost, "/api/stations/0/toggle", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ToggleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 300, resp.DurationSeconds)
	assert.True(t, tracker.IsActive(0))
}

func TestToggleStation_InvalidStation(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeCommander{activateOK: true})

	rec := doRequest(t, srv, http.MethodPost, "/api/stations/9/toggle", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ToggleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Outcome)
	assert.Equal(t, "invalid_station", resp.Reason)
}

func TestToggleStation_DeviceFailure(t *testing.T) {
	srv, tracker, _ := setupServer(t, &fakeCommander{activateOK: false})

	rec := doRequest(t, srv, http.MethodPost, "/api/stations/0/toggle", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, tracker.IsActive(0))
}

func TestToggleStation_BadID(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeCommander{})

	rec := doRequest(t, srv, http.MethodPost, "/api/stations/lawn/toggle", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleStation_GetNotAllowed(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeCommander{})

	rec := doRequest(t, srv, http.MethodGet, "/api/stations/0/toggle", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReloadStations(t *testing.T) {
	srv, _, lister := setupServer(t, &fakeCommander{})
	lister.names = []string{"Front Lawn", "Back Garden", "Patio"}

	rec := doRequest(t, srv, http.MethodPost, "/api/stations/reload", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Stations)
}

func TestGetDevice(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeCommander{})

	rec := doRequest(t, srv, http.MethodGet, "/api/device", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Contains(t, snap, "settings")
}

func TestGetJournal(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeCommander{activateOK: true})

	doRequest(t, srv, http.MethodPost, "/api/stations/0/toggle", nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/journal", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Front Lawn", entries[0].Name)
	assert.Equal(t, "activated", entries[0].Action)
}
