package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oebus/sprinkler-controller/internal/session"
	"github.com/oebus/sprinkler-controller/internal/station"
)

type fakeLister struct {
	names []string
}

func (f *fakeLister) StationNames() []string { return f.names }

type fakeStates struct {
	states []bool
	calls  int
}

func (f *fakeStates) StationStates() []bool {
	f.calls++
	return f.states
}

// Registry: display 0 -> device 1 ("Front Lawn"), display 1 -> device 3
// ("Back Garden").
func newTestPoller(states *fakeStates) (*Poller, *session.Tracker) {
	reg := station.Build(&fakeLister{names: []string{"S1", "Front Lawn", "s2", "Back Garden"}})
	tracker := session.NewTracker()
	return New(states, reg, tracker, time.Second), tracker
}

func TestReconcile_ClearsSessionWhenDeviceReportsOff(t *testing.T) {
	states := &fakeStates{states: []bool{false, false, false, false}}
	p, tracker := newTestPoller(states)
	tracker.MarkActive(0, time.Minute)

	p.reconcile()

	assert.False(t, tracker.IsActive(0))
}

func TestReconcile_Idempotent(t *testing.T) {
	states := &fakeStates{states: []bool{false, false, false, false}}
	p, tracker := newTestPoller(states)
	tracker.MarkActive(0, time.Minute)

	p.reconcile()
	require.False(t, tracker.IsActive(0))

	// A second tick with the device still off changes nothing.
	p.reconcile()
	assert.False(t, tracker.IsActive(0))
	assert.Empty(t, tracker.ActiveStations())
}

func TestReconcile_KeepsSessionWhenDeviceReportsOn(t *testing.T) {
	states := &fakeStates{states: []bool{false, true, false, false}}
	p, tracker := newTestPoller(states)
	tracker.MarkActive(0, time.Minute) // device index 1

	p.reconcile()

	assert.True(t, tracker.IsActive(0))
}

func TestReconcile_NeverActivates(t *testing.T) {
	states := &fakeStates{states: []bool{true, true, true, true}}
	p, tracker := newTestPoller(states)

	p.reconcile()

	assert.Empty(t, tracker.ActiveStations(), "the poller must not invent sessions")
}

func TestReconcile_SkipsFailedPoll(t *testing.T) {
	states := &fakeStates{states: nil}
	p, tracker := newTestPoller(states)
	tracker.MarkActive(0, time.Minute)

	p.reconcile()

	assert.True(t, tracker.IsActive(0), "a failed poll must not change local state")
}

func TestReconcile_ShortStateListIsUnknown(t *testing.T) {
	// Device reports fewer state bits than names: device index 3 is missing.
	states := &fakeStates{states: []bool{false, false}}
	p, tracker := newTestPoller(states)
	tracker.MarkActive(1, time.Minute) // device index 3

	p.reconcile()

	assert.True(t, tracker.IsActive(1), "out-of-range device state is unknown, not off")
}

func TestReconcile_SessionOutsideRegistryIsLeftAlone(t *testing.T) {
	states := &fakeStates{states: []bool{false, false, false, false}}
	p, tracker := newTestPoller(states)
	tracker.MarkActive(7, time.Minute) // no such display index

	p.reconcile()

	assert.True(t, tracker.IsActive(7))
}
