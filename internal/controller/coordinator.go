// Package controller holds the toggle coordinator, the single entry point
// for turning a station on or off. It is the only code allowed to create or
// clear session entries based on device acknowledgments.
package controller

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oebus/sprinkler-controller/internal/datadog"
	"github.com/oebus/sprinkler-controller/internal/session"
	"github.com/oebus/sprinkler-controller/internal/station"
)

// Commander is the control backend for a station. The OpenSprinkler HTTP
// client implements it; alternate transports slot in behind the same seam.
type Commander interface {
	Activate(deviceIndex, durationSeconds int) bool
	Deactivate(deviceIndex int) bool
}

// Recorder receives confirmed toggle actions. May be nil.
type Recorder interface {
	RecordToggle(displayIndex int, name, action string, duration time.Duration)
}

type Outcome string

const (
	OutcomeActivated   Outcome = "activated"
	OutcomeDeactivated Outcome = "deactivated"
	OutcomeRejected    Outcome = "rejected"
)

type Reason string

const (
	ReasonInvalidStation            Reason = "invalid_station"
	ReasonInvalidDuration           Reason = "invalid_duration"
	ReasonDeviceCommunicationFailed Reason = "device_communication_failed"
)

// Result reports what a toggle did. Duration is set for activations, Reason
// for rejections.
type Result struct {
	Outcome  Outcome
	Duration time.Duration
	Reason   Reason
}

type Coordinator struct {
	registry  *station.Registry
	tracker   *session.Tracker
	commander Commander
	recorder  Recorder
}

func New(registry *station.Registry, tracker *session.Tracker, commander Commander, recorder Recorder) *Coordinator {
	return &Coordinator{
		registry:  registry,
		tracker:   tracker,
		commander: commander,
		recorder:  recorder,
	}
}

// Toggle flips a station: deactivates it if the local session says it is
// running, otherwise activates it for the requested duration. Session state
// only changes after the device confirms the command, so a failed call
// leaves the last known-good state in place. Device I/O runs outside any
// lock; the tracker serializes the commit itself.
func (c *Coordinator) Toggle(displayIndex int, duration time.Duration) Result {
	deviceIndex, err := c.registry.Resolve(displayIndex)
	if err != nil {
		log.Error().Int("station", displayIndex).Msg("Invalid station")
		return c.reject(displayIndex, ReasonInvalidStation)
	}
	name := c.registry.Name(displayIndex)

	if c.tracker.IsActive(displayIndex) {
		if !c.commander.Deactivate(deviceIndex) {
			// The zone is plausibly still running; keep believing it is.
			log.Error().Int("station", displayIndex).Str("name", name).Msg("Failed to turn off station")
			return c.reject(displayIndex, ReasonDeviceCommunicationFailed)
		}
		c.tracker.MarkInactive(displayIndex)
		log.Info().Int("station", displayIndex).Str("name", name).Msg("Turned off station")
		datadog.Count("toggle.deactivated", 1)
		if c.recorder != nil {
			c.recorder.RecordToggle(displayIndex, name, string(OutcomeDeactivated), 0)
		}
		return Result{Outcome: OutcomeDeactivated}
	}

	if duration <= 0 {
		log.Error().Int("station", displayIndex).Dur("duration", duration).Msg("Activation requires a positive duration")
		return c.reject(displayIndex, ReasonInvalidDuration)
	}

	if !c.commander.Activate(deviceIndex, int(duration/time.Second)) {
		log.Error().Int("station", displayIndex).Str("name", name).Msg("Failed to turn on station")
		return c.reject(displayIndex, ReasonDeviceCommunicationFailed)
	}
	c.tracker.MarkActive(displayIndex, duration)
	log.Info().
		Int("station", displayIndex).
		Str("name", name).
		Dur("duration", duration).
		Msg("Turned on station")
	datadog.Count("toggle.activated", 1)
	if c.recorder != nil {
		c.recorder.RecordToggle(displayIndex, name, string(OutcomeActivated), duration)
	}
	return Result{Outcome: OutcomeActivated, Duration: duration}
}

func (c *Coordinator) reject(displayIndex int, reason Reason) Result {
	datadog.Count("toggle.rejected", 1, "reason:"+string(reason))
	return Result{Outcome: OutcomeRejected, Reason: reason}
}
