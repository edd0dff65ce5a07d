// Package poller reconciles local session state against the device's
// reported station states. It only ever clears sessions; creating one is the
// toggle coordinator's job, so a stale remote read can never resurrect a
// station the operator stopped.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oebus/sprinkler-controller/internal/datadog"
	"github.com/oebus/sprinkler-controller/internal/session"
	"github.com/oebus/sprinkler-controller/internal/station"
)

// StatesLister is the slice of the device client the poller needs.
type StatesLister interface {
	StationStates() []bool
}

type Poller struct {
	states   StatesLister
	registry *station.Registry
	tracker  *session.Tracker
	interval time.Duration
}

func New(states StatesLister, registry *station.Registry, tracker *session.Tracker, interval time.Duration) *Poller {
	return &Poller{
		states:   states,
		registry: registry,
		tracker:  tracker,
		interval: interval,
	}
}

// Run polls on the configured interval until ctx is done. Failed polls are
// skipped; the interval itself throttles retries.
func (p *Poller) Run(ctx context.Context) {
	log.Info().Dur("interval", p.interval).Msg("Status poller running")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reconcile()
		}
	}
}

func (p *Poller) reconcile() {
	states := p.states.StationStates()
	if states == nil {
		// Device unreachable; try again next tick.
		return
	}

	for _, displayIndex := range p.tracker.ActiveStations() {
		deviceIndex, err := p.registry.Resolve(displayIndex)
		if err != nil {
			// Session predates a registry reload that shrank the mapping.
			continue
		}
		if deviceIndex >= len(states) {
			// Device reported fewer state bits than names; state unknown.
			continue
		}
		if !states[deviceIndex] {
			p.tracker.MarkInactive(displayIndex)
			log.Info().
				Int("station", displayIndex).
				Str("name", p.registry.Name(displayIndex)).
				Msg("Device reports station off, clearing session")
			datadog.Count("poller.reconciled", 1)
		}
	}

	datadog.Gauge("stations.active", float64(len(p.tracker.ActiveStations())))
}
