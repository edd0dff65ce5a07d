// Package status assembles read-only station snapshots for presentation
// layers. It joins the registry with the session tracker and never mutates
// either.
package status

import (
	"github.com/oebus/sprinkler-controller/internal/session"
	"github.com/oebus/sprinkler-controller/internal/station"
)

type StationStatus struct {
	DisplayIndex     int    `json:"display_index"`
	Name             string `json:"name"`
	Active           bool   `json:"active"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

type Reporter struct {
	registry *station.Registry
	tracker  *session.Tracker
}

func NewReporter(registry *station.Registry, tracker *session.Tracker) *Reporter {
	return &Reporter{registry: registry, tracker: tracker}
}

// Stations returns one entry per registered station in display index order.
func (r *Reporter) Stations() []StationStatus {
	stations := r.registry.Stations()
	out := make([]StationStatus, 0, len(stations))
	for displayIndex, s := range stations {
		st := StationStatus{
			DisplayIndex: displayIndex,
			Name:         s.Name,
		}
		if remaining, active := r.tracker.Remaining(displayIndex); active {
			st.Active = true
			st.RemainingSeconds = int(remaining.Seconds())
		}
		out = append(out, st)
	}
	return out
}
