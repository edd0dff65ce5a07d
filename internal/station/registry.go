// Package station maps operator-facing display indices onto the device's own
// station indices, hiding stations the operator never named.
package station

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrOutOfRange is returned by Resolve for display indices outside the
// currently loaded registry.
var ErrOutOfRange = errors.New("station display index out of range")

// genericName matches auto-assigned placeholder names like "S1" or "s12".
var genericName = regexp.MustCompile(`^[Ss][0-9]+$`)

// Station is one irrigation zone that passed the name filter. Its display
// index is its position in the registry.
type Station struct {
	Name        string
	DeviceIndex int
}

// NamesLister is the slice of the device client the registry needs.
type NamesLister interface {
	StationNames() []string
}

// Registry holds the display index -> device index mapping. It is rebuilt
// from the device on demand; readers and Reload may run concurrently.
type Registry struct {
	src NamesLister

	mu       sync.RWMutex
	stations []Station
}

// Build queries the device once and constructs the registry. A failed
// discovery call yields an empty registry, not an error: the caller sees
// zero stations and may Reload later.
func Build(src NamesLister) *Registry {
	r := &Registry{src: src}
	r.Reload()
	return r
}

// Reload re-queries station names and swaps in the new mapping. Returns the
// number of stations loaded. Deterministic for a given device response.
func (r *Registry) Reload() int {
	names := r.src.StationNames()
	if names == nil {
		log.Warn().Msg("Station discovery failed, no stations available")
	}

	stations := make([]Station, 0, len(names))
	for deviceIndex, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || genericName.MatchString(name) {
			continue
		}
		stations = append(stations, Station{Name: name, DeviceIndex: deviceIndex})
	}

	r.mu.Lock()
	r.stations = stations
	r.mu.Unlock()

	for display, s := range stations {
		log.Info().
			Int("station", display).
			Int("device_index", s.DeviceIndex).
			Str("name", s.Name).
			Msg("Station loaded")
	}
	return len(stations)
}

// Resolve translates a display index to the device index the OpenSprinkler
// control API expects.
func (r *Registry) Resolve(displayIndex int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if displayIndex < 0 || displayIndex >= len(r.stations) {
		return 0, ErrOutOfRange
	}
	return r.stations[displayIndex].DeviceIndex, nil
}

// Name returns the station name for a display index, or "" if out of range.
func (r *Registry) Name(displayIndex int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if displayIndex < 0 || displayIndex >= len(r.stations) {
		return ""
	}
	return r.stations[displayIndex].Name
}

// Len returns the number of stations in the current registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations)
}

// Stations returns a copy of the current mapping in display index order.
func (r *Registry) Stations() []Station {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out
}
