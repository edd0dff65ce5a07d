// Package buttons turns raw GPIO edge notifications into debounced station
// toggles. Edges arrive on a single ordered channel; the debouncer is the
// only writer of per-line suppress state, and each accepted press dispatches
// its toggle on its own goroutine so a slow device call never blocks other
// lines.
package buttons

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oebus/sprinkler-controller/internal/controller"
	"github.com/oebus/sprinkler-controller/internal/datadog"
)

// Edge is one raw falling-edge notification from a physical line.
type Edge struct {
	Line int
	At   time.Time
}

// Toggler is the slice of the coordinator the debouncer needs.
type Toggler interface {
	Toggle(displayIndex int, duration time.Duration) controller.Result
}

type Debouncer struct {
	lines           map[int]int // gpio line -> display index
	window          time.Duration
	defaultDuration time.Duration
	toggler         Toggler

	mu            sync.Mutex
	suppressUntil map[int]time.Time
}

func NewDebouncer(lines map[int]int, window, defaultDuration time.Duration, toggler Toggler) *Debouncer {
	return &Debouncer{
		lines:           lines,
		window:          window,
		defaultDuration: defaultDuration,
		toggler:         toggler,
		suppressUntil:   make(map[int]time.Time),
	}
}

// Run consumes edges until ctx is done.
func (d *Debouncer) Run(ctx context.Context, edges <-chan Edge) {
	log.Info().
		Int("lines", len(d.lines)).
		Dur("window", d.window).
		Dur("default_duration", d.defaultDuration).
		Msg("Button handler running")

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-edges:
			if displayIndex, ok := d.accept(e); ok {
				go d.toggler.Toggle(displayIndex, d.defaultDuration)
			}
		}
	}
}

// accept applies the per-line suppress window and resolves the line to its
// configured station. At most one press per line per window passes through.
func (d *Debouncer) accept(e Edge) (int, bool) {
	displayIndex, configured := d.lines[e.Line]
	if !configured {
		log.Error().Int("gpio", e.Line).Msg("Button press on unconfigured line")
		datadog.Count("buttons.unconfigured_line", 1)
		return 0, false
	}

	d.mu.Lock()
	until, suppressed := d.suppressUntil[e.Line]
	if suppressed && e.At.Before(until) {
		d.mu.Unlock()
		datadog.Count("buttons.bounce_dropped", 1)
		return 0, false
	}
	d.suppressUntil[e.Line] = e.At.Add(d.window)
	d.mu.Unlock()

	log.Info().Int("gpio", e.Line).Int("station", displayIndex).Msg("Button pressed")
	datadog.Count("buttons.pressed", 1)
	return displayIndex, true
}
