//go:build linux

package buttons

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSource delivers falling-edge events from real button lines onto a
// single ordered channel. Lines are requested as inputs with pull-ups, and
// kernel debounce is requested as a first filter; the Debouncer enforces the
// window again in case the platform ignores it.
type GPIOSource struct {
	chip   *gpiocdev.Chip
	lines  []*gpiocdev.Line
	events chan Edge
}

func NewGPIOSource(chipName string, pins []int, window time.Duration) (*GPIOSource, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	s := &GPIOSource{chip: chip, events: make(chan Edge, 16)}
	for _, pin := range pins {
		line, err := chip.RequestLine(pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(window),
			gpiocdev.WithEventHandler(s.handleEvent))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("request button line %d: %w", pin, err)
		}
		s.lines = append(s.lines, line)
	}
	return s, nil
}

// handleEvent runs on the gpiocdev event goroutine; it must not block, so a
// full channel drops the edge. Edges lost here would have been suppressed or
// coalesced by the debounce window anyway.
func (s *GPIOSource) handleEvent(evt gpiocdev.LineEvent) {
	select {
	case s.events <- Edge{Line: evt.Offset, At: time.Now()}:
	default:
	}
}

func (s *GPIOSource) Events() <-chan Edge { return s.events }

func (s *GPIOSource) Close() error {
	var errs []error
	for _, line := range s.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
