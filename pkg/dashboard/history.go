// Package dashboard renders loop events from the daemon as a terminal UI.
package dashboard

import (
	"fmt"
	"time"

	"github.com/batterytool/batterytool/pkg/types"
)

type sample struct {
	at      time.Time
	reading types.Reading
}

// History keeps the most recent readings and event lines for display.
type History struct {
	size    int
	samples []sample
	lines   []string
}

func NewHistory(size int) *History {
	return &History{size: size}
}

func (h *History) AddReading(at time.Time, r types.Reading) {
	h.samples = append(h.samples, sample{at: at, reading: r})
	if len(h.samples) > h.size {
		h.samples = h.samples[len(h.samples)-h.size:]
	}
}

func (h *History) AddLine(at time.Time, name, data string) {
	h.lines = append(h.lines, fmt.Sprintf("%s %s %s", at.Format("15:04:05"), name, data))
	if len(h.lines) > h.size {
		h.lines = h.lines[len(h.lines)-h.size:]
	}
}

// Series returns charge and health percentages in arrival order, and x
// axis labels keyed by sample index.
func (h *History) Series() (charge, health []float64, labels map[int]string) {
	charge = make([]float64, len(h.samples))
	health = make([]float64, len(h.samples))
	labels = make(map[int]string, len(h.samples))
	for i, s := range h.samples {
		charge[i] = s.reading.Percentage
		health[i] = s.reading.Health
		labels[i] = s.at.Format("15:04")
	}
	return charge, health, labels
}

// Latest returns the newest reading, if any.
func (h *History) Latest() (types.Reading, bool) {
	if len(h.samples) == 0 {
		return types.Reading{}, false
	}
	return h.samples[len(h.samples)-1].reading, true
}

func (h *History) Lines() []string {
	return h.lines
}
