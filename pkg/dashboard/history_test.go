package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/batterytool/batterytool/pkg/types"
)

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	if _, ok := h.Latest(); ok {
		t.Fatal("Latest() ok on empty history")
	}

	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		h.AddReading(at, types.Reading{Percentage: float64(90 + i), Health: 85})
		h.AddLine(at, "battery_reading", "{}")
	}

	charge, health, labels := h.Series()
	if len(charge) != 3 || charge[0] != 92 || charge[2] != 94 {
		t.Errorf("charge = %v, want [92 93 94]", charge)
	}
	if len(health) != 3 || health[1] != 85 {
		t.Errorf("health = %v", health)
	}
	if labels[0] != "10:02" || labels[2] != "10:04" {
		t.Errorf("labels = %v", labels)
	}

	latest, ok := h.Latest()
	if !ok || latest.Percentage != 94 {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}

	lines := h.Lines()
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "10:02:00 battery_reading") {
		t.Errorf("Lines() = %v", lines)
	}
}

func TestStatusLines(t *testing.T) {
	lines := statusLines(types.Reading{Percentage: 96.5, Health: 80, CycleCount: 412}, 79)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"Charge: 96.5%", "Health: 80.0% (target 79%)", "Cycle count: 412", "disabled (discharging)"} {
		if !strings.Contains(joined, want) {
			t.Errorf("statusLines() missing %q in\n%s", want, joined)
		}
	}
}
