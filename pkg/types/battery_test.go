package types

import (
	"errors"
	"testing"
)

func TestBatteryState_Metrics(t *testing.T) {
	tests := []struct {
		name           string
		state          BatteryState
		wantPercentage float64
		wantHealth     float64
	}{
		{
			name:           "new battery",
			state:          BatteryState{CurrentCapacity: 96, MaxCapacity: 100, DesignCapacity: 100},
			wantPercentage: 96,
			wantHealth:     100,
		},
		{
			name:           "worn battery full",
			state:          BatteryState{CurrentCapacity: 79, MaxCapacity: 79, DesignCapacity: 100},
			wantPercentage: 100,
			wantHealth:     79,
		},
		{
			name:           "empty",
			state:          BatteryState{CurrentCapacity: 0, MaxCapacity: 4000, DesignCapacity: 5000},
			wantPercentage: 0,
			wantHealth:     80,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.state.Validate(); err != nil {
				t.Fatalf("Validate() returned error: %v", err)
			}
			if got := tt.state.Percentage(); got != tt.wantPercentage {
				t.Errorf("Percentage() = %v, want %v", got, tt.wantPercentage)
			}
			if got := tt.state.Health(); got != tt.wantHealth {
				t.Errorf("Health() = %v, want %v", got, tt.wantHealth)
			}
		})
	}
}

func TestBatteryState_Validate(t *testing.T) {
	invalid := []BatteryState{
		{CurrentCapacity: 50, MaxCapacity: 0, DesignCapacity: 100},
		{CurrentCapacity: 50, MaxCapacity: 100, DesignCapacity: 0},
		{CurrentCapacity: -1, MaxCapacity: 100, DesignCapacity: 100},
	}
	for _, s := range invalid {
		if err := s.Validate(); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidCapacity", s, err)
		}
	}
}
