package telemetry

import (
	"errors"
	"testing"

	"github.com/distatus/battery"

	"github.com/batterytool/batterytool/pkg/types"
)

const appleSiliconIOReg = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<array>
	<dict>
		<key>AppleRawCurrentCapacity</key>
		<integer>4213</integer>
		<key>AppleRawMaxCapacity</key>
		<integer>5102</integer>
		<key>CurrentCapacity</key>
		<integer>83</integer>
		<key>MaxCapacity</key>
		<integer>100</integer>
		<key>DesignCapacity</key>
		<integer>6075</integer>
		<key>CycleCount</key>
		<integer>312</integer>
		<key>IsCharging</key>
		<true/>
		<key>ExternalConnected</key>
		<true/>
		<key>DeviceName</key>
		<string>bq40z651</string>
		<key>BatteryData</key>
		<dict>
			<key>StateOfCharge</key>
			<integer>83</integer>
		</dict>
	</dict>
</array>
</plist>
`

const intelIOReg = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<array>
	<dict>
		<key>CurrentCapacity</key>
		<integer>3000</integer>
		<key>MaxCapacity</key>
		<integer>4000</integer>
		<key>DesignCapacity</key>
		<integer>5000</integer>
		<key>CycleCount</key>
		<integer>900</integer>
		<key>IsCharging</key>
		<false/>
		<key>ExternalConnected</key>
		<false/>
	</dict>
</array>
</plist>
`

const emptyIOReg = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<array/>
</plist>
`

func TestIORegSource_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		runErr  error
		want    *types.BatteryState
		wantErr error
	}{
		{
			name: "apple silicon uses raw capacities",
			out:  appleSiliconIOReg,
			want: &types.BatteryState{
				CurrentCapacity: 4213,
				MaxCapacity:     5102,
				DesignCapacity:  6075,
				CycleCount:      312,
				IsCharging:      true,
				IsPluggedIn:     true,
			},
		},
		{
			name: "intel falls back to capacity keys",
			out:  intelIOReg,
			want: &types.BatteryState{
				CurrentCapacity: 3000,
				MaxCapacity:     4000,
				DesignCapacity:  5000,
				CycleCount:      900,
			},
		},
		{
			name:    "no battery",
			out:     emptyIOReg,
			wantErr: ErrNoBattery,
		},
		{
			name:    "ioreg fails",
			runErr:  errors.New("exit status 1"),
			wantErr: errors.New("any"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &IORegSource{run: func() ([]byte, error) {
				return []byte(tt.out), tt.runErr
			}}

			got, err := s.Fetch()
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("Fetch() expected error, got %+v", got)
				}
				if errors.Is(tt.wantErr, ErrNoBattery) && !errors.Is(err, ErrNoBattery) {
					t.Fatalf("Fetch() error = %v, want ErrNoBattery", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() returned error: %v", err)
			}
			if *got != *tt.want {
				t.Errorf("Fetch() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenericSource_Fetch(t *testing.T) {
	s := &GenericSource{getAll: func() ([]*battery.Battery, error) {
		return []*battery.Battery{
			{State: battery.Charging, Current: 40000.4, Full: 52000, Design: 58000},
		}, nil
	}}

	got, err := s.Fetch()
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}
	want := types.BatteryState{
		CurrentCapacity: 40000,
		MaxCapacity:     52000,
		DesignCapacity:  58000,
		IsCharging:      true,
		IsPluggedIn:     true,
	}
	if *got != want {
		t.Errorf("Fetch() = %+v, want %+v", got, want)
	}

	s.getAll = func() ([]*battery.Battery, error) { return nil, nil }
	if _, err := s.Fetch(); !errors.Is(err, ErrNoBattery) {
		t.Errorf("Fetch() error = %v, want ErrNoBattery", err)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", SourceIOReg, SourceGeneric} {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q) returned error: %v", name, err)
		}
	}
	if _, err := New("pmset"); err == nil {
		t.Errorf("New(pmset) should fail")
	}
}
