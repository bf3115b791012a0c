package osver

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "26", want: Version{Major: 26}},
		{in: "15.6", want: Version{Major: 15, Minor: 6}},
		{in: "14.7.1", want: Version{Major: 14, Minor: 7, Patch: 1}},
		{in: "26.0.1\n", want: Version{Major: 26, Patch: 1}},
		{in: "", wantErr: true},
		{in: "15.x", wantErr: true},
		{in: "1.2.3.4", wantErr: true},
		{in: "15.-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{a: Version{15, 6, 0}, b: Tahoe, want: -1},
		{a: Version{26, 0, 0}, b: Tahoe, want: 0},
		{a: Version{26, 1, 0}, b: Tahoe, want: 1},
		{a: Version{14, 7, 2}, b: Version{14, 7, 1}, want: 1},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := tt.a.AtLeast(tt.b); got != (tt.want >= 0) {
			t.Errorf("%s.AtLeast(%s) = %v", tt.a, tt.b, got)
		}
	}
}
