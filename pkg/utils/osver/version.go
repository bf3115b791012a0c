// Package osver reads and compares macOS product versions.
package osver

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Tahoe is the first release whose SMC exposes the CHTE charging key.
var Tahoe = Version{Major: 26}

// Version is a macOS product version.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse accepts "major", "major.minor" or "major.minor.patch".
func Parse(version string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version format: %s", version)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version component %q in %s", p, version)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than
// other.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, other.Patch)
}

func (v Version) AtLeast(other Version) bool {
	return v.Compare(other) >= 0
}
