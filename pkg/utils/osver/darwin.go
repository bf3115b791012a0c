//go:build darwin

package osver

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	cached    Version
	cachedErr error
	initOnce  sync.Once
)

// Get returns the running macOS version from sysctl kern.osproductversion.
// The result is cached.
func Get() (Version, error) {
	initOnce.Do(func() {
		s, err := unix.Sysctl("kern.osproductversion")
		if err != nil {
			cachedErr = pkgerrors.Wrap(err, "failed to read kern.osproductversion")
			return
		}
		cached, cachedErr = Parse(s)
	})
	return cached, cachedErr
}
