// Package powermgmt holds IOKit power management assertions.
package powermgmt

/*
#cgo LDFLAGS:  -framework CoreFoundation -framework IOKit

#include <stdlib.h>
#include <CoreFoundation/CoreFoundation.h>
#include <IOKit/pwr_mgt/IOPMLib.h>

const CFStringRef AssertionTypePreventSystemSleep = kIOPMAssertionTypePreventSystemSleep;
const IOPMAssertionID NullAssertionID = kIOPMNullAssertionID;
*/
import "C"

import (
	"sync"
	"unsafe"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SleepAssertion keeps the system from sleeping while held. It only has an
// effect on AC power, which is when forced discharge matters.
type SleepAssertion struct {
	name    string
	details string

	mu sync.Mutex
	id C.IOPMAssertionID
}

func NewSleepAssertion(name, details string) *SleepAssertion {
	return &SleepAssertion{
		name:    name,
		details: details,
		id:      C.NullAssertionID,
	}
}

func cfString(s string) C.CFStringRef {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.CFStringCreateWithCString(C.kCFAllocatorDefault, cs, C.kCFStringEncodingUTF8)
}

// Acquire creates the assertion. Calling it while held is a no-op.
func (a *SleepAssertion) Acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id != C.NullAssertionID {
		return nil
	}

	cfName := cfString(a.name)
	cfDetails := cfString(a.details)
	defer C.CFRelease(C.CFTypeRef(cfName))
	defer C.CFRelease(C.CFTypeRef(cfDetails))

	var id C.IOPMAssertionID
	status := C.IOPMAssertionCreateWithDescription(
		C.AssertionTypePreventSystemSleep,
		cfName,
		cfDetails,
		0,
		0,
		0,
		0,
		&id,
	)
	if status != C.kIOReturnSuccess {
		return pkgerrors.Errorf("IOPMAssertionCreateWithDescription failed: 0x%x", uint32(status))
	}

	a.id = id
	logrus.WithField("assertionID", uint32(id)).Debug("system sleep assertion acquired")
	return nil
}

// Release drops the assertion. Calling it while not held is a no-op.
func (a *SleepAssertion) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id == C.NullAssertionID {
		return nil
	}

	status := C.IOPMAssertionRelease(a.id)
	id := a.id
	a.id = C.NullAssertionID
	if status != C.kIOReturnSuccess {
		return pkgerrors.Errorf("IOPMAssertionRelease failed: 0x%x", uint32(status))
	}

	logrus.WithField("assertionID", uint32(id)).Debug("system sleep assertion released")
	return nil
}
