// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"sync"

	"warp/internal/log"
)

// Capability is the typed result of the backend availability check. The
// stretch engine treats Available=false as a hard failure; the transient
// detector switches to its degraded synthetic envelope instead.
type Capability struct {
	Available bool
	Reason    string
}

var (
	capMu  sync.RWMutex
	capNow = detectCapability()
)

// Check reports whether the PCM decode/stretch backend can be used. The
// result is computed once at startup and only changes through Override.
func Check() Capability {
	capMu.RLock()
	defer capMu.RUnlock()
	return capNow
}

// Override replaces the capability result, returning a restore function.
// Used by tests and by deployments that disable decoding on purpose.
func Override(c Capability) (restore func()) {
	capMu.Lock()
	prev := capNow
	capNow = c
	capMu.Unlock()
	if !c.Available {
		log.Warnf("Audio backend forced unavailable: %s", c.Reason)
	}
	return func() {
		capMu.Lock()
		capNow = prev
		capMu.Unlock()
	}
}

// detectCapability resolves the backend state for this process. The codec
// path is pure Go, so the only real-world unavailability is an explicit
// opt-out, which operators set when running analysis-only nodes.
func detectCapability() Capability {
	if v := os.Getenv("WARP_DISABLE_BACKEND"); v != "" && v != "0" && v != "false" {
		return Capability{Available: false, Reason: "disabled by WARP_DISABLE_BACKEND"}
	}
	return Capability{Available: true}
}
