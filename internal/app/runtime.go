package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "RENTALDESK_TEST_MODE"

var (
	testModeMu  sync.RWMutex
	testModeSet bool
	testMode    bool
)

// InTestMode reports whether binaries should skip connecting to Redis,
// Postgres and the backend. RENTALDESK_TEST_MODE is read on first use.
func InTestMode() bool {
	testModeMu.RLock()
	if testModeSet {
		defer testModeMu.RUnlock()
		return testMode
	}
	testModeMu.RUnlock()
	RefreshTestMode()
	return InTestMode()
}

// RefreshTestMode re-reads the environment, for tests that change it.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeMu.Lock()
	testMode, testModeSet = on, true
	testModeMu.Unlock()
}
