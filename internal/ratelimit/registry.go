package ratelimit

import "sync"

// Default upstream ceilings for the Groww market-data API.
const (
	growwMaxPerSecond = 10
	growwMaxPerMinute = 300
)

var (
	registryMu sync.RWMutex
	registry   = map[string]*Limiter{
		"groww": New(Config{MaxPerSecond: growwMaxPerSecond, MaxPerMinute: growwMaxPerMinute}),
	}
)

// Get returns the named limiter. Unknown names return ok=false rather than
// creating a default: a misspelled key should fail loudly at wiring time.
func Get(name string) (*Limiter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	l, ok := registry[name]
	return l, ok
}

// Register installs a limiter for a new upstream, replacing any existing
// limiter under the same name.
func Register(name string, cfg Config) *Limiter {
	l := New(cfg)
	registryMu.Lock()
	registry[name] = l
	registryMu.Unlock()
	return l
}
