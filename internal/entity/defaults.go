package entity

import (
	"os"
	"os/user"
	"sync"
	"time"
)

var (
	defaultsMu sync.RWMutex
	clock      = time.Now
	createdBy  string
)

func now() time.Time {
	defaultsMu.RLock()
	c := clock
	defaultsMu.RUnlock()
	return c().UTC()
}

// UseClock replaces the clock stamping created_at and returns a func
// restoring the previous one.
func UseClock(c func() time.Time) (restore func()) {
	defaultsMu.Lock()
	prev := clock
	clock = c
	defaultsMu.Unlock()
	return func() {
		defaultsMu.Lock()
		clock = prev
		defaultsMu.Unlock()
	}
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// UseCreatedBy sets the attribution stamped into created_by and returns a
// func restoring the previous value. An empty name restores the default
// lookup.
func UseCreatedBy(name string) (restore func()) {
	defaultsMu.Lock()
	prev := createdBy
	createdBy = name
	defaultsMu.Unlock()
	return func() {
		defaultsMu.Lock()
		createdBy = prev
		defaultsMu.Unlock()
	}
}

// CreatedBy returns the attribution for new entities: the configured
// name, else $KILN_USER, else the OS user, else "unknown".
func CreatedBy() string {
	defaultsMu.RLock()
	name := createdBy
	defaultsMu.RUnlock()
	if name != "" {
		return name
	}
	if env := os.Getenv("KILN_USER"); env != "" {
		return env
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
