// Package clock supplies time and time-ordered identifiers to the rest of edren.
package clock

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock provides the current time and session identifiers derived from it.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewID returns a ULID whose timestamp is Now.
	NewID() string
}

// RealClock reads the system time and draws ULID entropy from crypto/rand.
type RealClock struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewRealClock creates a RealClock.
func NewRealClock() *RealClock {
	return &RealClock{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// NewID returns a new monotonic ULID.
func (c *RealClock) NewID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entropy == nil {
		c.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}

// FakeClock is a Clock frozen at a settable time, for tests.
// IDs are deterministic: zero entropy plus a counter.
type FakeClock struct {
	current time.Time
	seq     uint64
}

// NewFakeClock creates a FakeClock at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the fixed time.
func (c *FakeClock) Now() time.Time {
	return c.current
}

// NewID returns a ULID at the fixed time whose entropy is a counter.
func (c *FakeClock) NewID() string {
	c.seq++
	var entropy [10]byte
	for i := 0; i < 8; i++ {
		entropy[9-i] = byte(c.seq >> (8 * i))
	}
	var id ulid.ULID
	_ = id.SetTime(ulid.Timestamp(c.current))
	_ = id.SetEntropy(entropy[:])
	return id.String()
}

// Set updates the fixed time.
func (c *FakeClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the fixed time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
