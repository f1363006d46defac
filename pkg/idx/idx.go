// Package idx issues lexicographically sortable identifiers for sessions and
// requests. Identifiers come from a single monotonic ULID source so that two
// calls in the same process never return the same value.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Zero is the unset ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// Source hands out monotonic IDs. It is safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	last    ulid.ULID
}

// NewSource returns a Source backed by crypto/rand.
func NewSource() *Source {
	return &Source{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns the next ID at the current time.
func (s *Source) Next() ID {
	return s.NextAt(time.Now().UTC())
}

// NextAt returns the next ID stamped with t. IDs from one Source are strictly
// increasing even when the clock stalls or steps backwards.
func (s *Source) NextAt(t time.Time) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := ulid.Timestamp(t)
	if ms < s.last.Time() {
		ms = s.last.Time()
	}

	u, err := ulid.New(ms, s.entropy)
	if err != nil {
		// Entropy overflow inside one millisecond; move to the next one.
		u = ulid.MustNew(ms+1, s.entropy)
	}
	s.last = u
	return ID(u.String())
}

var (
	defaultOnce   sync.Once
	defaultSource *Source
)

func global() *Source {
	defaultOnce.Do(func() { defaultSource = NewSource() })
	return defaultSource
}

// New returns the next ID from the process-wide source.
func New() ID { return global().Next() }

// NewAt returns the next ID from the process-wide source stamped with t.
func NewAt(t time.Time) ID { return global().NextAt(t) }

// Parse validates s as a ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time extracts the embedded timestamp, or the zero time for invalid IDs.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// Compare orders IDs lexically, which for valid IDs is issue order.
func Compare(a, b ID) int {
	return strings.Compare(a.String(), b.String())
}
