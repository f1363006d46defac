package domain

import "time"

// Session is a persisted session grant. The bearer token itself is never
// stored, only its fingerprint.
type Session struct {
	ID          string
	TokenHash   string
	AccountID   string
	Username    string
	BasePath    string // Collection path the session is addressed under
	Origin      string // Origin header at creation, empty when absent
	ClientIP    string
	Context     string
	SessionType string
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

// IdleSince reports whether the session was last used before cutoff.
func (s Session) IdleSince(cutoff time.Time) bool {
	return s.LastUsedAt.Before(cutoff)
}
