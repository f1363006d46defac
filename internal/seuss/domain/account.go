package domain

import "time"

type Account struct {
	ID           string
	Username     string
	PasswordHash string // argon2id PHC string
	RoleID       string // Foreign key to roles table
	Enabled      bool
	Locked       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanLogin reports whether the account may authenticate at all.
func (a Account) CanLogin() bool {
	return a.Enabled && !a.Locked
}
