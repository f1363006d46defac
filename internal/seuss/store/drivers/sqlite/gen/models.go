package gen

// Timestamps are unix milliseconds.

type Role struct {
	ID         string
	Name       string
	Privileges string
	CreatedAt  int64
	UpdatedAt  int64
}

type Account struct {
	ID           string
	Username     string
	PasswordHash string
	RoleID       string
	Enabled      bool
	Locked       bool
	CreatedAt    int64
	UpdatedAt    int64
}

type Session struct {
	ID          string
	TokenHash   string
	AccountID   string
	Username    string
	BasePath    string
	Origin      string
	ClientIp    string
	Context     string
	SessionType string
	CreatedAt   int64
	LastUsedAt  int64
}
