package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store/drivers/sqlite"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
)

const (
	adminPassword    = "admin-secret"
	operatorPassword = "operator-secret"
	sessionsPath     = "/redfish/v1/SessionService/Sessions"
)

var testParams = cryptox.Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingSessionObserver struct {
	mu      sync.Mutex
	created int
	deleted map[string]int
}

func (o *recordingSessionObserver) SessionCreated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created++
}

func (o *recordingSessionObserver) SessionsDeleted(reason string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.deleted == nil {
		o.deleted = map[string]int{}
	}
	o.deleted[reason] += n
}

type fixture struct {
	store    *sqlite.Store
	accounts *AccountService
	sessions *SessionService
	clock    *clock
	observer *recordingSessionObserver
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newFixture returns a bootstrapped store holding an Administrator "admin"
// and an Operator "operator".
func newFixture(t *testing.T, settings SessionSettings) *fixture {
	t.Helper()
	ctx := context.Background()

	db := newStore(t)
	hasher := cryptox.NewHasherWithParams("pepper", testParams)

	boot := &BootstrapService{Store: db, Hasher: hasher}
	_, err := boot.Bootstrap(ctx, domain.BootstrapData{
		AdminUsername: "admin",
		AdminPassword: adminPassword,
		AdminRole:     privilege.RoleAdministrator,
		Roles:         privilege.StandardRoles(),
	})
	require.NoError(t, err)

	accounts := &AccountService{Store: db, Hasher: hasher}
	_, err = accounts.CreateAccount(ctx, "operator", operatorPassword, privilege.RoleOperator)
	require.NoError(t, err)

	clk := newClock()
	obs := &recordingSessionObserver{}
	sessions := NewSessionService(db.Sessions(), accounts, settings)
	sessions.Now = clk.Now
	sessions.Observer = obs

	return &fixture{
		store:    db,
		accounts: accounts,
		sessions: sessions,
		clock:    clk,
		observer: obs,
	}
}
