package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	hasher := cryptox.NewHasherWithParams("pepper", testParams)
	boot := &BootstrapService{Store: db, Hasher: hasher}

	done, err := boot.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	req := domain.BootstrapData{
		AdminUsername: "root",
		AdminRole:     privilege.RoleAdministrator,
		Roles:         privilege.StandardRoles(),
	}
	generated, err := boot.Bootstrap(ctx, req)
	require.NoError(t, err)
	require.Len(t, generated, generatedPasswordLength)

	accounts := &AccountService{Store: db, Hasher: hasher}
	user, err := accounts.Authenticate(ctx, "root", generated)
	require.NoError(t, err)
	require.ElementsMatch(t, privilege.StandardRoles()[0].Privileges, user.Privileges)

	roles, err := db.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	_, err = boot.Bootstrap(ctx, req)
	require.ErrorIs(t, err, ErrBootstrapAlready)
}

func TestBootstrapConfiguredPassword(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	hasher := cryptox.NewHasherWithParams("pepper", testParams)
	boot := &BootstrapService{Store: db, Hasher: hasher}

	generated, err := boot.Bootstrap(ctx, domain.BootstrapData{
		AdminUsername: "admin",
		AdminPassword: "configured",
		AdminRole:     privilege.RoleAdministrator,
		Roles:         privilege.StandardRoles(),
	})
	require.NoError(t, err)
	require.Empty(t, generated)

	accounts := &AccountService{Store: db, Hasher: hasher}
	_, err = accounts.Authenticate(ctx, "admin", "configured")
	require.NoError(t, err)
}

func TestBootstrapRollsBackWithoutAdminRole(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	boot := &BootstrapService{Store: db, Hasher: cryptox.NewHasherWithParams("pepper", testParams)}

	_, err := boot.Bootstrap(ctx, domain.BootstrapData{
		AdminUsername: "admin",
		AdminPassword: "pw",
		AdminRole:     "Superuser",
		Roles:         privilege.StandardRoles(),
	})
	require.ErrorIs(t, err, ErrBootstrapMissingAdminRole)

	empty, err := db.Roles().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}
