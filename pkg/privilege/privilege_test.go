package privilege_test

import (
	"testing"

	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"github.com/stretchr/testify/require"
)

func TestOperationFor(t *testing.T) {
	op, ok := privilege.OperationFor("delete")
	require.True(t, ok)
	require.Equal(t, privilege.OpDelete, op)

	_, ok = privilege.OperationFor("OPTIONS")
	require.False(t, ok)
}

func TestSetSatisfiedBy(t *testing.T) {
	require.True(t, privilege.Set{privilege.Login}.SatisfiedBy([]privilege.Privilege{privilege.Login}))
	require.False(t, privilege.Set{privilege.Login, privilege.ConfigureUsers}.SatisfiedBy([]privilege.Privilege{privilege.Login}))
	require.True(t, privilege.Set{privilege.NoAuth}.SatisfiedBy(nil))
}

func TestDecide(t *testing.T) {
	table := privilege.DefaultTable()
	session, ok := table.Lookup(privilege.EntitySession)
	require.True(t, ok)

	admin := privilege.Union(privilege.StandardRoles()[0])
	readOnly := privilege.Union(privilege.StandardRoles()[2])

	t.Run("manager is not self scoped", func(t *testing.T) {
		d := session.Decide(privilege.OpDelete, admin)
		require.True(t, d.Allowed)
		require.False(t, d.SelfOnly)
	})

	t.Run("read only is self scoped", func(t *testing.T) {
		d := session.Decide(privilege.OpDelete, readOnly)
		require.True(t, d.Allowed)
		require.True(t, d.SelfOnly)
	})

	t.Run("missing privilege denies", func(t *testing.T) {
		d := session.Decide(privilege.OpPatch, readOnly)
		require.False(t, d.Allowed)
	})

	t.Run("anonymous", func(t *testing.T) {
		require.False(t, session.Decide(privilege.OpGet, nil).Allowed)
		require.True(t, session.Decide(privilege.OpGet, readOnly).Allowed)

		root, _ := table.Lookup(privilege.EntityServiceRoot)
		require.True(t, root.Anonymous(privilege.OpGet))
		require.True(t, root.Decide(privilege.OpGet, nil).Allowed)
	})

	t.Run("unmapped operation denies", func(t *testing.T) {
		root, _ := table.Lookup(privilege.EntityServiceRoot)
		require.False(t, root.Decide(privilege.OpDelete, admin).Allowed)
		require.False(t, root.Anonymous(privilege.OpDelete))
	})
}

func TestSessionCollectionPostIsAnonymous(t *testing.T) {
	m, ok := privilege.DefaultTable().Lookup(privilege.EntitySessionCollection)
	require.True(t, ok)
	require.True(t, m.Anonymous(privilege.OpPost))
	require.False(t, m.Anonymous(privilege.OpGet))
}

func TestUnion(t *testing.T) {
	got := privilege.Union(
		privilege.Role{Name: "a", Privileges: []privilege.Privilege{privilege.Login, privilege.ConfigureSelf}},
		privilege.Role{Name: "b", Privileges: []privilege.Privilege{privilege.ConfigureSelf, privilege.ConfigureUsers}},
	)
	require.Equal(t, []privilege.Privilege{privilege.Login, privilege.ConfigureSelf, privilege.ConfigureUsers}, got)
}
