package privilege

// Role is a named bundle of assigned privileges.
type Role struct {
	Name       string
	Privileges []Privilege
}

// Standard Redfish role names.
const (
	RoleAdministrator = "Administrator"
	RoleOperator      = "Operator"
	RoleReadOnly      = "ReadOnly"
)

// StandardRoles returns the Redfish predefined roles with their assigned
// privileges.
func StandardRoles() []Role {
	return []Role{
		{
			Name:       RoleAdministrator,
			Privileges: []Privilege{Login, ConfigureManager, ConfigureUsers, ConfigureComponents, ConfigureSelf},
		},
		{
			Name:       RoleOperator,
			Privileges: []Privilege{Login, ConfigureComponents, ConfigureSelf},
		},
		{
			Name:       RoleReadOnly,
			Privileges: []Privilege{Login, ConfigureSelf},
		},
	}
}

// Union merges the privileges of roles without duplicates, keeping first-seen
// order.
func Union(roles ...Role) []Privilege {
	seen := make(map[Privilege]struct{})
	var out []Privilege
	for _, r := range roles {
		for _, p := range r.Privileges {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
