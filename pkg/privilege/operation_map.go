package privilege

import "slices"

// OperationMap lists, per operation, alternative requirement sets. Any one
// satisfied set permits the operation. An operation absent from the map is
// denied to everyone.
type OperationMap map[Operation][]Set

// Decision is the outcome of checking granted privileges against an
// OperationMap.
type Decision struct {
	Allowed bool

	// SelfOnly is set when the only satisfied requirement set relies on
	// ConfigureSelf. The handler must confirm the target resource belongs to
	// the caller.
	SelfOnly bool
}

// Anonymous reports whether op is permitted without any credentials.
func (m OperationMap) Anonymous(op Operation) bool {
	for _, set := range m[op] {
		if slices.Contains(set, NoAuth) {
			return true
		}
	}
	return false
}

// Decide checks granted against the requirement sets for op. Sets that do not
// need ConfigureSelf take precedence so a fully privileged caller is never
// reported as self-scoped.
func (m OperationMap) Decide(op Operation, granted []Privilege) Decision {
	var self bool
	for _, set := range m[op] {
		if !set.SatisfiedBy(granted) {
			continue
		}
		if slices.Contains(set, ConfigureSelf) {
			self = true
			continue
		}
		return Decision{Allowed: true}
	}
	if self {
		return Decision{Allowed: true, SelfOnly: true}
	}
	return Decision{}
}

// Table maps Redfish entity names to their operation maps.
type Table map[string]OperationMap

// Lookup returns the operation map for entity.
func (t Table) Lookup(entity string) (OperationMap, bool) {
	m, ok := t[entity]
	return m, ok
}

// Entity names covered by DefaultTable.
const (
	EntityServiceRoot       = "ServiceRoot"
	EntitySessionService    = "SessionService"
	EntitySessionCollection = "SessionCollection"
	EntitySession           = "Session"
)

// DefaultTable returns the privilege mapping for the resources this service
// exposes, following the DMTF Redfish_1.5.0_PrivilegeRegistry entries.
func DefaultTable() Table {
	login := []Set{{Login}}
	manager := []Set{{ConfigureManager}}

	return Table{
		EntityServiceRoot: {
			OpGet:  {{NoAuth}},
			OpHead: {{NoAuth}},
		},
		EntitySessionService: {
			OpGet:    login,
			OpHead:   login,
			OpPatch:  manager,
			OpPut:    manager,
			OpDelete: manager,
			OpPost:   manager,
		},
		EntitySessionCollection: {
			OpGet:    login,
			OpHead:   login,
			OpPost:   {{NoAuth}},
			OpPatch:  manager,
			OpPut:    manager,
			OpDelete: manager,
		},
		EntitySession: {
			OpGet:    login,
			OpHead:   login,
			OpPatch:  manager,
			OpPut:    manager,
			OpPost:   manager,
			OpDelete: {{ConfigureManager}, {ConfigureSelf}},
		},
	}
}
