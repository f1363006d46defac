// Package privilege models Redfish privileges, operation maps and the
// standard roles. It performs no I/O.
package privilege

import (
	"net/http"
	"slices"
	"strings"
)

// Privilege is a Redfish assigned privilege name.
type Privilege string

const (
	Login               Privilege = "Login"
	ConfigureManager    Privilege = "ConfigureManager"
	ConfigureUsers      Privilege = "ConfigureUsers"
	ConfigureComponents Privilege = "ConfigureComponents"
	ConfigureSelf       Privilege = "ConfigureSelf"

	// NoAuth in a requirement set permits callers without credentials.
	NoAuth Privilege = "NoAuth"
)

// Operation is an HTTP method as named by the Redfish privilege registry.
type Operation string

const (
	OpGet    Operation = "GET"
	OpHead   Operation = "HEAD"
	OpPatch  Operation = "PATCH"
	OpPost   Operation = "POST"
	OpPut    Operation = "PUT"
	OpDelete Operation = "DELETE"
)

// OperationFor maps an HTTP method to its Operation. Methods outside the
// registry (OPTIONS, TRACE, ...) report false.
func OperationFor(method string) (Operation, bool) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return OpGet, true
	case http.MethodHead:
		return OpHead, true
	case http.MethodPatch:
		return OpPatch, true
	case http.MethodPost:
		return OpPost, true
	case http.MethodPut:
		return OpPut, true
	case http.MethodDelete:
		return OpDelete, true
	default:
		return "", false
	}
}

// Set is a conjunction of privileges: all of them are required.
type Set []Privilege

// SatisfiedBy reports whether granted holds every privilege in s. A set
// containing NoAuth is always satisfied.
func (s Set) SatisfiedBy(granted []Privilege) bool {
	if slices.Contains(s, NoAuth) {
		return true
	}
	for _, p := range s {
		if !slices.Contains(granted, p) {
			return false
		}
	}
	return true
}

// Has reports whether granted contains p.
func Has(granted []Privilege, p Privilege) bool {
	return slices.Contains(granted, p)
}
