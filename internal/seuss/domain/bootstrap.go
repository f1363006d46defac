package domain

import "github.com/aussiebroadwan/seuss/pkg/privilege"

type BootstrapData struct {
	AdminUsername string
	AdminPassword string
	AdminRole     string
	Roles         []privilege.Role
}
