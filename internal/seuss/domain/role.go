package domain

import (
	"time"

	"github.com/aussiebroadwan/seuss/pkg/privilege"
)

type Role struct {
	ID         string
	Name       string
	Privileges []privilege.Privilege // Stored space-delimited
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
