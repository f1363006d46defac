package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/idx"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapMissingAdminRole    = errors.New("bootstrap must define the admin role")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin account")
)

// generatedPasswordLength applies when no admin password is configured.
const generatedPasswordLength = 24

type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	accountsEmpty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !accountsEmpty, nil
}

// Bootstrap seeds the roles and the admin account in one transaction. When
// req.AdminPassword is empty a password is generated and returned so the
// caller can show it once; otherwise the returned password is empty.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (string, error) {
	l := slogx.FromContext(ctx)

	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to check bootstrap state: %w", err)
	}
	if bootstrapped {
		return "", ErrBootstrapAlready
	}

	password := req.AdminPassword
	generated := ""
	if password == "" {
		generated, err = cryptox.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return "", err
		}
		password = generated
	}

	passHash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return "", ErrBootstrapFailedToCreateAdmin
	}

	adminID := idx.New().String()
	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Roles first, accounts reference them.
		roleIDs := make(map[string]string, len(req.Roles))
		for _, def := range req.Roles {
			roleID := idx.New().String()
			err := tx.Roles().CreateRole(ctx, domain.Role{
				ID:         roleID,
				Name:       def.Name,
				Privileges: def.Privileges,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			if err != nil {
				l.Error("failed to create role",
					slog.String("role_name", def.Name),
					slog.Any("error", err),
				)
				return fmt.Errorf("failed to create role %s: %w", def.Name, err)
			}
			roleIDs[def.Name] = roleID
		}

		adminRoleID, ok := roleIDs[req.AdminRole]
		if !ok {
			return fmt.Errorf("%w: %s", ErrBootstrapMissingAdminRole, req.AdminRole)
		}

		err := tx.Accounts().CreateAccount(ctx, domain.Account{
			ID:           adminID,
			Username:     req.AdminUsername,
			PasswordHash: passHash,
			RoleID:       adminRoleID,
			Enabled:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			l.Error("failed to create admin account",
				slog.String("account_id", adminID),
				slog.Any("error", err),
			)
			return ErrBootstrapFailedToCreateAdmin
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	l.Info("successfully bootstrapped system",
		slog.String("admin_account_id", adminID),
		slog.String("admin_username", req.AdminUsername),
		slog.Int("roles", len(req.Roles)),
	)
	return generated, nil
}
