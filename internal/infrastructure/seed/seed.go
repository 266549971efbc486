// Package seed provisions the role catalog and the default development principals.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// DefaultPassword is shared by every seeded principal.
const DefaultPassword = "123456"

type Hasher interface {
	Hash(password string) (string, error)
}

type Repo interface {
	EnsureRoles(ctx context.Context, names []string) error
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

type principal struct {
	UserName  string
	FirstName string
	LastName  string
	Roles     []string
}

func superAdminRoles() []string {
	return []string{
		domain.RoleAdmin, domain.RoleManager, domain.RoleUser,
		domain.RoleSuperAdmin, domain.RoleSuperUser, domain.RoleSupervisor,
	}
}

func defaultPrincipals() []principal {
	return []principal{
		{UserName: "admin@sample.com", FirstName: "admin", LastName: "lemuel", Roles: superAdminRoles()},
		{UserName: "manager@sample.com", FirstName: "manager", LastName: "guada", Roles: []string{domain.RoleManager}},
		{UserName: "player@sample.com", FirstName: "player", LastName: "jp", Roles: []string{domain.RoleUser}},
		{UserName: "vipplayer@sample.com", FirstName: "vipplayer", LastName: "pia", Roles: []string{domain.RoleSuperUser}},
	}
}

// Run ensures every catalog role exists, then creates the default principals.
// Principals that already exist are skipped, so it is safe to call on every start.
func Run(ctx context.Context, repo Repo, hasher Hasher, roles domain.RoleCatalog, lg zerolog.Logger) error {
	if err := repo.EnsureRoles(ctx, roles.Names()); err != nil {
		return err
	}

	created := 0
	for _, p := range defaultPrincipals() {
		ok, err := ensurePrincipal(ctx, repo, hasher, p, DefaultPassword)
		if err != nil {
			return fmt.Errorf("seed %s: %w", p.UserName, err)
		}
		if !ok {
			lg.Debug().Str("user_name", p.UserName).Msg("seed principal exists")
			continue
		}
		created++
	}

	lg.Info().Int("created", created).Msg("seed complete")
	return nil
}

// EnsureSuperAdmin creates the super-admin principal, with the same roles as
// the development admin, when it does not exist yet. An existing account is left untouched, so the
// password only matters on first start.
func EnsureSuperAdmin(ctx context.Context, repo Repo, hasher Hasher, userName, password string, lg zerolog.Logger) error {
	userName = domain.NormalizeIdentity(userName)
	if userName == "" {
		return domain.ErrMissingField("super_admin_username")
	}
	if password == "" {
		return domain.ErrMissingField("super_admin_password")
	}

	p := principal{UserName: userName, FirstName: "super", LastName: "admin", Roles: superAdminRoles()}
	ok, err := ensurePrincipal(ctx, repo, hasher, p, password)
	if err != nil {
		return fmt.Errorf("super admin: %w", err)
	}
	if ok {
		lg.Info().Str("user_name", userName).Msg("super admin created")
	}
	return nil
}

// ensurePrincipal reports false when the user name or email is already taken.
func ensurePrincipal(ctx context.Context, repo Repo, hasher Hasher, p principal, password string) (bool, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}

	u := domain.User{
		ID:             uuid.NewString(),
		UserName:       p.UserName,
		Email:          p.UserName,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		PasswordHash:   hash,
		EmailConfirmed: true,
		CreatedAt:      time.Now().UTC(),
		Roles:          p.Roles,
		Claims: []domain.Claim{
			{Type: domain.ClaimEmail, Value: p.UserName},
			{Type: domain.ClaimSurname, Value: p.LastName},
		},
	}

	if _, err := repo.Create(ctx, u); err != nil {
		if domain.Is(err, "duplicate_email") || domain.Is(err, "username_taken") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
