//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/db/migrations"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/seed"
)

func startPostgres(t *testing.T) *UserRepo {
	t.Helper()
	ctx := context.Background()

	if _, err := testcontainers.NewDockerClientWithOpts(ctx); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	container, err := tcpostgres.Run(ctx, "postgres:17",
		tcpostgres.WithDatabase("identity"),
		tcpostgres.WithUsername("identity"),
		tcpostgres.WithPassword("identity"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := config.NewDB(dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db))
	// idempotent
	require.NoError(t, migrations.Up(ctx, db))

	return NewUserRepo(db)
}

func TestUserRepo_Integration(t *testing.T) {
	repo := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, seed.Run(ctx, repo, hasher, domain.DefaultRoleCatalog(), zerolog.Nop()))
	// reseeding skips existing principals
	require.NoError(t, seed.Run(ctx, repo, hasher, domain.DefaultRoleCatalog(), zerolog.Nop()))

	t.Run("seeded principal round trip", func(t *testing.T) {
		u, err := repo.GetByUserName(ctx, "MANAGER@sample.com")
		require.NoError(t, err)
		assert.Equal(t, []string{domain.RoleManager}, u.Roles)
		assert.True(t, u.EmailConfirmed)
		assert.Contains(t, u.Claims, domain.Claim{Type: domain.ClaimSurname, Value: "guada"})
		assert.NoError(t, hasher.Compare(u.PasswordHash, seed.DefaultPassword))

		ok, err := repo.ExistsByEmail(ctx, "Manager@Sample.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("duplicates are rejected case-insensitively", func(t *testing.T) {
		_, err := repo.Create(ctx, domain.User{ID: "dup-1", UserName: "other", Email: "PLAYER@sample.com"})
		assert.True(t, domain.Is(err, "duplicate_email"), "got %v", err)

		_, err = repo.Create(ctx, domain.User{ID: "dup-2", UserName: "Player@Sample.com", Email: "x@sample.com"})
		assert.True(t, domain.Is(err, "username_taken"), "got %v", err)
	})

	t.Run("member lifecycle", func(t *testing.T) {
		created, err := repo.Create(ctx, domain.User{
			ID:        "m-1",
			UserName:  "new@sample.com",
			Email:     "new@sample.com",
			FirstName: "new",
			LastName:  "member",
			CreatedAt: time.Now().UTC(),
			Roles:     []string{domain.RoleUser},
		})
		require.NoError(t, err)

		require.NoError(t, repo.ReplaceRoles(ctx, created.ID, []string{domain.RoleManager, domain.RoleAdmin}))
		end := time.Now().Add(5 * 24 * time.Hour).UTC()
		require.NoError(t, repo.SetLockoutEnd(ctx, created.ID, &end))
		require.NoError(t, repo.UpdateProfile(ctx, domain.User{ID: created.ID, UserName: "renamed@sample.com", Email: "renamed@sample.com", FirstName: "re", LastName: "named"}))
		require.NoError(t, repo.SetEmailConfirmed(ctx, created.ID))
		require.NoError(t, repo.UpdatePasswordHash(ctx, created.ID, "hash"))

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed@sample.com", got.UserName)
		assert.ElementsMatch(t, []string{domain.RoleAdmin, domain.RoleManager}, got.Roles)
		assert.True(t, got.IsLockedOut(time.Now()))
		assert.True(t, got.EmailConfirmed)
		assert.Equal(t, "hash", got.PasswordHash)

		list, err := repo.ListWithRoles(ctx, "admin@sample.com")
		require.NoError(t, err)
		for _, u := range list {
			assert.NotEqual(t, "admin@sample.com", u.UserName)
		}
		assert.Len(t, list, 4)

		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err = repo.GetByID(ctx, created.ID)
		assert.True(t, domain.Is(err, "user_not_found"), "got %v", err)

		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.True(t, domain.Is(err, "user_not_found"), "got %v", err)
		assert.True(t, domain.Is(repo.SetLockoutEnd(ctx, "not-a-uuid", nil), "user_not_found"))
	})
}
