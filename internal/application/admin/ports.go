package admin

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

/*
MemberRepo
----------
Persistence port for member administration.
ListWithRoles must load every member's roles in a bounded number of queries.
*/
type MemberRepo interface {
	ListWithRoles(ctx context.Context, excludeUserName string) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateProfile writes user name, email and names.
	UpdateProfile(ctx context.Context, u domain.User) error
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
	ReplaceRoles(ctx context.Context, userID string, roles []string) error
	SetLockoutEnd(ctx context.Context, userID string, end *time.Time) error
	Delete(ctx context.Context, userID string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}
