package auth

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

/*
UserRepo
--------
Persistence port for principals.
Lookups by user name and email are case-insensitive; implementations
normalize the input the same way they normalize stored values.
*/
type UserRepo interface {
	GetByUserName(ctx context.Context, userName string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create persists the user together with its roles and claims.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
	SetEmailConfirmed(ctx context.Context, userID string) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
SessionTokenIssuer
------------------
Mints the signed bearer token returned by login and refresh.
*/
type SessionTokenIssuer interface {
	CreateSessionToken(u domain.User) (string, error)
}

/*
PurposeTokenStore
-----------------
Opaque single-use tokens bound to one user and one purpose.
Consume must fail for a token saved under another purpose.
RevokeAll drops every outstanding token of one purpose issued to userID.
*/
type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

type PurposeTokenStore interface {
	Save(ctx context.Context, purpose TokenPurpose, token string, userID string, ttl time.Duration) error
	Consume(ctx context.Context, purpose TokenPurpose, token string) (userID string, err error)
	RevokeAll(ctx context.Context, purpose TokenPurpose, userID string) error
}

/*
Mailer
------
Delivers a rendered email. SMTP, RabbitMQ and a logging fake implement it.
*/
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
