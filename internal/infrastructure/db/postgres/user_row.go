package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

const userColumns = `id, user_name, email, first_name, last_name, password_hash, email_confirmed, lockout_end, created_at`

type userRow struct {
	ID             string
	UserName       string
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   string
	EmailConfirmed bool
	LockoutEnd     sql.NullTime
	CreatedAt      time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func (ur *userRow) scan(s scanner, extra ...any) error {
	dest := []any{
		&ur.ID,
		&ur.UserName,
		&ur.Email,
		&ur.FirstName,
		&ur.LastName,
		&ur.PasswordHash,
		&ur.EmailConfirmed,
		&ur.LockoutEnd,
		&ur.CreatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

func (ur userRow) toDomain() domain.User {
	u := domain.User{
		ID:             ur.ID,
		UserName:       ur.UserName,
		Email:          ur.Email,
		FirstName:      ur.FirstName,
		LastName:       ur.LastName,
		PasswordHash:   ur.PasswordHash,
		EmailConfirmed: ur.EmailConfirmed,
		CreatedAt:      ur.CreatedAt,
	}
	if ur.LockoutEnd.Valid {
		t := ur.LockoutEnd.Time
		u.LockoutEnd = &t
	}
	return u
}
