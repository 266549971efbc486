package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

const (
	pgUniqueViolation           = "23505"
	pgForeignKeyViolation       = "23503"
	pgInvalidTextRepresentation = "22P02" // id is not a valid uuid
)

// UserRepo stores principals, their roles and claims in Postgres.
// It serves the account flows, member administration and seeding.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isMalformedID reports a value Postgres could not cast to the id column type.
// No row can match such an id, so callers treat it as not found.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

// mapWriteErr converts constraint violations into domain errors.
func mapWriteErr(err error, u domain.User) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "user_name") {
				return domain.ErrUserNameTaken(u.UserName)
			}
			return domain.ErrDuplicateEmail(u.Email)
		case pgForeignKeyViolation:
			return domain.ErrInvalidField("roles", "unknown role")
		case pgInvalidTextRepresentation:
			return domain.ErrUserNotFound()
		}
	}
	return domain.ErrDBUnavailable(err)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1 LIMIT 1;`

	var ur userRow
	if err := ur.scan(r.db.QueryRowContext(ctx, q, arg)); err != nil {
		if isNoRows(err) || isMalformedID(err) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}

	u := ur.toDomain()
	if err := r.loadRolesAndClaims(ctx, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *UserRepo) loadRolesAndClaims(ctx context.Context, u *domain.User) error {
	const qRoles = `SELECT role_name FROM user_roles WHERE user_id = $1 ORDER BY role_name;`
	rows, err := r.db.QueryContext(ctx, qRoles, u.ID)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return domain.ErrDBUnavailable(err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return domain.ErrDBUnavailable(err)
	}
	_ = rows.Close()

	const qClaims = `SELECT claim_type, claim_value FROM user_claims WHERE user_id = $1 ORDER BY id;`
	crows, err := r.db.QueryContext(ctx, qClaims, u.ID)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	defer crows.Close()

	var claims []domain.Claim
	for crows.Next() {
		var c domain.Claim
		if err := crows.Scan(&c.Type, &c.Value); err != nil {
			return domain.ErrDBUnavailable(err)
		}
		claims = append(claims, c)
	}
	if err := crows.Err(); err != nil {
		return domain.ErrDBUnavailable(err)
	}

	u.Roles = roles
	u.Claims = claims
	return nil
}

func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isMalformedID(err) {
			return domain.ErrUserNotFound()
		}
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

// ---------- lookups ----------

func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (domain.User, error) {
	userName = domain.NormalizeIdentity(userName)
	if userName == "" {
		return domain.User{}, domain.ErrMissingField("user_name")
	}
	return r.getOne(ctx, "user_name", userName)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeIdentity(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	return r.getOne(ctx, "email", email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("user_id")
	}
	return r.getOne(ctx, "id", id)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = domain.NormalizeIdentity(email)
	if email == "" {
		return false, nil
	}
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&exists); err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return exists, nil
}

// ListWithRoles returns every principal except excludeUserName with roles
// aggregated in the same query.
func (r *UserRepo) ListWithRoles(ctx context.Context, excludeUserName string) ([]domain.User, error) {
	const q = `
SELECT u.id, u.user_name, u.email, u.first_name, u.last_name, u.password_hash,
       u.email_confirmed, u.lockout_end, u.created_at,
       COALESCE(string_agg(ur.role_name, ',' ORDER BY ur.role_name), '') AS roles
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
WHERE u.user_name <> $1
GROUP BY u.id
ORDER BY u.created_at, u.user_name;
`
	rows, err := r.db.QueryContext(ctx, q, domain.NormalizeIdentity(excludeUserName))
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var ur userRow
		var roles string
		if err := ur.scan(rows, &roles); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		u := ur.toDomain()
		if roles != "" {
			u.Roles = strings.Split(roles, ",")
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

// ---------- writes ----------

// Create inserts the principal with its roles and claims in one transaction.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.UserName = domain.NormalizeIdentity(u.UserName)
	u.Email = domain.NormalizeIdentity(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.UserName == "" {
		return domain.User{}, domain.ErrMissingField("user_name")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Roles = domain.UniqueRoles(u.Roles)
	u.Claims = domain.UniqueClaims(u.Claims)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	const qUser = `
INSERT INTO users (id, user_name, email, first_name, last_name, password_hash, email_confirmed, lockout_end, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);
`
	if _, err := tx.ExecContext(ctx, qUser,
		u.ID, u.UserName, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.EmailConfirmed, u.LockoutEnd, u.CreatedAt,
	); err != nil {
		return domain.User{}, mapWriteErr(err, u)
	}

	if err := insertRoles(ctx, tx, u.ID, u.Roles); err != nil {
		return domain.User{}, mapWriteErr(err, u)
	}

	const qClaim = `INSERT INTO user_claims (user_id, claim_type, claim_value) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING;`
	for _, c := range u.Claims {
		if _, err := tx.ExecContext(ctx, qClaim, u.ID, c.Type, c.Value); err != nil {
			return domain.User{}, mapWriteErr(err, u)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return u, nil
}

func insertRoles(ctx context.Context, tx *sql.Tx, userID string, roles []string) error {
	const q = `INSERT INTO user_roles (user_id, role_name) VALUES ($1,$2) ON CONFLICT DO NOTHING;`
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, q, userID, role); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	if newHash == "" {
		return domain.ErrMissingField("password_hash")
	}
	return r.execOne(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1;`, userID, newHash)
}

func (r *UserRepo) SetEmailConfirmed(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	return r.execOne(ctx, `UPDATE users SET email_confirmed = TRUE WHERE id = $1;`, userID)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	u.UserName = domain.NormalizeIdentity(u.UserName)
	u.Email = domain.NormalizeIdentity(u.Email)
	if strings.TrimSpace(u.ID) == "" {
		return domain.ErrMissingField("user_id")
	}
	if u.UserName == "" || u.Email == "" {
		return domain.ErrMissingField("user_name")
	}

	const q = `UPDATE users SET user_name = $2, email = $3, first_name = $4, last_name = $5 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, u.ID, u.UserName, u.Email, u.FirstName, u.LastName)
	if err != nil {
		return mapWriteErr(err, u)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

// SetLockoutEnd sets or clears (end == nil) the lockout window.
func (r *UserRepo) SetLockoutEnd(ctx context.Context, userID string, end *time.Time) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	return r.execOne(ctx, `UPDATE users SET lockout_end = $2 WHERE id = $1;`, userID, end)
}

// ReplaceRoles swaps the principal's role set atomically.
func (r *UserRepo) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE;`, userID).Scan(&one); err != nil {
		if isNoRows(err) || isMalformedID(err) {
			return domain.ErrUserNotFound()
		}
		return domain.ErrDBUnavailable(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1;`, userID); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if err := insertRoles(ctx, tx, userID, domain.UniqueRoles(roles)); err != nil {
		return mapWriteErr(err, domain.User{ID: userID})
	}

	if err := tx.Commit(); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// Delete removes the principal; roles and claims cascade.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1;`, userID)
}

// EnsureRoles inserts any missing role names.
func (r *UserRepo) EnsureRoles(ctx context.Context, names []string) error {
	const q = `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING;`
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, q, n); err != nil {
			return domain.ErrDBUnavailable(err)
		}
	}
	return nil
}

// Ping reports database reachability for readiness checks.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
