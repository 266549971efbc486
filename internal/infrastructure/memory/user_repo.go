package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// UserRepo is the in-process principal store used when STORE=memory.
type UserRepo struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byEmail    map[string]string // email -> userID
	byUserName map[string]string // user name -> userID
	roles      map[string]struct{}
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:       make(map[string]domain.User),
		byEmail:    make(map[string]string),
		byUserName: make(map[string]string),
		roles:      make(map[string]struct{}),
	}
}

// clone copies slices so callers cannot mutate stored state.
func clone(u domain.User) domain.User {
	u.Roles = append([]string(nil), u.Roles...)
	u.Claims = append([]domain.Claim(nil), u.Claims...)
	if u.LockoutEnd != nil {
		t := *u.LockoutEnd
		u.LockoutEnd = &t
	}
	return u
}

func (r *UserRepo) getBy(index map[string]string, key string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[domain.NormalizeIdentity(key)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (domain.User, error) {
	return r.getBy(r.byUserName, userName)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getBy(r.byEmail, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(u), nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[domain.NormalizeIdentity(email)]
	return ok, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.UserName = domain.NormalizeIdentity(u.UserName)
	u.Email = domain.NormalizeIdentity(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.UserName == "" {
		return domain.User{}, domain.ErrMissingField("user_name")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUserName[u.UserName]; exists {
		return domain.User{}, domain.ErrUserNameTaken(u.UserName)
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrDuplicateEmail(u.Email)
	}
	if err := r.checkRolesLocked(u.Roles); err != nil {
		return domain.User{}, err
	}

	u.Roles = domain.UniqueRoles(u.Roles)
	u.Claims = domain.UniqueClaims(u.Claims)
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byUserName[u.UserName] = u.ID
	return clone(u), nil
}

func (r *UserRepo) checkRolesLocked(roles []string) error {
	for _, role := range roles {
		if _, ok := r.roles[role]; !ok {
			return domain.ErrInvalidField("roles", "unknown role")
		}
	}
	return nil
}

func (r *UserRepo) update(id string, fn func(u *domain.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	if err := fn(&u); err != nil {
		return err
	}
	r.byID[id] = u
	return nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.update(userID, func(u *domain.User) error {
		u.PasswordHash = newHash
		return nil
	})
}

func (r *UserRepo) SetEmailConfirmed(ctx context.Context, userID string) error {
	return r.update(userID, func(u *domain.User) error {
		u.EmailConfirmed = true
		return nil
	})
}

func (r *UserRepo) SetLockoutEnd(ctx context.Context, userID string, end *time.Time) error {
	return r.update(userID, func(u *domain.User) error {
		if end == nil {
			u.LockoutEnd = nil
			return nil
		}
		t := *end
		u.LockoutEnd = &t
		return nil
	})
}

// UpdateProfile rewrites user name, email and names, keeping both indexes unique.
func (r *UserRepo) UpdateProfile(ctx context.Context, in domain.User) error {
	userName := domain.NormalizeIdentity(in.UserName)
	email := domain.NormalizeIdentity(in.Email)

	// update holds the write lock for the index checks below.
	return r.update(in.ID, func(u *domain.User) error {
		if id, ok := r.byUserName[userName]; ok && id != u.ID {
			return domain.ErrUserNameTaken(userName)
		}
		if id, ok := r.byEmail[email]; ok && id != u.ID {
			return domain.ErrDuplicateEmail(email)
		}
		delete(r.byUserName, u.UserName)
		delete(r.byEmail, u.Email)
		u.UserName, u.Email = userName, email
		u.FirstName, u.LastName = in.FirstName, in.LastName
		r.byUserName[userName] = u.ID
		r.byEmail[email] = u.ID
		return nil
	})
}

func (r *UserRepo) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	return r.update(userID, func(u *domain.User) error {
		if err := r.checkRolesLocked(roles); err != nil {
			return err
		}
		u.Roles = domain.UniqueRoles(roles)
		return nil
	})
}

func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	delete(r.byID, userID)
	delete(r.byEmail, u.Email)
	delete(r.byUserName, u.UserName)
	return nil
}

func (r *UserRepo) ListWithRoles(ctx context.Context, excludeUserName string) ([]domain.User, error) {
	exclude := domain.NormalizeIdentity(excludeUserName)

	r.mu.RLock()
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		if u.UserName == exclude {
			continue
		}
		out = append(out, clone(u))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UserName < out[j].UserName
	})
	return out, nil
}

func (r *UserRepo) EnsureRoles(ctx context.Context, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			r.roles[n] = struct{}{}
		}
	}
	return nil
}

func (r *UserRepo) Ping(ctx context.Context) error { return nil }
