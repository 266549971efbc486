// Package admin implements member administration: listing, create/edit with
// role replacement, lockout and deletion. The configured super-admin account
// is hidden from listings and cannot be changed through this service.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

const (
	minMemberPasswordLen = 6
	defaultLockDuration  = 5 * 24 * time.Hour
)

type Service struct {
	members MemberRepo
	hasher  PasswordHasher
	roles   domain.RoleCatalog

	superAdminUserName string
	lockDuration       time.Duration

	now   func() time.Time
	audit func(action string, fields map[string]string)
}

type Config struct {
	SuperAdminUserName string
	LockDuration       time.Duration
}

func NewService(members MemberRepo, hasher PasswordHasher, roles domain.RoleCatalog, cfg Config) *Service {
	lock := cfg.LockDuration
	if lock <= 0 {
		lock = defaultLockDuration
	}
	return &Service{
		members:            members,
		hasher:             hasher,
		roles:              roles,
		superAdminUserName: domain.NormalizeIdentity(cfg.SuperAdminUserName),
		lockDuration:       lock,
		now:                time.Now,
		audit:              func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// MemberView is one row of the member listing.
type MemberView struct {
	ID          string
	UserName    string
	FirstName   string
	LastName    string
	DateCreated time.Time
	IsLocked    bool
	Roles       []string
}

// MemberForm is the editable projection of one member; Roles is comma separated.
type MemberForm struct {
	ID        string
	UserName  string
	FirstName string
	LastName  string
	Roles     string
}

type MemberInput struct {
	ID        string // empty creates a new member
	UserName  string
	FirstName string
	LastName  string
	Password  string
	Roles     string // comma separated
}

type MessageResult struct {
	Title   string
	Message string
}

func (s *Service) isSuperAdmin(u domain.User) bool {
	return s.superAdminUserName != "" && u.UserName == s.superAdminUserName
}

// GetMembers lists every member except the super-admin, with roles.
func (s *Service) GetMembers(ctx context.Context) ([]MemberView, error) {
	users, err := s.members.ListWithRoles(ctx, s.superAdminUserName)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]MemberView, 0, len(users))
	for _, u := range users {
		if s.isSuperAdmin(u) {
			continue
		}
		out = append(out, MemberView{
			ID:          u.ID,
			UserName:    u.UserName,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			DateCreated: u.CreatedAt,
			IsLocked:    u.IsLockedOut(now),
			Roles:       domain.UniqueRoles(u.Roles),
		})
	}
	return out, nil
}

// GetMember returns the edit form for one member. The super-admin is reported as not found.
func (s *Service) GetMember(ctx context.Context, id string) (MemberForm, error) {
	u, err := s.lookup(ctx, id)
	if err != nil {
		return MemberForm{}, err
	}
	if s.isSuperAdmin(u) {
		return MemberForm{}, domain.ErrUserNotFound()
	}
	return MemberForm{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     strings.Join(domain.UniqueRoles(u.Roles), ","),
	}, nil
}

// ApplicationRoles lists every role a member can be assigned.
func (s *Service) ApplicationRoles() []string {
	return s.roles.Names()
}

func (s *Service) lookup(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	return s.members.GetByID(ctx, id)
}

// AddEditMember creates a member when in.ID is empty, otherwise updates it.
// Roles are replaced with the known subset of in.Roles.
func (s *Service) AddEditMember(ctx context.Context, actorID string, in MemberInput) (MessageResult, error) {
	userName := domain.NormalizeIdentity(in.UserName)
	if userName == "" {
		return MessageResult{}, domain.ErrMissingField("userName")
	}
	if strings.TrimSpace(in.ID) == "" {
		return s.addMember(ctx, actorID, userName, in)
	}
	return s.editMember(ctx, actorID, userName, in)
}

func (s *Service) addMember(ctx context.Context, actorID, userName string, in MemberInput) (MessageResult, error) {
	const action = "admin.add_member"

	if len(in.Password) < minMemberPasswordLen {
		return MessageResult{}, domain.ErrValidation([]string{
			fmt.Sprintf("Password must not be null or empty and at least %d characters.", minMemberPasswordLen),
		})
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return MessageResult{}, domain.ErrHashFailed(err)
	}

	u := domain.User{
		ID:             uuid.NewString(),
		UserName:       userName,
		Email:          userName,
		FirstName:      domain.NormalizeIdentity(in.FirstName),
		LastName:       domain.NormalizeIdentity(in.LastName),
		PasswordHash:   hash,
		EmailConfirmed: true,
		CreatedAt:      s.now().UTC(),
		Roles:          s.roles.Filter(in.Roles),
	}

	created, err := s.members.Create(ctx, u)
	if err != nil {
		s.auditResult(action, actorID, "", err)
		return MessageResult{}, err
	}
	s.auditResult(action, actorID, created.ID, nil)

	return MessageResult{
		Title:   "Member Created",
		Message: fmt.Sprintf("%s has been created.", created.UserName),
	}, nil
}

func (s *Service) editMember(ctx context.Context, actorID, userName string, in MemberInput) (MessageResult, error) {
	const action = "admin.edit_member"

	if in.Password != "" && len(in.Password) < minMemberPasswordLen {
		return MessageResult{}, domain.ErrValidation([]string{
			fmt.Sprintf("Password must be at least %d characters.", minMemberPasswordLen),
		})
	}

	u, err := s.guardedLookup(ctx, in.ID)
	if err != nil {
		s.auditResult(action, actorID, in.ID, err)
		return MessageResult{}, err
	}

	u.UserName = userName
	u.Email = userName
	u.FirstName = domain.NormalizeIdentity(in.FirstName)
	u.LastName = domain.NormalizeIdentity(in.LastName)

	if err := s.members.UpdateProfile(ctx, u); err != nil {
		s.auditResult(action, actorID, u.ID, err)
		return MessageResult{}, err
	}

	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return MessageResult{}, domain.ErrHashFailed(err)
		}
		if err := s.members.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			s.auditResult(action, actorID, u.ID, err)
			return MessageResult{}, err
		}
	}

	if err := s.members.ReplaceRoles(ctx, u.ID, s.roles.Filter(in.Roles)); err != nil {
		s.auditResult(action, actorID, u.ID, err)
		return MessageResult{}, err
	}
	s.auditResult(action, actorID, u.ID, nil)

	return MessageResult{
		Title:   "Member Updated",
		Message: fmt.Sprintf("%s has been updated.", u.UserName),
	}, nil
}

// LockMember sets the lockout end to now plus the configured lock duration.
func (s *Service) LockMember(ctx context.Context, actorID, id string) error {
	const action = "admin.lock_member"

	u, err := s.guardedLookup(ctx, id)
	if err != nil {
		s.auditResult(action, actorID, id, err)
		return err
	}
	end := s.now().Add(s.lockDuration).UTC()
	if err := s.members.SetLockoutEnd(ctx, u.ID, &end); err != nil {
		s.auditResult(action, actorID, u.ID, err)
		return err
	}
	s.auditResult(action, actorID, u.ID, nil)
	return nil
}

// UnlockMember clears the lockout end.
func (s *Service) UnlockMember(ctx context.Context, actorID, id string) error {
	const action = "admin.unlock_member"

	u, err := s.guardedLookup(ctx, id)
	if err != nil {
		s.auditResult(action, actorID, id, err)
		return err
	}
	if err := s.members.SetLockoutEnd(ctx, u.ID, nil); err != nil {
		s.auditResult(action, actorID, u.ID, err)
		return err
	}
	s.auditResult(action, actorID, u.ID, nil)
	return nil
}

func (s *Service) DeleteMember(ctx context.Context, actorID, id string) error {
	const action = "admin.delete_member"

	u, err := s.guardedLookup(ctx, id)
	if err != nil {
		s.auditResult(action, actorID, id, err)
		return err
	}
	if err := s.members.Delete(ctx, u.ID); err != nil {
		s.auditResult(action, actorID, u.ID, err)
		return err
	}
	s.auditResult(action, actorID, u.ID, nil)
	return nil
}

// guardedLookup resolves a member that may be changed. Unknown ids are not
// found and the super-admin is always refused.
func (s *Service) guardedLookup(ctx context.Context, id string) (domain.User, error) {
	u, err := s.lookup(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if s.isSuperAdmin(u) {
		return domain.User{}, domain.ErrSuperAdminChangeNotAllowed()
	}
	return u, nil
}

func (s *Service) auditResult(action, actorID, targetID string, err error) {
	fields := map[string]string{
		"actor_id":  actorID,
		"target_id": targetID,
		"result":    "success",
	}
	if err != nil {
		fields["result"] = "error"
		fields["error_code"] = domain.Code(err)
	}
	s.audit(action, fields)
}
