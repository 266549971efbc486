package domain

import (
	"sort"
	"strings"
	"time"
)

// Claim types carried on users and session tokens.
const (
	ClaimNameIdentifier = "nameid"
	ClaimEmail          = "email"
	ClaimGivenName      = "given_name"
	ClaimSurname        = "family_name"
	ClaimRole           = "role"
)

type Claim struct {
	Type  string
	Value string
}

type User struct {
	ID             string
	UserName       string
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   string
	EmailConfirmed bool
	LockoutEnd     *time.Time
	CreatedAt      time.Time

	Roles  []string
	Claims []Claim
}

// IsLockedOut reports whether the lockout window is still open at now.
func (u User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeIdentity lowercases and trims email, username and names.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UniqueRoles returns roles without blanks or duplicates, sorted.
func UniqueRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// UniqueClaims drops duplicate (type, value) pairs, keeping first-seen order.
func UniqueClaims(claims []Claim) []Claim {
	seen := make(map[Claim]struct{}, len(claims))
	out := make([]Claim, 0, len(claims))
	for _, c := range claims {
		if c.Type == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Principal is the identity asserted by a verified session token.
type Principal struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Roles     []string
	Claims    []Claim
	ExpiresAt time.Time
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ClaimValues returns every value of the given claim type.
func (p Principal) ClaimValues(typ string) []string {
	var out []string
	for _, c := range p.Claims {
		if c.Type == typ {
			out = append(out, c.Value)
		}
	}
	return out
}

func (p Principal) HasClaim(typ, value string) bool {
	for _, c := range p.Claims {
		if c.Type == typ && c.Value == value {
			return true
		}
	}
	return false
}
