// Package policy evaluates named authorization policies against a verified principal.
//
// A Policy is a conjunction of Requirements. Each Requirement is a tagged
// variant read by a single evaluator, so catalogs can be listed and tested
// as data. Evaluation fails closed: an empty policy, an unknown kind or any
// unmet requirement yields a Forbidden domain error.
package policy

import (
	"fmt"
	"strings"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

type Kind string

const (
	KindRoleAny     Kind = "role_any"
	KindRoleAll     Kind = "role_all"
	KindClaimEquals Kind = "claim_equals"
	KindAssertion   Kind = "assertion"
)

// AssertFunc is a custom predicate over the principal's roles and claims.
type AssertFunc func(p domain.Principal) bool

type Requirement struct {
	Kind Kind

	Roles []string

	ClaimType  string
	ClaimValue string

	// Description names the assertion for logs and introspection.
	Description string
	Assert      AssertFunc
}

type Policy struct {
	Name         string
	Requirements []Requirement
}

func RequireRole(role string) Requirement {
	return Requirement{Kind: KindRoleAny, Roles: []string{role}}
}

func RequireAnyRole(roles ...string) Requirement {
	return Requirement{Kind: KindRoleAny, Roles: roles}
}

func RequireAllRoles(roles ...string) Requirement {
	return Requirement{Kind: KindRoleAll, Roles: roles}
}

func RequireClaim(typ, value string) Requirement {
	return Requirement{Kind: KindClaimEquals, ClaimType: typ, ClaimValue: value}
}

func RequireAssertion(description string, fn AssertFunc) Requirement {
	return Requirement{Kind: KindAssertion, Description: description, Assert: fn}
}

// New builds a policy from its requirements.
func New(name string, reqs ...Requirement) Policy {
	return Policy{Name: name, Requirements: reqs}
}

// Evaluate returns nil when p satisfies every requirement of pol.
func Evaluate(pol Policy, p domain.Principal) error {
	if len(pol.Requirements) == 0 {
		return domain.ErrPolicyDenied(pol.Name)
	}
	for _, req := range pol.Requirements {
		if !satisfied(req, p) {
			return domain.ErrPolicyDenied(pol.Name)
		}
	}
	return nil
}

func satisfied(req Requirement, p domain.Principal) bool {
	switch req.Kind {
	case KindRoleAny:
		for _, r := range req.Roles {
			if p.HasRole(r) {
				return true
			}
		}
		return false

	case KindRoleAll:
		if len(req.Roles) == 0 {
			return false
		}
		for _, r := range req.Roles {
			if !p.HasRole(r) {
				return false
			}
		}
		return true

	case KindClaimEquals:
		if req.ClaimType == "" {
			return false
		}
		return p.HasClaim(req.ClaimType, req.ClaimValue)

	case KindAssertion:
		if req.Assert == nil {
			return false
		}
		return req.Assert(p)

	default:
		return false
	}
}

// String renders a requirement for logs, e.g. `role_all(Admin,Manager)`.
func (r Requirement) String() string {
	switch r.Kind {
	case KindRoleAny, KindRoleAll:
		return fmt.Sprintf("%s(%s)", r.Kind, strings.Join(r.Roles, ","))
	case KindClaimEquals:
		return fmt.Sprintf("%s(%s=%s)", r.Kind, r.ClaimType, r.ClaimValue)
	case KindAssertion:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Description)
	default:
		return string(r.Kind)
	}
}
