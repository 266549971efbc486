package policy

import (
	"sort"
	"strings"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

const (
	AdminPolicy                       = "AdminPolicy"
	ManagerPolicy                     = "ManagerPolicy"
	PlayerPolicy                      = "PlayerPolicy"
	AdminOrManagerPolicy              = "AdminOrManagerPolicy"
	AdminAndManagerPolicy             = "AdminAndManagerPolicy"
	AllRolePolicy                     = "AllRolePolicy"
	AdminEmailPolicy                  = "AdminEmailPolicy"
	GuadaSurnamePolicy                = "GuadaSurnamePolicy"
	ManagerEmailAndGuadaSurnamePolicy = "ManagerEmailAndGuadaSurnamePolicy"
	VIPPolicy                         = "VIPPolicy"
	AdminMembersPolicy                = "AdminMembersPolicy"
)

// Catalog is an immutable name -> policy lookup built once at startup.
type Catalog struct {
	byName map[string]Policy
}

func NewCatalog(policies ...Policy) Catalog {
	m := make(map[string]Policy, len(policies))
	for _, p := range policies {
		m[p.Name] = p
	}
	return Catalog{byName: m}
}

func (c Catalog) Lookup(name string) (Policy, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Names lists registered policy names, sorted.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c.byName))
	for n := range c.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Authorize looks up name and evaluates it. Unknown names are denied.
func (c Catalog) Authorize(name string, p domain.Principal) error {
	pol, ok := c.Lookup(name)
	if !ok {
		return domain.ErrPolicyDenied(name)
	}
	return Evaluate(pol, p)
}

// VIPAssertion holds for principals in role User whose email claim contains "vip".
func VIPAssertion(p domain.Principal) bool {
	if !p.HasRole(domain.RoleUser) {
		return false
	}
	for _, v := range p.ClaimValues(domain.ClaimEmail) {
		if strings.Contains(v, "vip") {
			return true
		}
	}
	return false
}

// DefaultCatalog registers the service's policies. superAdminEmail is the
// email bound to AdminEmailPolicy.
func DefaultCatalog(superAdminEmail string) Catalog {
	return NewCatalog(
		New(AdminPolicy, RequireRole(domain.RoleAdmin)),
		New(ManagerPolicy, RequireRole(domain.RoleManager)),
		New(PlayerPolicy, RequireRole(domain.RoleUser)),
		New(AdminOrManagerPolicy, RequireAnyRole(domain.RoleAdmin, domain.RoleManager)),
		New(AdminAndManagerPolicy, RequireAllRoles(domain.RoleAdmin, domain.RoleManager)),
		New(AllRolePolicy, RequireAnyRole(domain.RoleAdmin, domain.RoleManager, domain.RoleUser)),
		New(AdminEmailPolicy, RequireClaim(domain.ClaimEmail, superAdminEmail)),
		New(GuadaSurnamePolicy, RequireClaim(domain.ClaimSurname, "guada")),
		New(ManagerEmailAndGuadaSurnamePolicy,
			RequireClaim(domain.ClaimSurname, "guada"),
			RequireClaim(domain.ClaimEmail, "manager@sample.com"),
		),
		New(VIPPolicy, RequireAssertion("role User and email contains vip", VIPAssertion)),
		New(AdminMembersPolicy, RequireRole(domain.RoleAdmin)),
	)
}
