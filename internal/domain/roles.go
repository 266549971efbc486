package domain

import "strings"

const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
	RoleManager    = "Manager"
	RoleSupervisor = "Supervisor"
	RoleSuperUser  = "SuperUser"
	RoleUser       = "User"

	// Module roles
	RoleSales             = "Sales"
	RoleProcurement       = "Procurement"
	RoleInventory         = "Inventory"
	RoleHRIS              = "HRIS"
	RoleManufacturing     = "Manufacturing"
	RoleConstruction      = "Construction"
	RoleProjectManagement = "ProjectManagement"
	RoleLogistics         = "Logistics"
)

// RoleCatalog is the fixed set of role names known to the service.
// Build it once at startup; it is read-only afterwards.
type RoleCatalog struct {
	names []string
	index map[string]struct{}
}

func NewRoleCatalog(names ...string) RoleCatalog {
	c := RoleCatalog{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := c.index[n]; ok {
			continue
		}
		c.index[n] = struct{}{}
		c.names = append(c.names, n)
	}
	return c
}

// DefaultRoleCatalog lists the core roles followed by the module roles, in seed order.
func DefaultRoleCatalog() RoleCatalog {
	return NewRoleCatalog(
		RoleAdmin, RoleManager, RoleUser, RoleSuperAdmin, RoleSupervisor, RoleSuperUser,
		RoleSales, RoleProcurement, RoleInventory, RoleHRIS,
		RoleManufacturing, RoleConstruction, RoleProjectManagement, RoleLogistics,
	)
}

func (c RoleCatalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns a copy so callers cannot mutate the catalog.
func (c RoleCatalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Filter parses a comma-separated role list and keeps only known roles.
func (c RoleCatalog) Filter(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		if c.Has(name) {
			out = append(out, name)
		}
	}
	return UniqueRoles(out)
}
