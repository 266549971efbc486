package http_handlers

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/policy"
)

// PracticeRoute is one authorization demo endpoint. Exactly one of Policy or
// Roles is set; Roles admits any of the listed roles.
type PracticeRoute struct {
	Path   string
	Policy string
	Roles  []string
	Reply  string
}

func PracticeRoutes() []PracticeRoute {
	return []PracticeRoute{
		{Path: "/admin-role", Roles: []string{domain.RoleAdmin}, Reply: "admin-role"},
		{Path: "/manager-role", Roles: []string{domain.RoleManager}, Reply: "manager-role"},
		{Path: "/player-role", Roles: []string{domain.RoleUser}, Reply: "player-role"},
		{Path: "/admin-or-manager-role", Roles: []string{domain.RoleAdmin, domain.RoleManager}, Reply: "admin or manager role"},
		{Path: "/admin-or-player-role", Roles: []string{domain.RoleAdmin, domain.RoleUser}, Reply: "admin or player role"},

		{Path: "/admin-policy", Policy: policy.AdminPolicy, Reply: "admin policy"},
		{Path: "/manager-policy", Policy: policy.ManagerPolicy, Reply: "manager policy"},
		{Path: "/player-policy", Policy: policy.PlayerPolicy, Reply: "player policy"},
		{Path: "/admin-or-manager-policy", Policy: policy.AdminOrManagerPolicy, Reply: "admin or manager policy"},
		{Path: "/admin-and-manager-policy", Policy: policy.AdminAndManagerPolicy, Reply: "admin and manager policy"},
		{Path: "/all-role-policy", Policy: policy.AllRolePolicy, Reply: "all role policy"},

		{Path: "/admin-email-policy", Policy: policy.AdminEmailPolicy, Reply: "admin email policy"},
		{Path: "/guada-surname-policy", Policy: policy.GuadaSurnamePolicy, Reply: "guada surname policy"},
		{Path: "/manager-email-and-guada-policy", Policy: policy.ManagerEmailAndGuadaSurnamePolicy, Reply: "manager email and guada surname policy"},
		{Path: "/vip-policy", Policy: policy.VIPPolicy, Reply: "vip policy"},
	}
}

// PublicReply is served without authentication.
const PublicReply = "public"

// Reply writes a fixed JSON string.
func Reply(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, text)
	}
}
