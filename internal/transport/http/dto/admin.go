package dto

import (
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/admin"
)

// MemberAddEditRequest creates a member when ID is empty and edits it otherwise.
// Roles is a comma-separated list, e.g. "Admin, Manager".
type MemberAddEditRequest struct {
	ID        string `json:"id"`
	UserName  string `json:"userName" validate:"required" label:"UserName"`
	FirstName string `json:"firstName" validate:"required" label:"FirstName"`
	LastName  string `json:"lastName" validate:"required" label:"LastName"`
	Password  string `json:"password"`
	Roles     string `json:"roles" validate:"required" label:"Roles"`
}

func (r *MemberAddEditRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.UserName = strings.TrimSpace(r.UserName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	return validateStruct(r)
}

func (r MemberAddEditRequest) ToInput() admin.MemberInput {
	return admin.MemberInput{
		ID:        r.ID,
		UserName:  r.UserName,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
		Roles:     r.Roles,
	}
}

type MemberViewResponse struct {
	ID          string    `json:"id"`
	UserName    string    `json:"userName"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateCreated time.Time `json:"dateCreated"`
	IsLocked    bool      `json:"isLocked"`
	Roles       []string  `json:"roles"`
}

func NewMemberViews(in []admin.MemberView) []MemberViewResponse {
	out := make([]MemberViewResponse, 0, len(in))
	for _, m := range in {
		roles := m.Roles
		if roles == nil {
			roles = []string{}
		}
		out = append(out, MemberViewResponse{
			ID:          m.ID,
			UserName:    m.UserName,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			DateCreated: m.DateCreated,
			IsLocked:    m.IsLocked,
			Roles:       roles,
		})
	}
	return out
}

// MemberAddEditResponse is the edit form returned by get-member; Password is always empty.
type MemberAddEditResponse struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	Roles     string `json:"roles"`
}

func NewMemberAddEdit(f admin.MemberForm) MemberAddEditResponse {
	return MemberAddEditResponse{
		ID:        f.ID,
		UserName:  f.UserName,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Roles:     f.Roles,
	}
}
