package http_handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/admin"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/response"
)

type AdminService interface {
	GetMembers(ctx context.Context) ([]admin.MemberView, error)
	GetMember(ctx context.Context, id string) (admin.MemberForm, error)
	ApplicationRoles() []string
	AddEditMember(ctx context.Context, actorID string, in admin.MemberInput) (admin.MessageResult, error)
	LockMember(ctx context.Context, actorID, id string) error
	UnlockMember(ctx context.Context, actorID, id string) error
	DeleteMember(ctx context.Context, actorID, id string) error
}

// AdminHandler serves member management. Routes are expected behind Auth and
// the AdminMembersPolicy.
type AdminHandler struct {
	svc AdminService
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.GetMembers(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMemberViews(members))
}

func (h *AdminHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMemberAddEdit(form))
}

func (h *AdminHandler) GetApplicationRoles(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.svc.ApplicationRoles())
}

func (h *AdminHandler) AddEditMember(w http.ResponseWriter, r *http.Request) {
	var req dto.MemberAddEditRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.AddEditMember(r.Context(), actorID(r), req.ToInput())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMessageResponse(res.Title, res.Message))
}

func (h *AdminHandler) LockMember(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.LockMember)
}

func (h *AdminHandler) UnlockMember(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.UnlockMember)
}

func (h *AdminHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.DeleteMember)
}

func (h *AdminHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, id string) error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.WriteError(w, r, domain.ErrMissingField("id"))
		return
	}
	if err := op(r.Context(), actorID(r), id); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

func actorID(r *http.Request) string {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}
