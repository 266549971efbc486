package http_handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/response"
)

type AccountService interface {
	Login(ctx context.Context, userName, password string) (auth.SessionResult, error)
	RefreshSession(ctx context.Context, p domain.Principal) (auth.SessionResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (auth.MessageResult, error)
	ConfirmEmail(ctx context.Context, token, email string) (auth.MessageResult, error)
	ResendConfirmationLink(ctx context.Context, email string) (auth.MessageResult, error)
	ForgotUsernameOrPassword(ctx context.Context, email string) (auth.MessageResult, error)
	ResetPassword(ctx context.Context, in auth.ResetPasswordInput) (auth.MessageResult, error)
}

type AccountHandler struct {
	svc AccountService
}

func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if c := domain.Code(err); c != "" {
		return c
	}
	return "internal_error"
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.UserName, req.Password)
	middleware.LoginAttemptsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewUserResponse(res))
}

func (h *AccountHandler) RefreshUserToken(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrInvalidCredentials())
		return
	}

	res, err := h.svc.RefreshSession(r.Context(), p)
	middleware.TokenRefreshTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewUserResponse(res))
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	middleware.AccountEmailsTotal.WithLabelValues("register", outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("account_registered")
	response.OK(w, dto.NewMessageResponse(res.Title, res.Message))
}

func (h *AccountHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmEmailRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.ConfirmEmail(r.Context(), req.Token, req.Email)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMessageResponse(res.Title, res.Message))
}

func (h *AccountHandler) ResendEmailConfirmationLink(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ResendConfirmationLink(r.Context(), emailParam(r))
	middleware.AccountEmailsTotal.WithLabelValues("resend_confirmation", outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMessageResponse(res.Title, res.Message))
}

func (h *AccountHandler) ForgotUsernameOrPassword(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ForgotUsernameOrPassword(r.Context(), emailParam(r))
	middleware.AccountEmailsTotal.WithLabelValues("forgot_password", outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMessageResponse(res.Title, res.Message))
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.ResetPassword(r.Context(), auth.ResetPasswordInput{
		Token:       req.Token,
		Email:       req.Email,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewMessageResponse(res.Title, res.Message))
}

// emailParam reads {email} from the path; an undecodable value is treated as empty.
func emailParam(r *http.Request) string {
	v, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		return ""
	}
	return v
}
