package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	http_handlers "github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/handlers"
)

type Middleware = func(http.Handler) http.Handler

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	RefreshUserToken(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
	ConfirmEmail(w http.ResponseWriter, r *http.Request)
	ResendEmailConfirmationLink(w http.ResponseWriter, r *http.Request)
	ForgotUsernameOrPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	GetMembers(w http.ResponseWriter, r *http.Request)
	GetMember(w http.ResponseWriter, r *http.Request)
	GetApplicationRoles(w http.ResponseWriter, r *http.Request)
	AddEditMember(w http.ResponseWriter, r *http.Request)
	LockMember(w http.ResponseWriter, r *http.Request)
	UnlockMember(w http.ResponseWriter, r *http.Request)
	DeleteMember(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	CORSMW      Middleware // outermost, answers preflight before routing
	RequestIDMW Middleware
	MetricsMW   Middleware
	Metrics     http.Handler // served on /metrics when set

	Health  HealthHandler
	Account AccountHandler
	Admin   AdminHandler

	Practice []http_handlers.PracticeRoute

	AuthMW   Middleware
	AdminMW  Middleware
	PolicyMW func(policy string) Middleware
	RolesMW  func(roles ...string) Middleware

	// Optional per-route rate limits; nil means unlimited.
	RLLogin    Middleware
	RLRefresh  Middleware
	RLRegister Middleware
	RLEmail    Middleware
	RLAdmin    Middleware
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Account == nil {
		return nil, fmt.Errorf("nil Account handler")
	}
	if deps.Admin == nil {
		return nil, fmt.Errorf("nil Admin handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}
	if deps.AdminMW == nil {
		return nil, fmt.Errorf("nil Admin middleware")
	}
	if len(deps.Practice) > 0 && (deps.PolicyMW == nil || deps.RolesMW == nil) {
		return nil, fmt.Errorf("practice routes need Policy and Roles middleware")
	}

	r := chi.NewRouter()
	if deps.CORSMW != nil {
		r.Use(deps.CORSMW)
	}
	if deps.RequestIDMW != nil {
		r.Use(deps.RequestIDMW)
	}
	if deps.MetricsMW != nil {
		r.Use(deps.MetricsMW)
	}

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/account", func(r chi.Router) {
		r.With(mws(deps.RLLogin)...).Post("/login", deps.Account.Login)
		r.With(mws(deps.AuthMW, deps.RLRefresh)...).Get("/refresh-user-token", deps.Account.RefreshUserToken)
		r.With(mws(deps.RLRegister)...).Post("/register", deps.Account.Register)
		r.With(mws(deps.RLEmail)...).Put("/confirm-email", deps.Account.ConfirmEmail)
		r.With(mws(deps.RLEmail)...).Post("/resend-email-confirmation-link/{email}", deps.Account.ResendEmailConfirmationLink)
		r.With(mws(deps.RLEmail)...).Post("/forgot-username-or-password/{email}", deps.Account.ForgotUsernameOrPassword)
		r.With(mws(deps.RLEmail)...).Put("/reset-password", deps.Account.ResetPassword)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(deps.AuthMW)
		r.Use(deps.AdminMW)
		if deps.RLAdmin != nil {
			r.Use(deps.RLAdmin)
		}

		r.Get("/get-members", deps.Admin.GetMembers)
		r.Get("/get-member/{id}", deps.Admin.GetMember)
		r.Get("/get-application-roles", deps.Admin.GetApplicationRoles)
		r.Post("/add-edit-member", deps.Admin.AddEditMember)
		r.Put("/lock-member/{id}", deps.Admin.LockMember)
		r.Put("/unlock-member/{id}", deps.Admin.UnlockMember)
		r.Delete("/delete-member/{id}", deps.Admin.DeleteMember)
	})

	r.Route("/practice", func(r chi.Router) {
		r.Get("/public", http_handlers.Reply(http_handlers.PublicReply))

		for _, rt := range deps.Practice {
			gate := deps.RolesMW(rt.Roles...)
			if rt.Policy != "" {
				gate = deps.PolicyMW(rt.Policy)
			}
			r.With(deps.AuthMW, gate).Get(rt.Path, http_handlers.Reply(rt.Reply))
		}
	})

	return r, nil
}

// mws drops unset middleware so optional limits can be passed straight through.
func mws(in ...Middleware) []Middleware {
	out := make([]Middleware, 0, len(in))
	for _, m := range in {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
