package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/admin"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/email"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/memory"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/middleware"
)

const testJWTKey = "0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnv wires the real services over in-memory adapters.
type testEnv struct {
	users   *memory.UserRepo
	mailer  *email.LogSender
	issuer  *security.JWTIssuer
	hasher  *security.BcryptHasher
	account *AccountHandler
	admin   *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := memory.NewUserRepo()
	if err := users.EnsureRoles(context.Background(), domain.DefaultRoleCatalog().Names()); err != nil {
		t.Fatalf("ensure roles: %v", err)
	}

	issuer, err := security.NewJWTIssuer(testJWTKey, "http://localhost:5000", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	mailer := email.NewLogSender(zerolog.Nop())

	authSvc := auth.NewService(users, hasher, issuer, memory.NewPurposeTokenStore(), mailer, auth.Config{
		Links: auth.LinkConfig{
			ClientURL:         "http://localhost:4200",
			ConfirmEmailPath:  "account/confirm-email",
			ResetPasswordPath: "account/reset-password",
			ApplicationName:   "Identity App",
		},
	})
	adminSvc := admin.NewService(users, hasher, domain.DefaultRoleCatalog(), admin.Config{SuperAdminUserName: "admin@sample.com"})

	return &testEnv{
		users:   users,
		mailer:  mailer,
		issuer:  issuer,
		hasher:  hasher,
		account: NewAccountHandler(authSvc),
		admin:   NewAdminHandler(adminSvc),
	}
}

// seed stores a confirmed user with password 123456.
func (e *testEnv) seed(t *testing.T, id, userName string, roles ...string) domain.User {
	t.Helper()

	hash, err := e.hasher.Hash("123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := e.users.Create(context.Background(), domain.User{
		ID:             id,
		UserName:       userName,
		Email:          userName,
		FirstName:      "first",
		LastName:       "last",
		PasswordHash:   hash,
		EmailConfirmed: true,
		CreatedAt:      time.Now().UTC(),
		Roles:          roles,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

// mustReadData decodes the {"data": ...} envelope into out.
func mustReadData(t *testing.T, r io.Reader, out any) {
	t.Helper()

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	wrapped := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Data) == 0 {
		t.Fatalf("decode envelope failed; body=%s", string(raw))
	}
	if err := json.Unmarshal(wrapped.Data, out); err != nil {
		t.Fatalf("decode data failed; body=%s err=%v", string(raw), err)
	}
}

// mustErrorCode returns error.code from an error body.
func mustErrorCode(t *testing.T, r io.Reader) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func withPrincipal(req *http.Request, p domain.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

// withURLParam injects chi URL param (e.g. /get-member/{id}) into request context.
func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

// lastLinkToken pulls the token query parameter out of the last email's link.
func (e *testEnv) lastLinkToken(t *testing.T) string {
	t.Helper()

	msg, ok := e.mailer.Last()
	if !ok {
		t.Fatalf("no email sent")
	}
	start := strings.Index(msg.HTMLBody, `href="`)
	if start < 0 {
		t.Fatalf("no link in body: %s", msg.HTMLBody)
	}
	rest := msg.HTMLBody[start+len(`href="`):]
	link := html.UnescapeString(rest[:strings.Index(rest, `"`)])

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	return u.Query().Get("token")
}
