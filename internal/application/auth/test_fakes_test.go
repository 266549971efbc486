package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID map[string]domain.User

	// injected errors (if set, method returns error)
	getErr         error
	existsErr      error
	createErr      error
	updatePwdErr   error
	setConfirmErr  error
	updatedPwd     []struct{ id, hash string }
	confirmedUsers []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]domain.User{}}
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) find(match func(domain.User) bool) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return domain.User{}, f.getErr
	}
	for _, u := range f.byID {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) GetByUserName(ctx context.Context, userName string) (domain.User, error) {
	name := domain.NormalizeIdentity(userName)
	return f.find(func(u domain.User) bool { return u.UserName == name })
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeIdentity(email)
	return f.find(func(u domain.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	return f.find(func(u domain.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updatePwdErr != nil {
		return f.updatePwdErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.PasswordHash = newHash
	f.byID[userID] = u
	f.updatedPwd = append(f.updatedPwd, struct{ id, hash string }{userID, newHash})
	return nil
}

func (f *fakeUserRepo) SetEmailConfirmed(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setConfirmErr != nil {
		return f.setConfirmErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.EmailConfirmed = true
	f.byID[userID] = u
	f.confirmedUsers = append(f.confirmedUsers, userID)
	return nil
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

type fakeIssuer struct {
	signFn func(u domain.User) (string, error)
	issued []string
}

func (s *fakeIssuer) CreateSessionToken(u domain.User) (string, error) {
	if s.signFn != nil {
		return s.signFn(u)
	}
	s.issued = append(s.issued, u.ID)
	return fmt.Sprintf("jwt(%s,%s)", u.ID, u.Email), nil
}

type fakeTokens struct {
	mu sync.Mutex

	data map[TokenPurpose]map[string]string // purpose -> token -> userID

	saveErr    error
	consumeErr error
	revokeErr  error
	ttls       map[TokenPurpose]time.Duration
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		data: map[TokenPurpose]map[string]string{},
		ttls: map[TokenPurpose]time.Duration{},
	}
}

func (o *fakeTokens) Save(ctx context.Context, purpose TokenPurpose, token string, userID string, ttl time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.saveErr != nil {
		return o.saveErr
	}
	if o.data[purpose] == nil {
		o.data[purpose] = map[string]string{}
	}
	o.data[purpose][token] = userID
	o.ttls[purpose] = ttl
	return nil
}

func (o *fakeTokens) Consume(ctx context.Context, purpose TokenPurpose, token string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.consumeErr != nil {
		return "", o.consumeErr
	}
	m := o.data[purpose]
	uid, ok := m[token]
	if !ok {
		return "", domain.ErrTokenInvalid()
	}
	delete(m, token)
	return uid, nil
}

func (o *fakeTokens) RevokeAll(ctx context.Context, purpose TokenPurpose, userID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.revokeErr != nil {
		return o.revokeErr
	}
	for tok, uid := range o.data[purpose] {
		if uid == userID {
			delete(o.data[purpose], tok)
		}
	}
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []EmailMessage
}

func (m *fakeMailer) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last(t *testing.T) EmailMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected an email to be sent")
	}
	return m.sent[len(m.sent)-1]
}

/*
Service factory for tests
*/

type testEnv struct {
	svc    *Service
	users  *fakeUserRepo
	hasher *fakeHasher
	issuer *fakeIssuer
	tokens *fakeTokens
	mailer *fakeMailer
	audits *[]auditEntry
	now    time.Time
}

func newSvcForTest(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:  newFakeUserRepo(),
		hasher: &fakeHasher{},
		issuer: &fakeIssuer{},
		tokens: newFakeTokens(),
		mailer: &fakeMailer{},
		audits: &[]auditEntry{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	cfg := Config{
		Links: LinkConfig{
			ClientURL:         "http://localhost:4200/",
			ConfirmEmailPath:  "account/confirm-email",
			ResetPasswordPath: "account/reset-password",
			ApplicationName:   "Identity App",
		},
		ConfirmTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   30 * time.Minute,
	}

	env.svc = NewService(env.users, env.hasher, env.issuer, env.tokens, env.mailer, cfg).
		WithClock(func() time.Time { return env.now }).
		WithAudit(func(action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			*env.audits = append(*env.audits, auditEntry{action: action, fields: cp})
		})

	return env
}

// seedUser stores a principal with password "123456".
func (e *testEnv) seedUser(id, email string, confirmed bool) domain.User {
	u := domain.User{
		ID:             id,
		UserName:       email,
		Email:          email,
		FirstName:      "john",
		LastName:       "doe",
		PasswordHash:   "hash:123456",
		EmailConfirmed: confirmed,
	}
	e.users.put(u)
	return u
}

var hrefRe = regexp.MustCompile(`href="([^"]+)"`)

// linkToken extracts the transport token from the link in an email body.
func linkToken(t *testing.T, msg EmailMessage) (token string, link *url.URL) {
	t.Helper()
	m := hrefRe.FindStringSubmatch(msg.HTMLBody)
	if m == nil {
		t.Fatalf("no link in body: %s", msg.HTMLBody)
	}
	raw := strings.ReplaceAll(m[1], "&amp;", "&")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad link %q: %v", raw, err)
	}
	return u.Query().Get("token"), u
}

/*
Small assertions
*/

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func requireKind(t *testing.T, err error, want domain.ErrKind) {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if de.Kind != want {
		t.Fatalf("expected kind %q, got %q (err=%v)", want, de.Kind, err)
	}
}

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}
