package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients
// - Meta: optional details (field, reason, errors list, etc.)
// - Cause: wrapped internal error for logging only
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]any) *Error {
	err.Meta = meta
	return err
}

// WithCause attaches an internal cause and returns the same error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Code returns the stable code of a domain error, or "" for anything else.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]any{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]any{
		"field":  field,
		"reason": reason,
	})
}

// ErrValidation carries every failed rule so clients can render them as a list.
func ErrValidation(errs []string) *Error {
	return WithMeta(New(KindValidation, "validation_failed", "one or more validation errors occurred"), map[string]any{
		"errors": errs,
	})
}

func ErrPasswordPolicy(errs []string) *Error {
	return WithMeta(New(KindValidation, "password_policy", "password does not meet requirements"), map[string]any{
		"errors": errs,
	})
}

func ErrInvalidEmail() *Error {
	return New(KindValidation, "invalid_email", "Invalid email")
}

func ErrDuplicateEmail(email string) *Error {
	return WithMeta(New(KindValidation, "duplicate_email",
		fmt.Sprintf("An existing account is using %s, email address. Please, try with another email address.", email)),
		map[string]any{"email": email},
	)
}

func ErrAlreadyConfirmed() *Error {
	return New(KindValidation, "already_confirmed", "Your email was confirmed before. Please, login to your account.")
}

func ErrEmailConfirmationRequired() *Error {
	return New(KindValidation, "email_not_confirmed", "Please, confirm your email address first.")
}

// IMPORTANT: decode, expiry, wrong purpose and wrong user all collapse to this one.
func ErrInvalidToken(cause error) *Error {
	return Wrap(KindValidation, "invalid_token", "Invalid token. Please, try again.", cause)
}

func ErrEmailSendFailed(cause error) *Error {
	return Wrap(KindValidation, "email_send_failed", "Failed to send email. Please, contact admin.", cause)
}

func ErrUserNameTaken(userName string) *Error {
	return WithMeta(New(KindValidation, "username_taken", fmt.Sprintf("Username '%s' is already taken.", userName)), map[string]any{
		"user_name": userName,
	})
}

func ErrSuperAdminChangeNotAllowed() *Error {
	return New(KindValidation, "super_admin_change_not_allowed", "Super Admin change is not allowed!")
}

// ----------------------
// Auth errors (401)
// ----------------------

// IMPORTANT: used for both unknown user and wrong password to avoid enumeration.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "Invalid username or password.")
}

func ErrEmailNotConfirmed() *Error {
	return New(KindAuth, "email_not_confirmed", "Please, confirm your email.")
}

func ErrLockedOut() *Error {
	return New(KindAuth, "locked_out", "You have been locked out.")
}

func ErrEmailNotRegistered() *Error {
	return New(KindAuth, "email_not_registered", "This email address has not been registered yet.")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "forbidden")
}

func ErrPolicyDenied(policy string) *Error {
	return WithMeta(New(KindForbidden, "forbidden", "forbidden"), map[string]any{
		"policy": policy,
	})
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "user not found")
}

// ----------------------
// Conflict (409)
// ----------------------

// ErrConflict covers concurrent writes that lost a uniqueness race.
func ErrConflict(reason string) *Error {
	return WithMeta(New(KindConflict, "conflict", "conflict"), map[string]any{
		"reason": reason,
	})
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]any{
		"scope": scope,
	})
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
