package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// MinKeyLen is the shortest HMAC key accepted for HS512 session tokens.
const MinKeyLen = 32

// JWTIssuer mints and verifies HS512 session tokens.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) < MinKeyLen {
		return nil, errors.New("jwt key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type sessionClaims struct {
	NameID     string   `json:"nameid"`
	Email      string   `json:"email,omitempty"`
	GivenName  string   `json:"given_name,omitempty"`
	FamilyName string   `json:"family_name,omitempty"`
	Roles      []string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CreateSessionToken signs a token carrying the user's identity claims and
// one role entry per assigned role.
func (s *JWTIssuer) CreateSessionToken(u domain.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		NameID:     u.ID,
		Email:      u.Email,
		GivenName:  u.FirstName,
		FamilyName: u.LastName,
		Roles:      domain.UniqueRoles(u.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// VerifySessionToken checks signature, issuer and lifetime (zero clock skew)
// and returns the asserted principal.
func (s *JWTIssuer) VerifySessionToken(token string) (domain.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.ErrTokenExpired()
		}
		return domain.Principal{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.NameID == "" {
		return domain.Principal{}, domain.ErrTokenInvalid()
	}

	p := domain.Principal{
		UserID:    claims.NameID,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Roles:     domain.UniqueRoles(claims.Roles),
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	p.Claims = []domain.Claim{{Type: domain.ClaimNameIdentifier, Value: claims.NameID}}
	if claims.Email != "" {
		p.Claims = append(p.Claims, domain.Claim{Type: domain.ClaimEmail, Value: claims.Email})
	}
	if claims.GivenName != "" {
		p.Claims = append(p.Claims, domain.Claim{Type: domain.ClaimGivenName, Value: claims.GivenName})
	}
	if claims.FamilyName != "" {
		p.Claims = append(p.Claims, domain.Claim{Type: domain.ClaimSurname, Value: claims.FamilyName})
	}
	for _, r := range p.Roles {
		p.Claims = append(p.Claims, domain.Claim{Type: domain.ClaimRole, Value: r})
	}
	return p, nil
}
