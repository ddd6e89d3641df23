// Package session issues and validates the proof token handed out after a
// verified callback. The token lets a later submission claim "already verified"
// without the server trusting a bare client flag.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
)

const (
	issuer   = "verigate"
	audience = "verigate-portal"
)

// Claims carries the verified subject.
type Claims struct {
	SubjectID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 session tokens.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for issue and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer builds an Issuer for the given key and lifetime.
func NewIssuer(signingKey string, ttl time.Duration, opts ...Option) *Issuer {
	i := &Issuer{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue returns a signed token bound to subjectID.
func (i *Issuer) Issue(subjectID domain.SubjectID) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID: subjectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// Validate parses tokenString and returns the subject it was issued for.
func (i *Issuer) Validate(tokenString string) (domain.SubjectID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "session token has expired")
		}
		return domain.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token claims")
	}

	subjectID, err := domain.ParseSubjectID(claims.SubjectID)
	if err != nil {
		return domain.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token subject")
	}
	return subjectID, nil
}
