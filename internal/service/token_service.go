package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

// TokenService issues and verifies signed session tokens. The signing secret
// and lifetime are fixed at construction; nothing here reads ambient
// configuration.
type TokenService struct {
	secret []byte
	issuer string
	expiry time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret, issuer string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, expiry: expiry}
}

// Expiry returns the configured token lifetime, used by login handlers to
// set the session cookie max age.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Issue produces a signed HS256 token for the subject carrying the role set.
// Roles are always serialised as an array, even for a single role.
func (s *TokenService) Issue(subject string, roles ...models.Role) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.expiry)
	claims := &models.Claims{
		Roles: models.RoleSet(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token, returning the decoded claims. It
// checks signature and timing only; whether the referenced identity still
// exists is the profile resolver's concern.
func (s *TokenService) Verify(raw string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
