package credential

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/model"
)

// CredentialLister is the subset of the credential store the subsystem
// needs: enumerate active credentials and record last use (§4.1, §4.2).
type CredentialLister interface {
	ListActive(ctx context.Context) ([]*model.Credential, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Credential, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

// Service issues and validates bearer tokens derived from stored
// credentials (§4.2).
type Service struct {
	store     CredentialLister
	jwtSecret []byte
	tokenTTL  time.Duration
	pool      *workPool
}

// NewService builds a credential Service bound to store, signing secret,
// and token TTL.
func NewService(store CredentialLister, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL, pool: defaultPool}
}

// claims is the gateway's bearer-token claim set (§3).
type claims struct {
	jwt.RegisteredClaims
}

// Authenticate enumerates active credentials and verifies plaintext
// against each (§4.2's O(n) enumeration contract). On the first match it
// records last-used and issues a bearer token; otherwise it returns a
// generic invalid-credential error indistinguishable between "no match"
// and "zero active credentials".
func (s *Service) Authenticate(ctx context.Context, plaintext string) (string, time.Duration, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return "", 0, errors.NewInternalError("failed to list credentials", err)
	}

	var matched *model.Credential
	for _, c := range active {
		hash := c.KeyHash
		if s.pool.run(func() bool { return Verify(plaintext, hash) }) {
			matched = c
			break
		}
	}
	if matched == nil {
		return "", 0, errors.NewUnauthorizedError("invalid credential", nil)
	}

	if err := s.store.TouchLastUsed(ctx, matched.ID); err != nil {
		logger.Warnf("failed to record credential use for %s: %v", matched.ID, err)
	}

	token, err := s.issueToken(matched.ID)
	if err != nil {
		return "", 0, err
	}
	return token, s.tokenTTL, nil
}

func (s *Service) issueToken(credentialID uuid.UUID) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   credentialID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

// Validate verifies a bearer token's signature and expiry, then confirms
// the referenced credential still exists and is active (§4.2's
// validation contract — a well-signed token for a revoked credential must
// still fail).
func (s *Service) Validate(ctx context.Context, token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewUnauthorizedError("unexpected signing method", nil)
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		logger.Warnf("bearer token signature/format failure: %v", err)
		return uuid.Nil, errors.NewUnauthorizedError("invalid or expired token", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok {
		return uuid.Nil, errors.NewUnauthorizedError("invalid token claims", nil)
	}
	credentialID, err := uuid.Parse(c.Subject)
	if err != nil {
		logger.Warnf("bearer token subject is not a UUID: %v", err)
		return uuid.Nil, errors.NewUnauthorizedError("invalid token subject", err)
	}

	cred, err := s.store.Get(ctx, credentialID)
	if err != nil || !cred.Active {
		logger.Warnf("bearer token references missing or revoked credential %s", credentialID)
		return uuid.Nil, errors.NewUnauthorizedError("invalid or expired token", nil)
	}
	return credentialID, nil
}
