// Package service validates session tokens issued by the external identity
// subsystem. Login and token issuance live outside this service; callers
// arrive with a signed session token and we decide whether to trust it.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cheerconnect/internal/platform/middleware"
	id "cheerconnect/pkg/domain"
	dErrors "cheerconnect/pkg/domain-errors"
)

// RevocationList answers whether a session has been revoked before its
// token expired.
type RevocationList interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// revocationCheckTimeout bounds the revocation lookup so a slow Redis
// cannot stall every authenticated request.
const revocationCheckTimeout = 2 * time.Second

// Service validates bearer session tokens.
type Service struct {
	signingKey  []byte
	revocations RevocationList
}

func New(signingKey []byte, revocations RevocationList) *Service {
	return &Service{signingKey: signingKey, revocations: revocations}
}

// ValidateToken parses and verifies a session token, returning the caller's
// claims. It rejects tokens with bad signatures, expired tokens, tokens
// without a valid user ID, and revoked sessions. The revocation lookup runs
// on the request context so caller cancellation propagates, bounded so a
// slow Redis cannot stall every authenticated request.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*middleware.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user ID")
	}

	sessionID, _ := claims["sid"].(string)
	if sessionID != "" && s.revocations != nil {
		checkCtx, cancel := context.WithTimeout(ctx, revocationCheckTimeout)
		defer cancel()
		revoked, err := s.revocations.IsRevoked(checkCtx, sessionID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "revocation check failed")
		}
		if revoked {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session revoked")
		}
	}

	return &middleware.SessionClaims{UserID: userID, SessionID: sessionID}, nil
}
