// Package token issues and verifies the two JWT flavors used by nimbusdrive:
// session tokens minted at login, and short-lived capability tokens that
// grant a single purpose on a single file. Both are HS256-signed and
// stateless; validity is purely a function of signature and expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nimbusdrive/common"
)

// Purpose values carried by capability tokens. A verifier must match both
// the purpose and the target file id against the request context.
const (
	PurposeFileDownload = "file-download"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultShareTTL   = time.Hour
)

// Audience values separate the two flavors. Verification requires the
// matching audience, so a capability token can never pass as a session and
// vice versa, even though both are signed with the same secret.
const (
	audSession    = "nimbusdrive:session"
	audCapability = "nimbusdrive:capability"
)

// SessionClaims identify an authenticated principal.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// CapabilityClaims grant the holder one purpose on one file. Possession of
// the signed string is the only authorization check beyond purpose/target
// match.
type CapabilityClaims struct {
	UserID  string `json:"user_id"`
	FileID  string `json:"file_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

func (s *Service) IssueSession(userID, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySession returns the claims of a valid session token, or
// common.ErrUnauthorized for anything malformed, forged, expired, or not a
// session token.
func (s *Service) VerifySession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(tokenString, audSession, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueCapability mints a purpose-scoped token for one file.
func (s *Service) IssueCapability(userID, fileID, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CapabilityClaims{
		UserID:  userID,
		FileID:  fileID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audCapability},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign capability token: %w", err)
	}
	return signed, nil
}

// VerifyCapability returns the claims of a valid capability token. The
// failure is uniform (common.ErrUnauthorized) whether the token is
// malformed, carries a bad signature, has expired, or is a session token.
func (s *Service) VerifyCapability(tokenString string) (*CapabilityClaims, error) {
	claims := &CapabilityClaims{}
	if err := s.parse(tokenString, audCapability, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) parse(tokenString, audience string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithAudience(audience))
	if err != nil || !token.Valid {
		return common.ErrUnauthorized
	}
	return nil
}
