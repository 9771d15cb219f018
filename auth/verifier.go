package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/admarket/chat-api/models"
)

// ErrUnauthenticated is returned for any credential that cannot be
// accepted: malformed, bad signature, wrong algorithm, expired or revoked.
// The cause is logged server side but never detailed to the client.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the JWT payload issued by the marketplace auth service
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Verifier validates bearer credentials and yields the principal they
// carry. Verification is read only; the revocation store is consulted
// but never written.
type Verifier struct {
	secret      []byte
	revocations *RevocationStore
}

// NewVerifier creates a verifier for HMAC signed tokens
func NewVerifier(secret string, revocations *RevocationStore) *Verifier {
	return &Verifier{secret: []byte(secret), revocations: revocations}
}

// Verify parses and validates a bearer token. Only HS256 is accepted;
// tokens declaring any other algorithm are rejected outright so a client
// cannot downgrade the signature check.
func (v *Verifier) Verify(token string) (*models.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	if claims.ID != "" && v.revocations.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}
	return &models.Principal{UserID: claims.Subject, Roles: claims.Roles}, nil
}
