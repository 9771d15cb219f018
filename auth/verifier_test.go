package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/admarket/chat-api/auth"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func validClaims() *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "token-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"user"},
	}
}

func TestVerifier_Verify(t *testing.T) {
	v := auth.NewVerifier(testSecret, auth.NewRevocationStore())
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	principal, err := v.Verify(token)

	assert.NoError(t, err)
	assert.Equal(t, "user-1", principal.UserID)
	assert.Equal(t, []string{"user"}, principal.Roles)
}

func TestVerifier_VerifyMalformed(t *testing.T) {
	v := auth.NewVerifier(testSecret, auth.NewRevocationStore())

	_, err := v.Verify("not-a-jwt")

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestVerifier_VerifyBadSignature(t *testing.T) {
	v := auth.NewVerifier(testSecret, auth.NewRevocationStore())
	token := signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), validClaims())

	_, err := v.Verify(token)

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestVerifier_VerifyRejectsOtherAlgorithms(t *testing.T) {
	v := auth.NewVerifier(testSecret, auth.NewRevocationStore())

	// A token declaring HS512 must be rejected even though it is signed
	// with the right secret: only the allow-listed algorithm is accepted.
	token := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())

	_, err := v.Verify(token)

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestVerifier_VerifyExpired(t *testing.T) {
	v := auth.NewVerifier(testSecret, auth.NewRevocationStore())
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	_, err := v.Verify(token)

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestVerifier_VerifyRevoked(t *testing.T) {
	revocations := auth.NewRevocationStore()
	v := auth.NewVerifier(testSecret, revocations)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	revocations.Revoke("token-1", time.Hour)

	// Well-formed, correctly signed, unexpired: the revocation entry
	// alone makes it invalid.
	_, err := v.Verify(token)

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestVerifier_VerifyMissingSubject(t *testing.T) {
	v := auth.NewVerifier(testSecret, auth.NewRevocationStore())
	claims := validClaims()
	claims.Subject = ""
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	_, err := v.Verify(token)

	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}
