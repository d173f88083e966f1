package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	tokenStr, err := GenerateJWT("ramesh", "supervisor")
	require.NoError(t, err)

	token, err := ValidateJWT(tokenStr)
	require.NoError(t, err)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "ramesh", claims["username"])
	assert.Equal(t, "supervisor", claims["role"])
	assert.Equal(t, "access", claims["type"])
}

func TestRefreshTokenCarriesSession(t *testing.T) {
	tokenStr, err := GenerateRefreshToken("ramesh", "session-123")
	require.NoError(t, err)

	token, err := ValidateJWT(tokenStr)
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "refresh", claims["type"])
	assert.Equal(t, "session-123", claims["sessionId"])
}

func TestValidateJWTRejectsTampering(t *testing.T) {
	tokenStr, err := GenerateJWT("ramesh", "viewer")
	require.NoError(t, err)

	_, err = ValidateJWT(tokenStr + "x")
	assert.Error(t, err)

	_, err = ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidatePasswordBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, ValidatePassword(string(hash), "secret"))
	assert.False(t, ValidatePassword(string(hash), "wrong"))
}

func TestValidatePasswordPlaintext(t *testing.T) {
	assert.True(t, ValidatePassword("secret", "secret"))
	assert.False(t, ValidatePassword("secret", "other"))
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("billets")
	require.NoError(t, err)
	assert.True(t, ValidatePassword(hash, "billets"))
}
