package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ddanilenko/famledger/internal/common"
)

var testSecret = []byte("test-secret")

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("user-1", "family-1", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "family-1", claims.FamilyID)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("user-1", "family-1", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "family-1", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("other-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.jwt", testSecret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseTokenMissingClaims(t *testing.T) {
	token, err := GenerateToken("", "family-1", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
