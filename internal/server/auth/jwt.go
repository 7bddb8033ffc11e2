// Package auth issues and verifies the JWTs that carry tenant and actor
// identity. The sync engine trusts these claims unconditionally; this
// package is the boundary where they are established.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ddanilenko/famledger/internal/common"
)

// Claims extends the registered JWT claims with the actor and tenant ids.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	FamilyID string `json:"fid"`
}

// GenerateToken signs an HS256 token carrying the user and family ids.
func GenerateToken(userID, familyID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   userID,
		FamilyID: familyID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the token signature and expiry and returns its
// claims. Expired tokens map to common.ErrTokenExpired, everything else
// invalid to common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.FamilyID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
