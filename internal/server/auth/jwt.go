// Package auth issues and verifies the JWTs used by the server: access
// tokens it signs itself and custom tokens minted by a trusted backend
// for SignInWithToken.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const customTokenAudience = "pagewatch"

// Claims carry the signed-in user of an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Anonymous bool   `json:"anon,omitempty"`
}

// GenerateToken signs an HS256 access token for userID valid for validity.
func GenerateToken(userID string, anonymous bool, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:    userID,
		Anonymous: anonymous,
	})
	return token.SignedString(secretKey)
}

// GetUserIDFromToken verifies an access token and returns its user id.
// An expired token yields common.ErrTokenExpired, anything else invalid
// yields common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secretKey), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}

// MintCustomToken creates a token that SignInWithToken accepts for the
// external user externalID.
func MintCustomToken(externalID string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   externalID,
		Audience:  jwt.ClaimStrings{customTokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
	})
	return token.SignedString(secretKey)
}

// ParseCustomToken verifies a custom token and returns its subject.
func ParseCustomToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secretKey),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(customTokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	return claims.Subject, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		return secret, nil
	}
}
