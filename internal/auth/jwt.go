// Package auth issues and verifies the tokens that carry a caller's identity:
// user, organization and role.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims.
type Claims struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified caller a token speaks for.
type Identity struct {
	UserID         string
	Username       string
	OrganizationID string
	Role           string
}

// TokenExpiry is the default token lifetime.
const TokenExpiry = 7 * 24 * time.Hour

// GenerateToken creates a signed JWT for id with a unique JTI.
func GenerateToken(secret string, id Identity) (string, error) {
	if id.UserID == "" || id.OrganizationID == "" {
		return "", fmt.Errorf("token requires a user and an organization")
	}

	now := time.Now()
	claims := Claims{
		UserID:         id.UserID,
		Username:       id.Username,
		OrganizationID: id.OrganizationID,
		Role:           id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" || claims.OrganizationID == "" {
		return nil, fmt.Errorf("token missing user or organization")
	}

	return claims, nil
}

// Identity returns the caller described by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:         c.UserID,
		Username:       c.Username,
		OrganizationID: c.OrganizationID,
		Role:           c.Role,
	}
}
