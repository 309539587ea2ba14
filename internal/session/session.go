// Package session maps signed tokens to writer identities.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/models"
)

var ErrInvalidClaims = errors.New("session: invalid token claims")

// FromClaims builds the signed-in identity carried by a token. The
// subject claim is required; handle, name, email and avatar are
// optional profile fields.
func FromClaims(claims jwt.MapClaims) (*models.Identity, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidClaims
	}

	ident := &models.Identity{ID: sub}
	if v, ok := claims["handle"].(string); ok {
		ident.Handle = v
	}
	if v, ok := claims["name"].(string); ok {
		ident.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		ident.Email = v
	}
	if v, ok := claims["avatar"].(string); ok {
		ident.AvatarURL = v
	}
	return ident, nil
}

// IssueToken signs a token for the given identity. Used by the seed
// tooling and tests; production tokens come from the auth provider.
func IssueToken(secret string, ident models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    ident.ID,
		"handle": ident.Handle,
		"name":   ident.Name,
		"email":  ident.Email,
		"avatar": ident.AvatarURL,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
