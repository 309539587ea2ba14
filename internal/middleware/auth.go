// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// IdentityKey is the fiber locals key the auth middleware stores the
// signed-in identity under.
const IdentityKey = "identity"

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid authorization header format",
		})
	}

	ident, err := parseIdentity(parts[1])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Locals(IdentityKey, ident)
	return c.Next()
}

// AuthOptional resolves the identity when a valid token is present and
// continues anonymously otherwise. Public profile routes use this so a
// signed-in viewer gets owner treatment on their own page.
func AuthOptional(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Next()
	}

	if ident, err := parseIdentity(parts[1]); err == nil {
		c.Locals(IdentityKey, ident)
	}
	return c.Next()
}

// WebSocketAuthOptional validates a token from the query string for
// WebSocket upgrades, falling back to the Authorization header. An
// absent or invalid token leaves the connection anonymous.
func WebSocketAuthOptional(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		authHeader := c.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return c.Next()
	}

	if ident, err := parseIdentity(token); err == nil {
		c.Locals(IdentityKey, ident)
	}
	return c.Next()
}

// Identity returns the signed-in identity set by the auth middleware,
// or nil for anonymous requests.
func Identity(c *fiber.Ctx) *models.Identity {
	ident, _ := c.Locals(IdentityKey).(*models.Identity)
	return ident
}

func parseIdentity(tokenString string) (*models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	ident, err := session.FromClaims(claims)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token structure - missing subject")
	}
	return ident, nil
}
