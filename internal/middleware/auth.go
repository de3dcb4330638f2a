// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization, and request tracing middleware
// that can be used with the fiber web framework.
package middleware

import (
	"errors"
	"strings"
	"time"

	"walletd/internal/logger"
	"walletd/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimsKey is the fiber locals key holding *models.UserClaims.
const ClaimsKey = "claims"

// AuthMiddleware validates bearer tokens and stores the session claims.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Handler validates JWT tokens and adds claims to the request context.
// It checks for:
// - Presence of Authorization header with Bearer token
// - Valid HS256 signature
// - Token expiration
// - A non-empty subject
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	log := logger.FromContext(c.UserContext())

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		log.Debug().Msg("Missing Authorization header")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Debug().Msg("Invalid Authorization format")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := m.Parse(tokenString)
	if err != nil {
		log.Info().Err(err).Msg("Token validation error")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	c.Locals(ClaimsKey, claims)
	return c.Next()
}

// Parse validates a token string and returns its claims.
func (m *AuthMiddleware) Parse(tokenString string) (*models.UserClaims, error) {
	claims := &models.UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// IssueToken signs a token for owner. Used by development tooling and tests.
func IssueToken(secret, owner, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:        role,
		Permissions: models.GetDefaultPermissions(role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		// If user is admin, allow all permissions
		if claims.Role == "admin" || claims.HasPermission(permission) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}
