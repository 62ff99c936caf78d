package jwt

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// NewAuthMiddleware validates a Bearer HS256 token and publishes the
// principal into the request context: "userId" (subject) and, for
// admins, "isAdmin". Handlers downstream read only those locals.
func NewAuthMiddleware(secret, expectedIssuer string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			return unauthorized(c, "missing bearer token")
		}

		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.ErrUnauthorized
			}
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
		if err != nil || !token.Valid {
			return unauthorized(c, "invalid or expired token")
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return unauthorized(c, "invalid token claims")
		}
		if expectedIssuer != "" && claims.Issuer != expectedIssuer {
			return unauthorized(c, "invalid token issuer")
		}

		c.Locals("userId", claims.Subject)
		if claims.IsAdmin {
			c.Locals("isAdmin", true)
		}
		return c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. The
// "Bearer " prefix is optional: some clients send the bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if rest, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(rest)
	}
	if rest, found := strings.CutPrefix(header, "bearer "); found {
		return strings.TrimSpace(rest)
	}
	return header
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": msg})
}
