package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ddanilenko/famledger/internal/server/auth"
)

// Locals keys set by the auth middleware.
const (
	localUserID   = "userID"
	localFamilyID = "familyID"
)

// bearerAuth verifies the Authorization header and stashes the actor and
// tenant ids for the handlers. Every layer below trusts this scoping.
func (s *Server) bearerAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), s.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	c.Locals(localUserID, claims.UserID)
	c.Locals(localFamilyID, claims.FamilyID)

	return c.Next()
}
