package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/server/sync"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId,omitempty"`
	FamilyID string `json:"familyId,omitempty"`
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "OK"})
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	user, token, err := s.users.Register(c.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, common.ErrorAlreadyExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email already registered"})
		default:
			s.logger.Error(c.Context(), "signup failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	s.logger.Info(c.Context(), "user registered", "user_id", user.ID, "family_id", user.FamilyID)
	return c.Status(fiber.StatusCreated).JSON(tokenResponse{Token: token, UserID: user.ID, FamilyID: user.FamilyID})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	token, err := s.users.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}
		s.logger.Error(c.Context(), "login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.JSON(tokenResponse{Token: token})
}

// handleSync is the single round-trip of the sync protocol: the client's
// pending changes go in, per-change results, conflicts and the incremental
// pull come out. Transaction-level failures surface as INTERNAL_ERROR and
// mean "nothing happened, retry the identical batch".
func (s *Server) handleSync(c *fiber.Ctx) error {
	familyID, _ := c.Locals(localFamilyID).(string)
	userID, _ := c.Locals(localUserID).(string)

	var req sync.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
			"code":  sync.ErrCodeValidation,
		})
	}

	resp, err := s.sync.Sync(c.Context(), familyID, userID, &req)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
				"code":  sync.ErrCodeValidation,
			})
		}
		s.logger.Error(c.Context(), "sync failed", "family_id", familyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sync failed, retry the request",
			"code":  sync.ErrCodeInternal,
		})
	}

	return c.JSON(resp)
}
