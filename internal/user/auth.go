package user

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// IssueToken mints the signed bearer credential carried in the Authorization
// header. Claims stay minimal: identity, role and expiry.
func IssueToken(u User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GetUserIDFromCtx extracts the authenticated user id from the verified token
// the JWT middleware stored in locals.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	u := c.Locals("user")
	if u == nil {
		return 0, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	if raw, ok := claims["user_id"]; ok {
		switch v := raw.(type) {
		case float64:
			return int(v), nil
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case string:
			id, err := strconv.Atoi(v)
			if err != nil {
				return 0, fiber.ErrUnauthorized
			}
			return id, nil
		}
	}
	return 0, fiber.ErrUnauthorized
}

// FromCtx returns the user loaded by Middleware.LoadCurrentUser.
func FromCtx(c *fiber.Ctx) (User, error) {
	u, ok := c.Locals("currentUser").(User)
	if !ok {
		return User{}, errors.New("no authenticated user in context")
	}
	return u, nil
}

// Middleware resolves the token's user against the store on every request so
// a structurally valid token stops working the moment the account is
// deactivated.
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

func (m *Middleware) LoadCurrentUser(c *fiber.Ctx) error {
	id, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access denied. No token provided.",
		})
	}

	u, err := m.service.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Token is invalid. User not found.",
		})
	}
	if !u.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Account is deactivated.",
		})
	}

	c.Locals("currentUser", u)
	return c.Next()
}

func (m *Middleware) RequireAdmin(c *fiber.Ctx) error {
	u, err := FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access denied. No token provided.",
		})
	}
	if u.Role != RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Role %s is not authorized to access this route", u.Role),
		})
	}
	return c.Next()
}
