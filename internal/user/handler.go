package user

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service  *Service
	secret   string
	tokenTTL time.Duration
}

func NewHandler(service *Service, secret string, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, secret: secret, tokenTTL: tokenTTL}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/auth/register", h.register)
	app.Post("/api/auth/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/auth/me", h.me)
	app.Put("/api/users/profile", h.updateProfile)
	app.Put("/api/users/password", h.changePassword)
	app.Delete("/api/users/account", h.deactivateAccount)
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, guard fiber.Handler) {
	app.Get("/api/users", guard, h.listUsers)
}

type registerRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Address   *Address `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}
	if payload.Email == "" || payload.Password == "" || payload.FirstName == "" || payload.LastName == "" {
		return badRequest(c, "Please provide email, password, first name and last name")
	}

	created, err := h.service.Register(User{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Address:   payload.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			return badRequest(c, "Email already exists")
		case errors.Is(err, ErrPasswordTooShort):
			return badRequest(c, "Password must be at least 6 characters long")
		default:
			return serverError(c)
		}
	}

	token, err := IssueToken(created, h.secret, h.tokenTTL)
	if err != nil {
		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registration successful",
		"data":    fiber.Map{"user": sanitizeUser(created), "token": token},
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}

	u, err := h.service.Authenticate(payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid email or password",
		})
	}

	token, err := IssueToken(u, h.secret, h.tokenTTL)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data":    fiber.Map{"user": sanitizeUser(u), "token": token},
	})
}

func (h *Handler) me(c *fiber.Ctx) error {
	u, err := FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"user": sanitizeUser(u)}})
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	u, err := FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	payload := new(ProfileUpdate)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.service.UpdateProfile(u.ID, *payload)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(c)
		}
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    fiber.Map{"user": sanitizeUser(updated)},
	})
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	u, err := FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	payload := new(passwordRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}
	if payload.CurrentPassword == "" || payload.NewPassword == "" {
		return badRequest(c, "Please provide current and new password")
	}

	if err := h.service.ChangePassword(u.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			return badRequest(c, "Current password is incorrect")
		case errors.Is(err, ErrPasswordTooShort):
			return badRequest(c, "New password must be at least 6 characters long")
		case errors.Is(err, ErrNotFound):
			return notFound(c)
		default:
			return serverError(c)
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "Password updated successfully"})
}

func (h *Handler) deactivateAccount(c *fiber.Ctx) error {
	u, err := FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.service.Deactivate(u.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(c)
		}
		return serverError(c)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Account deactivated successfully"})
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	search := c.Query("search")

	users, total, err := h.service.List(page, limit, search)
	if err != nil {
		return serverError(c)
	}

	sanitized := make([]User, 0, len(users))
	for _, u := range users {
		sanitized = append(sanitized, sanitizeUser(u))
	}

	if limit < 1 {
		limit = 1
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"users": sanitized,
			"pagination": fiber.Map{
				"currentPage": page,
				"totalPages":  int(math.Ceil(float64(total) / float64(limit))),
				"totalUsers":  total,
			},
		},
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": message})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
}

func serverError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Server error"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
}
