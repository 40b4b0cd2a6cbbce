package order

import (
	"errors"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/product"
	"storefront-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/orders", h.createOrder)
	app.Get("/api/orders", h.listOrders)
	app.Get("/api/orders/:id", h.getOrder)
}

// RegisterAdminRoutes must run before RegisterProtectedRoutes so that
// /api/orders/admin/all is matched ahead of /api/orders/:id.
func (h *Handler) RegisterAdminRoutes(app *fiber.App, guard fiber.Handler) {
	app.Get("/api/orders/admin/all", guard, h.listAllOrders)
	app.Put("/api/orders/:id/status", guard, h.updateStatus)
}

type createOrderRequest struct {
	ShippingAddress Address `json:"shippingAddress"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	usr, err := user.FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	payload := new(createOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}

	ord, err := h.service.Place(usr.ID, payload.ShippingAddress)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order created successfully",
		"data":    fiber.Map{"order": ord},
	})
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	usr, err := user.FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	orders, total, err := h.service.ListByUser(usr.ID, page, limit)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"orders":     orders,
			"pagination": paginate(page, limit, total),
		},
	})
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	usr, err := user.FromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid order ID")
	}

	ord, err := h.service.GetByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	if ord.UserID != usr.ID && usr.Role != user.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to access this order",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"order": ord}})
}

func (h *Handler) listAllOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	status := c.Query("status")

	orders, total, err := h.service.ListAll(status, page, limit)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"orders":     orders,
			"pagination": paginate(page, limit, total),
		},
	})
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid order ID")
	}

	payload := new(statusRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}

	ord, err := h.service.UpdateStatus(id, payload.Status)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated successfully",
		"data":    fiber.Map{"order": ord},
	})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var stockErr *product.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return badRequest(c, "Insufficient stock for "+stockErr.Name)
	case errors.Is(err, ErrEmptyCart):
		return badRequest(c, "Cart is empty")
	case errors.Is(err, ErrMissingAddress):
		return badRequest(c, "Shipping address is incomplete")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidTransition):
		return badRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Order not found"})
	case errors.Is(err, cart.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Server error"})
	}
}

func paginate(page int, limit int, total int) fiber.Map {
	if limit < 1 {
		limit = 1
	}
	return fiber.Map{
		"currentPage": page,
		"totalPages":  int(math.Ceil(float64(total) / float64(limit))),
		"totalOrders": total,
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
}
