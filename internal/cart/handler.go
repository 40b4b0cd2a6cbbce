package cart

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"storefront-backend/internal/product"
	"storefront-backend/internal/user"
)

// Handler delegates cart operations to the cart service. All routes require
// an authenticated user.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/cart", h.getCart)
	app.Post("/api/cart/add", h.addItem)
	app.Put("/api/cart/update", h.updateItem)
	app.Delete("/api/cart/clear", h.clearCart)
	app.Delete("/api/cart/remove/:productId", h.removeItem)
}

type itemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	crt, err := h.service.Get(userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"cart": crt}})
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	payload := itemRequest{Quantity: 1}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	crt, err := h.service.AddItem(userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item added to cart",
		"data":    fiber.Map{"cart": crt},
	})
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	payload := new(itemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	crt, err := h.service.UpdateItem(userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart updated successfully",
		"data":    fiber.Map{"cart": crt},
	})
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid product ID"})
	}

	crt, err := h.service.RemoveItem(userID, productID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item removed from cart",
		"data":    fiber.Map{"cart": crt},
	})
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.service.Clear(userID); err != nil {
		return h.fail(c, err)
	}
	crt, err := h.service.Get(userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart cleared successfully",
		"data":    fiber.Map{"cart": crt},
	})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var stockErr *product.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": stockErr.Error()})
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Quantity cannot be negative"})
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Product not found"})
	case errors.Is(err, ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Item not found in cart"})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Cart not found"})
	case errors.Is(err, ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Server error"})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
}
