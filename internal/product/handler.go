package product

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the catalog over HTTP. Reads are public, mutations are
// wired behind the admin guard in main.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/products", h.listProducts)
	app.Get("/api/products/:id", h.getProduct)
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, guard fiber.Handler) {
	app.Post("/api/products", guard, h.createProduct)
	app.Put("/api/products/:id", guard, h.updateProduct)
	app.Delete("/api/products/:id", guard, h.deleteProduct)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	filter := Filter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", defaultLimit),
	}

	if v := c.Query("minPrice"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return badRequest(c, "invalid minPrice")
		}
		filter.MinPrice = &f
	}
	if v := c.Query("maxPrice"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return badRequest(c, "invalid maxPrice")
		}
		filter.MaxPrice = &f
	}

	page, err := h.service.List(filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"products":   page.Products,
			"pagination": page.Pagination,
		},
	})
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid product ID")
	}

	p, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(c)
		}
		return serverError(c)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"product": p}})
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	payload := new(Product)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.service.Create(*payload)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return badRequest(c, err.Error())
		}
		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product created successfully",
		"data":    fiber.Map{"product": created},
	})
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid product ID")
	}

	payload := new(Update)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.service.Update(id, *payload)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return notFound(c)
		case errors.Is(err, ErrInvalidInput):
			return badRequest(c, err.Error())
		default:
			return serverError(c)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated successfully",
		"data":    fiber.Map{"product": updated},
	})
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid product ID")
	}

	if err := h.service.Deactivate(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(c)
		}
		return serverError(c)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product deleted successfully"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": message})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Product not found"})
}

func serverError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Server error"})
}
