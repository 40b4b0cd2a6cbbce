package product

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newCatalogApp(seed []Product, admin bool) *fiber.App {
	app := fiber.New()
	h := NewHandler(NewService(NewInMemoryRepository(seed)))
	h.RegisterPublicRoutes(app)
	h.RegisterAdminRoutes(app, func(c *fiber.Ctx) error {
		if !admin {
			return c.SendStatus(fiber.StatusForbidden)
		}
		return c.Next()
	})
	return app
}

func TestListProductsEndpoint(t *testing.T) {
	app := newCatalogApp(seedCatalog(), false)

	res, err := app.Test(httptest.NewRequest("GET", "/api/products?category=Home&sort=price", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Products   []Product  `json:"products"`
			Pagination Pagination `json:"pagination"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Success || len(payload.Data.Products) != 2 {
		t.Fatalf("unexpected listing %+v", payload.Data)
	}
	if payload.Data.Products[0].Name != "Mug" {
		t.Fatalf("expected cheapest Home product first, got %s", payload.Data.Products[0].Name)
	}
}

func TestListProductsEndpoint_BadPriceBound(t *testing.T) {
	app := newCatalogApp(seedCatalog(), false)

	res, err := app.Test(httptest.NewRequest("GET", "/api/products?minPrice=abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid minPrice, got %d", res.StatusCode)
	}
}

func TestGetProductEndpoint(t *testing.T) {
	app := newCatalogApp(seedCatalog(), false)

	res, err := app.Test(httptest.NewRequest("GET", "/api/products/1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	// soft-deleted products are indistinguishable from missing ones
	res, err = app.Test(httptest.NewRequest("GET", "/api/products/5", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for inactive product, got %d", res.StatusCode)
	}

	res, err = app.Test(httptest.NewRequest("GET", "/api/products/abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", res.StatusCode)
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	app := newCatalogApp(nil, true)

	body := `{"name":"Mug","description":"d","price":8,"category":"Home","stock":5}`
	req := httptest.NewRequest("POST", "/api/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, b)
	}

	req = httptest.NewRequest("POST", "/api/products", strings.NewReader(`{"name":"","price":8}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid product, got %d", res.StatusCode)
	}
}

func TestMutationsBlockedWithoutAdmin(t *testing.T) {
	app := newCatalogApp(seedCatalog(), false)

	req := httptest.NewRequest("DELETE", "/api/products/1", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 without admin role, got %d", res.StatusCode)
	}
}
