package user

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func newAuthApp(svc *Service) *fiber.App {
	app := fiber.New()
	NewHandler(svc, testSecret, time.Hour).RegisterPublicRoutes(app)
	return app
}

func TestRegisterEndpoint(t *testing.T) {
	app := newAuthApp(NewService(NewInMemoryRepository(nil)))

	body := `{"email":"jo@example.com","password":"secret1","firstName":"Jo","lastName":"Smith"}`
	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, b)
	}

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			User  User   `json:"user"`
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Success || payload.Data.Token == "" {
		t.Fatalf("expected a token in the response, got %+v", payload)
	}
	if payload.Data.User.Password != "" {
		t.Fatalf("password hash leaked in the response")
	}

	// the issued token verifies against the signing secret and carries the id
	tok, err := jwt.Parse(payload.Data.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if int(claims["user_id"].(float64)) != payload.Data.User.ID {
		t.Fatalf("token user_id %v does not match user %d", claims["user_id"], payload.Data.User.ID)
	}

	// duplicate registration is a 400
	req = httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", res.StatusCode)
	}
}

func TestRegisterEndpoint_MissingFields(t *testing.T) {
	app := newAuthApp(NewService(NewInMemoryRepository(nil)))

	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(`{"email":"jo@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", res.StatusCode)
	}
}

func TestLoginEndpoint(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	if _, err := svc.Register(User{Email: "jo@example.com", Password: "secret1", FirstName: "Jo", LastName: "S"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	app := newAuthApp(svc)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"jo@example.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"jo@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", res.StatusCode)
	}
}

func TestLoadCurrentUser_RejectsDeactivated(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	u, err := svc.Register(User{Email: "jo@example.com", Password: "secret1", FirstName: "Jo", LastName: "S"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(u.ID)})
		c.Locals("user", tok)
		return c.Next()
	})
	app.Use(NewMiddleware(svc).LoadCurrentUser)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		cur, err := FromCtx(c)
		if err != nil {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"id": cur.ID})
	})

	res, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for active account, got %d", res.StatusCode)
	}

	if err := svc.Deactivate(u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	res, err = app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("a valid token for a deactivated account must get 401, got %d", res.StatusCode)
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	mw := NewMiddleware(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("currentUser", User{ID: 1, Role: RoleUser, IsActive: true})
		return c.Next()
	})
	app.Get("/admin-only", mw.RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	res, err := app.Test(httptest.NewRequest("GET", "/admin-only", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", res.StatusCode)
	}
}
