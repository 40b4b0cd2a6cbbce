package main

import (
	"database/sql"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/config"
	"storefront-backend/internal/order"
	"storefront-backend/internal/product"
	"storefront-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		panic("JWT_SECRET is not set")
	}

	app := fiber.New()
	setupCORS(app)

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	ensureSchema(db)

	productRepo := product.NewPostgresRepository(db)
	productService := product.NewService(productRepo)
	productHandler := product.NewHandler(productService)

	cartRepo := cart.NewPostgresRepository(db)
	cartService := cart.NewService(cartRepo, productService)
	cartHandler := cart.NewHandler(cartService)

	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, cartService, productService)
	orderHandler := order.NewHandler(orderService)

	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, cfg.JWTSecret, cfg.TokenTTL)
	mw := user.NewMiddleware(userService)

	if cfg.SeedProducts {
		seedProducts(productService)
	}

	// public surface
	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}

	// everything below requires a valid token
	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. No token provided.",
			})
		},
	}))
	app.Use(mw.LoadCurrentUser)

	userHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)

	// admin order routes first so /api/orders/admin/all is not swallowed by /api/orders/:id
	orderHandler.RegisterAdminRoutes(app, mw.RequireAdmin)
	orderHandler.RegisterProtectedRoutes(app)

	productHandler.RegisterAdminRoutes(app, mw.RequireAdmin)
	userHandler.RegisterAdminRoutes(app, mw.RequireAdmin)

	log.Fatal(app.Listen(cfg.Addr))
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	// bound every statement so a stuck query cannot wedge a request forever
	if !strings.Contains(dbURL, "statement_timeout") {
		sep := "?"
		if strings.Contains(dbURL, "?") {
			sep = "&"
		}
		dbURL += sep + "statement_timeout=5000"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}
	if err := db.Ping(); err != nil {
		panic(err)
	}
	return db
}

func ensureSchema(db *sql.DB) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT,
			address JSONB,
			role TEXT NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL,
			images JSONB NOT NULL DEFAULT '[]',
			category TEXT NOT NULL,
			brand TEXT,
			sku TEXT,
			stock INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			rating_average DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating_count INT NOT NULL DEFAULT 0,
			specifications JSONB NOT NULL DEFAULT '[]',
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
		`CREATE INDEX IF NOT EXISTS idx_products_is_active ON products (is_active)`,
		`CREATE TABLE IF NOT EXISTS carts (
			cart_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL UNIQUE,
			items JSONB NOT NULL DEFAULT '[]',
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			version INT NOT NULL DEFAULT 0,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id SERIAL PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			user_id INT NOT NULL,
			items JSONB NOT NULL DEFAULT '[]',
			shipping_address JSONB NOT NULL DEFAULT '{}',
			subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
			tax DOUBLE PRECISION NOT NULL DEFAULT 0,
			shipping DOUBLE PRECISION NOT NULL DEFAULT 0,
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			panic(err)
		}
	}
}

// seedProducts fills an empty catalog with a small demo set so a fresh
// deployment has something to browse. Existing rows mean someone already
// owns the catalog and we stay out of it.
func seedProducts(service *product.Service) {
	page, err := service.List(product.Filter{Page: 1, Limit: 1})
	if err != nil || page.Pagination.TotalProducts > 0 {
		return
	}

	seed := []product.Product{
		{
			Name:        "Wireless Headphones",
			Description: "Over-ear wireless headphones with active noise cancellation",
			Price:       89.99,
			Images:      []product.Image{{URL: "/static/img/headphones.jpg", Alt: "Wireless Headphones"}},
			Category:    "Electronics",
			Brand:       "AudioMax",
			SKU:         "AM-WH-001",
			Stock:       40,
			Tags:        []string{"audio", "wireless"},
		},
		{
			Name:        "Running Shoes",
			Description: "Lightweight road running shoes",
			Price:       64.50,
			Images:      []product.Image{{URL: "/static/img/shoes.jpg", Alt: "Running Shoes"}},
			Category:    "Sports",
			Brand:       "Stride",
			SKU:         "ST-RS-210",
			Stock:       25,
			Tags:        []string{"running", "footwear"},
		},
		{
			Name:        "French Press",
			Description: "8-cup borosilicate glass french press",
			Price:       29.00,
			Images:      []product.Image{{URL: "/static/img/frenchpress.jpg", Alt: "French Press"}},
			Category:    "Home",
			Brand:       "BrewCo",
			SKU:         "BC-FP-8",
			Stock:       60,
			Tags:        []string{"coffee", "kitchen"},
		},
		{
			Name:        "Mystery Novel",
			Description: "Bestselling detective fiction, paperback",
			Price:       12.99,
			Category:    "Books",
			Brand:       "Inkwell Press",
			SKU:         "IP-MN-33",
			Stock:       100,
			Tags:        []string{"fiction"},
		},
	}

	for _, p := range seed {
		if _, err := service.Create(p); err != nil {
			log.Printf("seed: could not create %q: %v", p.Name, err)
		}
	}
}
