package product

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `product_id, name, description, price, images, category, brand, sku, stock, is_active, rating_average, rating_count, specifications, tags, created_at, updated_at`

	getProductByIDQuery = `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`

	insertProductQuery = `
		INSERT INTO products (name, description, price, images, category, brand, sku, stock, is_active, rating_average, rating_count, specifications, tags, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING product_id
	`

	updateProductQuery = `
		UPDATE products
		SET name = $1,
			description = $2,
			price = $3,
			images = $4,
			category = $5,
			brand = $6,
			sku = $7,
			stock = $8,
			is_active = $9,
			specifications = $10,
			tags = $11,
			updated_at = $12
		WHERE product_id = $13
	`

	deactivateProductQuery = `UPDATE products SET is_active = FALSE, updated_at = $1 WHERE product_id = $2`

	decrementStockQuery = `UPDATE products SET stock = stock - $2 WHERE product_id = $1 AND stock >= $2`

	restoreStockQuery = `UPDATE products SET stock = stock + $2 WHERE product_id = $1`
)

// sortColumns whitelists the sortable keys; anything else falls back to
// newest-first.
var sortColumns = map[string]string{
	"createdAt":  "created_at ASC",
	"-createdAt": "created_at DESC",
	"price":      "price ASC",
	"-price":     "price DESC",
	"name":       "name ASC",
	"-name":      "name DESC",
	"-rating":    "rating_average DESC",
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(f Filter) ([]Product, int, error) {
	f = f.withDefaults()

	where := []string{"is_active = TRUE"}
	args := []interface{}{}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%d))", n, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.queryRowRetry(`SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[f.Sort]
	if !ok {
		orderBy = sortColumns["-createdAt"]
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, cond, orderBy, len(args)-1, len(args))

	rows, err := r.queryRetry(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	p, err := scanProduct(r.queryRowRetry(getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	images, specs, err := marshalDetails(p)
	if err != nil {
		return Product{}, err
	}

	err = r.db.QueryRow(insertProductQuery,
		p.Name, p.Description, p.Price, images, p.Category, p.Brand, p.SKU,
		p.Stock, p.IsActive, p.Ratings.Average, p.Ratings.Count, specs,
		pq.Array(p.Tags), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(id int, p Product) (Product, error) {
	images, specs, err := marshalDetails(p)
	if err != nil {
		return Product{}, err
	}

	res, err := r.db.Exec(updateProductQuery,
		p.Name, p.Description, p.Price, images, p.Category, p.Brand, p.SKU,
		p.Stock, p.IsActive, specs, pq.Array(p.Tags), p.UpdatedAt, id,
	)
	if err != nil {
		return Product{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Product{}, ErrNotFound
	}
	p.ID = id
	return p, nil
}

func (r *PostgresRepository) Deactivate(id int, updatedAt string) error {
	res, err := r.db.Exec(deactivateProductQuery, updatedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock relies on a conditional UPDATE so concurrent checkouts can
// never drive stock negative; when the guard fails the current product row is
// read back to report what was still available.
func (r *PostgresRepository) DecrementStock(id int, qty int) error {
	res, err := r.db.Exec(decrementStockQuery, id, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		p, err := r.GetByID(id)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ProductID: id, Name: p.Name, Available: p.Stock}
	}
	return nil
}

func (r *PostgresRepository) RestoreStock(id int, qty int) error {
	res, err := r.db.Exec(restoreStockQuery, id, qty)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryRetry retries an idempotent read once when the pooled connection turned
// out to be dead. Writes are never retried here.
func (r *PostgresRepository) queryRetry(query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil && errors.Is(err, driver.ErrBadConn) {
		rows, err = r.db.Query(query, args...)
	}
	return rows, err
}

func (r *PostgresRepository) queryRowRetry(query string, args ...interface{}) *sql.Row {
	row := r.db.QueryRow(query, args...)
	if row.Err() != nil && errors.Is(row.Err(), driver.ErrBadConn) {
		row = r.db.QueryRow(query, args...)
	}
	return row
}

func marshalDetails(p Product) ([]byte, []byte, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return nil, nil, err
	}
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return nil, nil, err
	}
	return images, specs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p      Product
		images []byte
		specs  []byte
		brand  sql.NullString
		sku    sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &images,
		&p.Category, &brand, &sku, &p.Stock, &p.IsActive,
		&p.Ratings.Average, &p.Ratings.Count, &specs, pq.Array(&p.Tags),
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if brand.Valid {
		p.Brand = brand.String
	}
	if sku.Valid {
		p.SKU = sku.String
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return Product{}, err
		}
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			return Product{}, err
		}
	}
	return p, nil
}
