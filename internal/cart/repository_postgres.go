package cart

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	getCartQuery = `SELECT cart_id, items, total, version, updated_at FROM carts WHERE user_id = $1`

	createCartQuery = `
		INSERT INTO carts (user_id, items, total, version, updated_at)
		VALUES ($1, '[]', 0, 1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	saveCartQuery = `
		UPDATE carts
		SET items = $1, total = $2, version = version + 1, updated_at = $3
		WHERE user_id = $4 AND version = $5
	`

	clearCartQuery = `
		UPDATE carts
		SET items = '[]', total = 0, version = version + 1, updated_at = $1
		WHERE user_id = $2
	`
)

// storedItem is the persisted shape of a cart line. Display fields looked up
// from the live product never reach the table.
type storedItem struct {
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(userID int) (Cart, error) {
	var (
		c   Cart
		raw []byte
	)
	c.UserID = userID
	err := r.db.QueryRow(getCartQuery, userID).Scan(&c.ID, &raw, &c.Total, &c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}

	var stored []storedItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Cart{}, err
	}
	c.Items = make([]Item, 0, len(stored))
	for _, it := range stored {
		c.Items = append(c.Items, Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return c, nil
}

func (r *PostgresRepository) Create(userID int, updatedAt string) (Cart, error) {
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if _, err := r.db.Exec(createCartQuery, userID, updatedAt); err != nil {
		return Cart{}, err
	}
	return r.Get(userID)
}

func (r *PostgresRepository) Save(c Cart) (Cart, error) {
	stored := make([]storedItem, 0, len(c.Items))
	for _, it := range c.Items {
		stored = append(stored, storedItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return Cart{}, err
	}

	if c.UpdatedAt == "" {
		c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := r.db.Exec(saveCartQuery, raw, c.Total, c.UpdatedAt, c.UserID, c.Version)
	if err != nil {
		return Cart{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Cart{}, err
	}
	if n == 0 {
		return Cart{}, ErrVersionConflict
	}
	c.Version++
	return c, nil
}

func (r *PostgresRepository) Clear(userID int, updatedAt string) error {
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.db.Exec(clearCartQuery, updatedAt, userID)
	return err
}
