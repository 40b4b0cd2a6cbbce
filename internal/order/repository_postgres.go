package order

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `order_id, order_number, user_id, items, shipping_address, subtotal, tax, shipping, total, status, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (order_number, user_id, items, shipping_address, subtotal, tax, shipping, total, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING order_id
	`

	getOrderByIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	updateOrderStatusQuery = `UPDATE orders SET status = $1, updated_at = $2 WHERE order_id = $3`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ord Order) (Order, error) {
	items, err := json.Marshal(ord.Items)
	if err != nil {
		return Order{}, err
	}
	addr, err := json.Marshal(ord.ShippingAddress)
	if err != nil {
		return Order{}, err
	}

	err = r.db.QueryRow(insertOrderQuery,
		ord.Number, ord.UserID, items, addr,
		ord.Subtotal, ord.Tax, ord.Shipping, ord.Total,
		ord.Status, ord.CreatedAt, ord.UpdatedAt,
	).Scan(&ord.ID)
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(id int) (Order, error) {
	ord, err := scanOrder(r.db.QueryRow(getOrderByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) ListByUser(userID int, page int, limit int) ([]Order, int, error) {
	return r.list(`user_id = $1`, []interface{}{userID}, page, limit)
}

func (r *PostgresRepository) ListAll(status string, page int, limit int) ([]Order, int, error) {
	if status == "" {
		return r.list(`TRUE`, nil, page, limit)
	}
	return r.list(`status = $1`, []interface{}{status}, page, limit)
}

func (r *PostgresRepository) list(cond string, args []interface{}, page int, limit int) ([]Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY order_id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, cond, len(args)-1, len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ord)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(id int, status string, updatedAt string) (Order, error) {
	res, err := r.db.Exec(updateOrderStatusQuery, status, updatedAt, id)
	if err != nil {
		return Order{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Order{}, ErrNotFound
	}
	return r.GetByID(id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		ord   Order
		items []byte
		addr  []byte
	)
	err := row.Scan(&ord.ID, &ord.Number, &ord.UserID, &items, &addr,
		&ord.Subtotal, &ord.Tax, &ord.Shipping, &ord.Total,
		&ord.Status, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &ord.Items); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(addr, &ord.ShippingAddress); err != nil {
		return Order{}, err
	}
	return ord, nil
}
