package user

import (
	"database/sql"
	"encoding/json"
	"errors"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userColumns = `user_id, email, password, first_name, last_name, phone, address, role, is_active, created_at, updated_at`

	getUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	insertUserQuery = `
		INSERT INTO users (email, password, first_name, last_name, phone, address, role, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING user_id
	`

	updateUserQuery = `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, phone = $4, address = $5, updated_at = $6
		WHERE user_id = $7
	`

	updatePasswordQuery = `UPDATE users SET password = $1, updated_at = $2 WHERE user_id = $3`

	deactivateUserQuery = `UPDATE users SET is_active = FALSE, updated_at = $1 WHERE user_id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(page int, limit int, search string) ([]User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	cond := `TRUE`
	args := []interface{}{}
	if search != "" {
		args = append(args, "%"+search+"%")
		cond = `(email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)`
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond + ` ORDER BY user_id`
	if search != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByEmailQuery, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(u User) (User, error) {
	addr, err := marshalAddress(u.Address)
	if err != nil {
		return User{}, err
	}

	err = r.db.QueryRow(insertUserQuery,
		u.Email, u.Password, u.FirstName, u.LastName, u.Phone, addr,
		u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Update(id int, u User) (User, error) {
	addr, err := marshalAddress(u.Address)
	if err != nil {
		return User{}, err
	}

	res, err := r.db.Exec(updateUserQuery,
		u.Email, u.FirstName, u.LastName, u.Phone, addr, u.UpdatedAt, id)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrNotFound
	}
	u.ID = id
	return u, nil
}

func (r *PostgresRepository) UpdatePassword(id int, hash string, updatedAt string) error {
	res, err := r.db.Exec(updatePasswordQuery, hash, updatedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Deactivate(id int, updatedAt string) error {
	res, err := r.db.Exec(deactivateUserQuery, updatedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalAddress(addr *Address) ([]byte, error) {
	if addr == nil {
		return nil, nil
	}
	return json.Marshal(addr)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u     User
		phone sql.NullString
		addr  []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&phone, &addr, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	if len(addr) > 0 {
		u.Address = new(Address)
		if err := json.Unmarshal(addr, u.Address); err != nil {
			return User{}, err
		}
	}
	return u, nil
}
