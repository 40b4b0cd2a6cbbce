package user

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "email", "password", "first_name", "last_name", "phone",
		"address", "role", "is_active", "created_at", "updated_at",
	})
}

func TestPostgresGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM users WHERE lower").WithArgs("JO@example.com").
		WillReturnRows(userRows().AddRow(
			1, "jo@example.com", "hash", "Jo", "Smith", nil,
			[]byte(`{"street":"1 Main St","city":"Springfield","zipCode":"62701","country":"US"}`),
			RoleUser, true, "t", "u"))

	u, err := repo.GetByEmail("JO@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if u.Email != "jo@example.com" || u.Phone != "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.Address == nil || u.Address.City != "Springfield" {
		t.Fatalf("address not unmarshalled: %+v", u.Address)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM users WHERE user_id").WithArgs(99).WillReturnRows(userRows())

	if _, err := repo.GetByID(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jo@example.com", "hash", "Jo", "Smith", "", sqlmock.AnyArg(), RoleUser, true, "t", "t").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(4))

	u, err := repo.Create(User{
		Email: "jo@example.com", Password: "hash",
		FirstName: "Jo", LastName: "Smith",
		Role: RoleUser, IsActive: true,
		CreatedAt: "t", UpdatedAt: "t",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID != 4 {
		t.Fatalf("expected assigned id 4, got %d", u.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
