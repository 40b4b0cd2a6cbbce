package cart

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresGet_RoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{"cart_id", "items", "total", "version", "updated_at"}).
		AddRow(3, []byte(`[{"productId":1,"quantity":2,"price":8}]`), 16.0, 4, "2026-08-27T10:00:00Z")
	mock.ExpectQuery("SELECT cart_id, items, total, version, updated_at FROM carts").
		WithArgs(7).WillReturnRows(rows)

	c, err := repo.Get(7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.ID != 3 || c.UserID != 7 || c.Version != 4 {
		t.Fatalf("unexpected cart %+v", c)
	}
	if len(c.Items) != 1 || c.Items[0].ProductID != 1 || c.Items[0].Price != 8 {
		t.Fatalf("unexpected items %+v", c.Items)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT cart_id").WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "items", "total", "version", "updated_at"}))

	if _, err := repo.Get(9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresSave_VersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// the guarded UPDATE touches no row when the version moved underneath us
	mock.ExpectExec("UPDATE carts").
		WithArgs(sqlmock.AnyArg(), 16.0, sqlmock.AnyArg(), 7, 4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c := Cart{UserID: 7, Version: 4, Total: 16.0, Items: []Item{{ProductID: 1, Quantity: 2, Price: 8}}}
	if _, err := repo.Save(c); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSave_BumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE carts").
		WithArgs(sqlmock.AnyArg(), 16.0, sqlmock.AnyArg(), 7, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := repo.Save(Cart{UserID: 7, Version: 4, Total: 16.0, UpdatedAt: "2026-08-27T10:00:00Z"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.Version != 5 {
		t.Fatalf("expected version 5 after save, got %d", saved.Version)
	}
}
