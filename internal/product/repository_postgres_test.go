package product

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"product_id", "name", "description", "price", "images", "category",
		"brand", "sku", "stock", "is_active", "rating_average", "rating_count",
		"specifications", "tags", "created_at", "updated_at",
	})
}

func addProductRow(rows *sqlmock.Rows, id int, name string, price float64, stock int) *sqlmock.Rows {
	return rows.AddRow(id, name, "d", price, []byte(`[]`), "Home",
		"BrandX", "SKU-1", stock, true, 0.0, 0, []byte(`[]`), "{}", "t", "u")
}

func TestPostgresDecrementStock_Conditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DecrementStock(1, 3); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDecrementStock_Insufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// the guard clause leaves the row untouched, then the current state is
	// read back for the error message
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(1, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM products WHERE product_id").WithArgs(1).
		WillReturnRows(addProductRow(productRows(), 1, "Mug", 8.00, 2))

	err = repo.DecrementStock(1, 5)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Name != "Mug" || stockErr.Available != 2 {
		t.Fatalf("unexpected error detail %+v", stockErr)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresList_SearchArguments(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT COUNT").WithArgs("%mug%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM products WHERE").WithArgs("%mug%", 12, 0).
		WillReturnRows(addProductRow(productRows(), 1, "Mug", 8.00, 50))

	products, total, err := repo.List(Filter{Search: "mug"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].Name != "Mug" {
		t.Fatalf("unexpected result total=%d products=%+v", total, products)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM products WHERE product_id").WithArgs(99).
		WillReturnRows(productRows())

	if _, err := repo.GetByID(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDeactivate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE products SET is_active = FALSE").
		WithArgs("t", 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Deactivate(99, "t"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
