package order

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/product"
)

const (
	taxRate          = 0.08
	freeShippingOver = 100.0
	flatShippingFee  = 10.0
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingAddress    = errors.New("shipping address is incomplete")
)

// CartEngine is the slice of the cart engine checkout needs.
type CartEngine interface {
	Get(userID int) (cart.Cart, error)
	Clear(userID int) error
}

// ProductStore gives checkout fresh product reads and the atomic stock
// operations.
type ProductStore interface {
	GetByID(id int) (product.Product, error)
	DecrementStock(id int, qty int) error
	RestoreStock(id int, qty int) error
}

// Service implements the order engine: converting a cart into an immutable
// order while adjusting inventory.
type Service struct {
	repo     Repository
	carts    CartEngine
	products ProductStore
}

func NewService(repo Repository, carts CartEngine, products ProductStore) *Service {
	return &Service{repo: repo, carts: carts, products: products}
}

// Place converts the user's cart into an order.
//
// Validation happens before any write. The writes are ordered so that the
// order record exists before any stock is taken, and stock is taken before
// the cart is cleared: a crash mid-sequence never loses a placed order, and
// a decremented-but-uncleared cart is detectable from the pending order. If a
// concurrent checkout wins a stock race the decrements taken so far are
// restored, the fresh order is cancelled and the placement fails as a whole.
func (s *Service) Place(userID int, addr Address) (Order, error) {
	if addr.Street == "" || addr.City == "" || addr.ZipCode == "" || addr.Country == "" {
		return Order{}, ErrMissingAddress
	}

	crt, err := s.carts.Get(userID)
	if err != nil {
		return Order{}, err
	}
	if len(crt.Items) == 0 {
		return Order{}, ErrEmptyCart
	}

	// Stock may have moved since the items were added; re-check every line
	// against a fresh read.
	for _, it := range crt.Items {
		p, err := s.products.GetByID(it.ProductID)
		if err != nil {
			return Order{}, &product.InsufficientStockError{ProductID: it.ProductID, Name: it.Name, Available: 0}
		}
		if it.Quantity > p.Stock {
			return Order{}, &product.InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock}
		}
	}

	subtotal := crt.Total
	tax := round2(subtotal * taxRate)
	shipping := flatShippingFee
	if subtotal > freeShippingOver {
		shipping = 0
	}
	total := round2(subtotal + tax + shipping)

	now := time.Now().UTC().Format(time.RFC3339)
	ord := Order{
		Number:          newOrderNumber(),
		UserID:          userID,
		ShippingAddress: addr,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shipping,
		Total:           total,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range crt.Items {
		ord.Items = append(ord.Items, Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}

	created, err := s.repo.Create(ord)
	if err != nil {
		return Order{}, err
	}

	for i, it := range crt.Items {
		if err := s.products.DecrementStock(it.ProductID, it.Quantity); err != nil {
			for j := 0; j < i; j++ {
				if rerr := s.products.RestoreStock(crt.Items[j].ProductID, crt.Items[j].Quantity); rerr != nil {
					log.Printf("warning: could not restore stock for product %d: %v", crt.Items[j].ProductID, rerr)
				}
			}
			if _, serr := s.repo.UpdateStatus(created.ID, StatusCancelled, time.Now().UTC().Format(time.RFC3339)); serr != nil {
				log.Printf("warning: could not cancel order %d after stock race: %v", created.ID, serr)
			}
			return Order{}, err
		}
	}

	if err := s.carts.Clear(userID); err != nil {
		// the order stands; a stale cart is recoverable, a lost order is not
		log.Printf("warning: could not clear cart for user %d after order %d: %v", userID, created.ID, err)
	}

	return created, nil
}

func (s *Service) GetByID(id int) (Order, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListByUser(userID int, page int, limit int) ([]Order, int, error) {
	return s.repo.ListByUser(userID, page, limit)
}

func (s *Service) ListAll(status string, page int, limit int) ([]Order, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.ListAll(status, page, limit)
}

// UpdateStatus moves an order along the status machine; arbitrary jumps are
// rejected even for admins.
func (s *Service) UpdateStatus(id int, status string) (Order, error) {
	if !ValidStatus(status) {
		return Order{}, ErrInvalidStatus
	}

	ord, err := s.repo.GetByID(id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(ord.Status, status) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.Status, status)
	}

	return s.repo.UpdateStatus(id, status, time.Now().UTC().Format(time.RFC3339))
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
