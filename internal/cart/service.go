package cart

import (
	"errors"
	"math"
	"time"

	"storefront-backend/internal/product"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrProductNotFound = errors.New("product not found")
	// ErrConflict surfaces after every optimistic-concurrency retry lost its
	// race; the client can simply try again.
	ErrConflict = errors.New("cart is being modified concurrently, please retry")
)

// saveAttempts bounds the optimistic-concurrency retry loop around every
// cart mutation.
const saveAttempts = 5

// ProductReader is the slice of the catalog the cart engine needs: live
// product state for availability checks and display fields.
type ProductReader interface {
	GetByID(id int) (product.Product, error)
}

// Service implements the cart engine. The stored line price is authoritative
// for totals; the live product is authoritative for availability.
type Service struct {
	repo     Repository
	products ProductReader
}

func NewService(repo Repository, products ProductReader) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the user's cart, creating an empty one on first access. Lines
// whose product vanished or was deactivated are pruned from storage, and the
// total is recomputed from the stored line prices and persisted.
func (s *Service) Get(userID int) (Cart, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		c, err := s.loadOrCreate(userID)
		if err != nil {
			return Cart{}, err
		}

		c.Items, c.Total = s.refresh(c.Items)
		saved, err := s.repo.Save(c)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return Cart{}, err
		}
		// Save round-trips only the persisted fields; keep the populated ones.
		saved.Items = c.Items
		return saved, nil
	}
	return Cart{}, ErrConflict
}

// AddItem appends a line priced at the product's current price, or merges
// quantities when the product is already in the cart. The cumulative quantity
// is checked against live stock.
func (s *Service) AddItem(userID int, productID int, qty int) (Cart, error) {
	if qty < 1 {
		return Cart{}, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(productID)
	if err != nil || !p.IsActive {
		return Cart{}, ErrProductNotFound
	}

	for attempt := 0; attempt < saveAttempts; attempt++ {
		c, err := s.loadOrCreate(userID)
		if err != nil {
			return Cart{}, err
		}

		newQty := qty
		idx := c.findItem(productID)
		if idx >= 0 {
			newQty += c.Items[idx].Quantity
		}
		if newQty > p.Stock {
			return Cart{}, &product.InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock}
		}

		if idx >= 0 {
			c.Items[idx].Quantity = newQty
		} else {
			c.Items = append(c.Items, Item{ProductID: p.ID, Quantity: qty, Price: p.Price})
		}
		c.Total = lineTotal(c.Items)

		if _, err := s.repo.Save(c); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return Cart{}, err
		}
		return s.Get(userID)
	}
	return Cart{}, ErrConflict
}

// UpdateItem replaces a line's quantity. Quantity zero removes the line and
// is a no-op when the line is already gone.
func (s *Service) UpdateItem(userID int, productID int, qty int) (Cart, error) {
	if qty < 0 {
		return Cart{}, ErrInvalidQuantity
	}

	for attempt := 0; attempt < saveAttempts; attempt++ {
		c, err := s.repo.Get(userID)
		if err != nil {
			return Cart{}, err
		}

		idx := c.findItem(productID)
		if qty == 0 {
			if idx >= 0 {
				c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			}
		} else {
			if idx < 0 {
				return Cart{}, ErrItemNotFound
			}
			p, err := s.products.GetByID(productID)
			if err != nil || !p.IsActive {
				return Cart{}, ErrProductNotFound
			}
			if qty > p.Stock {
				return Cart{}, &product.InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock}
			}
			c.Items[idx].Quantity = qty
		}
		c.Total = lineTotal(c.Items)

		if _, err := s.repo.Save(c); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return Cart{}, err
		}
		return s.Get(userID)
	}
	return Cart{}, ErrConflict
}

// RemoveItem drops a line if present; removing an absent line is not an error.
func (s *Service) RemoveItem(userID int, productID int) (Cart, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		c, err := s.repo.Get(userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return s.Get(userID)
			}
			return Cart{}, err
		}

		idx := c.findItem(productID)
		if idx < 0 {
			return s.Get(userID)
		}
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		c.Total = lineTotal(c.Items)

		if _, err := s.repo.Save(c); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return Cart{}, err
		}
		return s.Get(userID)
	}
	return Cart{}, ErrConflict
}

// Clear empties the cart. The cart row survives; only items and total reset.
func (s *Service) Clear(userID int) error {
	return s.repo.Clear(userID, time.Now().UTC().Format(time.RFC3339))
}

func (s *Service) loadOrCreate(userID int) (Cart, error) {
	c, err := s.repo.Get(userID)
	if errors.Is(err, ErrNotFound) {
		return s.repo.Create(userID, time.Now().UTC().Format(time.RFC3339))
	}
	return c, err
}

// refresh prunes lines whose product is gone or inactive, fills display
// fields from the live product and recomputes the total from stored prices.
func (s *Service) refresh(items []Item) ([]Item, float64) {
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		p, err := s.products.GetByID(it.ProductID)
		if err != nil || !p.IsActive {
			continue
		}
		it.Name = p.Name
		it.Image = p.FirstImageURL()
		it.Stock = p.Stock
		kept = append(kept, it)
	}
	return kept, lineTotal(kept)
}

func lineTotal(items []Item) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
