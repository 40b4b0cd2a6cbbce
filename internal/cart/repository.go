package cart

import (
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("cart not found")
	// ErrVersionConflict means another request saved the cart between our read
	// and our write; callers retry the whole read-modify-write.
	ErrVersionConflict = errors.New("cart was modified concurrently")
)

type Repository interface {
	Get(userID int) (Cart, error)
	Create(userID int, updatedAt string) (Cart, error)
	// Save persists items and total only if the version still matches, then
	// bumps it.
	Save(c Cart) (Cart, error)
	Clear(userID int, updatedAt string) error
}

// InMemoryRepository implements the same compare-and-swap contract as the
// Postgres repository, under a mutex, so concurrency behaviour is testable
// without a database.
type InMemoryRepository struct {
	mu     sync.Mutex
	carts  map[int]Cart
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]Cart), nextID: 1}
}

func (r *InMemoryRepository) Get(userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return copyCart(c), nil
}

func (r *InMemoryRepository) Create(userID int, updatedAt string) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[userID]; ok {
		return copyCart(c), nil
	}
	c := Cart{ID: r.nextID, UserID: userID, Items: []Item{}, Version: 1, UpdatedAt: updatedAt}
	r.nextID++
	r.carts[userID] = c
	return copyCart(c), nil
}

func (r *InMemoryRepository) Save(c Cart) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.carts[c.UserID]
	if !ok {
		return Cart{}, ErrNotFound
	}
	if existing.Version != c.Version {
		return Cart{}, ErrVersionConflict
	}
	c.ID = existing.ID
	c.Version++
	r.carts[c.UserID] = copyCart(c)
	return c, nil
}

func (r *InMemoryRepository) Clear(userID int, updatedAt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil
	}
	c.Items = []Item{}
	c.Total = 0
	c.Version++
	c.UpdatedAt = updatedAt
	r.carts[userID] = c
	return nil
}

func copyCart(c Cart) Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}
