package product

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrInvalidInput wraps validation failures so handlers can map them to 400.
	ErrInvalidInput = errors.New("invalid input")
)

type Repository interface {
	List(f Filter) ([]Product, int, error)
	GetByID(id int) (Product, error)
	Create(p Product) (Product, error)
	Update(id int, p Product) (Product, error)
	Deactivate(id int, updatedAt string) error
	// DecrementStock takes qty units only if the product still has them,
	// returning *InsufficientStockError otherwise.
	DecrementStock(id int, qty int) error
	// RestoreStock gives units back after a checkout that could not complete.
	RestoreStock(id int, qty int) error
}

// InMemoryRepository is a mutex-guarded implementation used for tests and
// local scenarios. Its filtering mirrors the SQL in the Postgres repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
	}

	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) List(f Filter) ([]Product, int, error) {
	f = f.withDefaults()

	r.mu.RLock()
	matched := make([]Product, 0)
	for _, p := range r.storage {
		if matches(f, p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sortProducts(matched, f.Sort)

	total := len(matched)
	skip := (f.Page - 1) * f.Limit
	if skip >= total {
		return []Product{}, total, nil
	}
	end := skip + f.Limit
	if end > total {
		end = total
	}
	return matched[skip:end], total, nil
}

func matches(f Filter, p Product) bool {
	if !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(p.Description), needle) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	}
	return true
}

func sortProducts(products []Product, key string) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch key {
		case "price":
			return a.Price < b.Price
		case "-price":
			return a.Price > b.Price
		case "name":
			return a.Name < b.Name
		case "-name":
			return a.Name > b.Name
		case "-rating":
			return a.Ratings.Average > b.Ratings.Average
		case "createdAt":
			return a.CreatedAt < b.CreatedAt
		default: // -createdAt
			return a.CreatedAt > b.CreatedAt
		}
	})
}

func (r *InMemoryRepository) GetByID(id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			p.ID = id
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Deactivate(id int, updatedAt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].IsActive = false
			if updatedAt != "" {
				r.storage[i].UpdatedAt = updatedAt
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) DecrementStock(id int, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			if r.storage[i].Stock < qty {
				return &InsufficientStockError{
					ProductID: id,
					Name:      r.storage[i].Name,
					Available: r.storage[i].Stock,
				}
			}
			r.storage[i].Stock -= qty
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) RestoreStock(id int, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Stock += qty
			return nil
		}
	}
	return ErrNotFound
}
