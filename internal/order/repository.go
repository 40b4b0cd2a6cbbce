package order

import (
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	Create(ord Order) (Order, error)
	GetByID(id int) (Order, error)
	// ListByUser returns one page of a user's orders, newest first, plus the
	// total count.
	ListByUser(userID int, page int, limit int) ([]Order, int, error)
	// ListAll is the admin view; status filters when non-empty.
	ListAll(status string, page int, limit int) ([]Order, int, error)
	UpdateStatus(id int, status string, updatedAt string) (Order, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	orders []Order
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) Create(ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord.ID = r.nextID
	r.nextID++
	r.orders = append(r.orders, copyOrder(ord))
	return ord, nil
}

func (r *InMemoryRepository) GetByID(id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ord := range r.orders {
		if ord.ID == id {
			return copyOrder(ord), nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(userID int, page int, limit int) ([]Order, int, error) {
	return r.list(func(o Order) bool { return o.UserID == userID }, page, limit)
}

func (r *InMemoryRepository) ListAll(status string, page int, limit int) ([]Order, int, error) {
	return r.list(func(o Order) bool { return status == "" || o.Status == status }, page, limit)
}

func (r *InMemoryRepository) list(keep func(Order) bool, page int, limit int) ([]Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	r.mu.RLock()
	matched := make([]Order, 0)
	for _, ord := range r.orders {
		if keep(ord) {
			matched = append(matched, copyOrder(ord))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	skip := (page - 1) * limit
	if skip >= total {
		return []Order{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return matched[skip:end], total, nil
}

func (r *InMemoryRepository) UpdateStatus(id int, status string, updatedAt string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].Status = status
			if updatedAt != "" {
				r.orders[i].UpdatedAt = updatedAt
			}
			return copyOrder(r.orders[i]), nil
		}
	}
	return Order{}, ErrNotFound
}

func copyOrder(ord Order) Order {
	items := make([]Item, len(ord.Items))
	copy(items, ord.Items)
	ord.Items = items
	return ord
}
