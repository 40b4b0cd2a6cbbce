package user

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

type Repository interface {
	List(page int, limit int, search string) ([]User, int, error)
	GetByID(id int) (User, error)
	GetByEmail(email string) (User, error)
	Create(u User) (User, error)
	Update(id int, u User) (User, error)
	UpdatePassword(id int, hash string, updatedAt string) error
	Deactivate(id int, updatedAt string) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, u := range seed {
		repo.users = append(repo.users, u)
		if u.ID > maxID {
			maxID = u.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(page int, limit int, search string) ([]User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	r.mu.RLock()
	matched := make([]User, 0, len(r.users))
	needle := strings.ToLower(search)
	for _, u := range r.users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(strings.ToLower(u.FirstName), needle) &&
			!strings.Contains(strings.ToLower(u.LastName), needle) {
			continue
		}
		matched = append(matched, u)
	}
	r.mu.RUnlock()

	total := len(matched)
	skip := (page - 1) * limit
	if skip >= total {
		return []User{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return matched[skip:end], total, nil
}

func (r *InMemoryRepository) GetByID(id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryRepository) Update(id int, update User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			update.ID = id
			r.users[i] = update
			return update, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) UpdatePassword(id int, hash string, updatedAt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Password = hash
			if updatedAt != "" {
				r.users[i].UpdatedAt = updatedAt
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) Deactivate(id int, updatedAt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].IsActive = false
			if updatedAt != "" {
				r.users[i].UpdatedAt = updatedAt
			}
			return nil
		}
	}
	return ErrNotFound
}
