package product

import (
	"fmt"
	"math"
	"time"
)

// Service orchestrates catalog operations. Create and Update validate shape
// here instead of trusting whatever the request body carried.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(f Filter) (Page, error) {
	f = f.withDefaults()
	items, total, err := s.repo.List(f)
	if err != nil {
		return Page{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(f.Limit)))
	return Page{
		Products: items,
		Pagination: Pagination{
			CurrentPage:   f.Page,
			TotalPages:    totalPages,
			TotalProducts: total,
			HasNext:       f.Page*f.Limit < total,
			HasPrev:       f.Page > 1,
		},
	}, nil
}

// GetByID is the public read path, so soft-deleted products are reported as
// missing.
func (s *Service) GetByID(id int) (Product, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) Create(p Product) (Product, error) {
	p.IsActive = true
	if err := validate(p); err != nil {
		return Product{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(p)
}

// Update applies the allow-listed fields onto the stored product. Soft-deleted
// products stay reachable here so an admin can reactivate them.
func (s *Service) Update(id int, u Update) (Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return Product{}, err
	}

	if u.Name != nil {
		existing.Name = *u.Name
	}
	if u.Description != nil {
		existing.Description = *u.Description
	}
	if u.Price != nil {
		existing.Price = *u.Price
	}
	if u.Images != nil {
		existing.Images = *u.Images
	}
	if u.Category != nil {
		existing.Category = *u.Category
	}
	if u.Brand != nil {
		existing.Brand = *u.Brand
	}
	if u.SKU != nil {
		existing.SKU = *u.SKU
	}
	if u.Stock != nil {
		existing.Stock = *u.Stock
	}
	if u.IsActive != nil {
		existing.IsActive = *u.IsActive
	}
	if u.Specifications != nil {
		existing.Specifications = *u.Specifications
	}
	if u.Tags != nil {
		existing.Tags = *u.Tags
	}

	if err := validate(existing); err != nil {
		return Product{}, err
	}
	existing.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return s.repo.Update(id, existing)
}

func (s *Service) Deactivate(id int) error {
	return s.repo.Deactivate(id, time.Now().UTC().Format(time.RFC3339))
}

func (s *Service) DecrementStock(id int, qty int) error {
	return s.repo.DecrementStock(id, qty)
}

func (s *Service) RestoreStock(id int, qty int) error {
	return s.repo.RestoreStock(id, qty)
}

func validate(p Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if p.Description == "" {
		return fmt.Errorf("%w: product description is required", ErrInvalidInput)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	}
	if !ValidCategory(p.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, p.Category)
	}
	if p.Ratings.Average < 0 || p.Ratings.Average > 5 || p.Ratings.Count < 0 {
		return fmt.Errorf("%w: invalid rating aggregate", ErrInvalidInput)
	}
	return nil
}
