package product

import "fmt"

// Product maps to the `products` table. Images and specifications live in
// jsonb columns, tags in a text[] column; none of them are free-form
// documents, the shapes below are the only ones accepted at the boundary.
type Product struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Images         []Image  `json:"images"`
	Category       string   `json:"category"`
	Brand          string   `json:"brand,omitempty"`
	SKU            string   `json:"sku,omitempty"`
	Stock          int      `json:"stock"`
	IsActive       bool     `json:"isActive"`
	Ratings        Rating   `json:"ratings"`
	Specifications []Spec   `json:"specifications,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Rating is the review aggregate carried on the product itself.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Spec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllowedCategories contains the supported product categories.
var AllowedCategories = []string{
	"Electronics",
	"Clothing",
	"Home",
	"Sports",
	"Books",
	"Beauty",
	"Toys",
	"Automotive",
}

func ValidCategory(category string) bool {
	for _, c := range AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// FirstImageURL returns the url of the primary image, or "" when the product
// has none. Order snapshots use it for the line image.
func (p Product) FirstImageURL() string {
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// Filter describes the catalog listing query. Nil price bounds mean
// unbounded; zero Page/Limit fall back to defaults.
type Filter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Page     int
	Limit    int
	Sort     string
}

const (
	defaultLimit = 12
	maxLimit     = 100
)

func (f Filter) withDefaults() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Sort == "" {
		f.Sort = "-createdAt"
	}
	return f
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

// Page is one page of catalog results.
type Page struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Update is the explicit allow-list of mutable product fields. Anything not
// listed here cannot be changed through the API, whatever the request body
// contains.
type Update struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Price          *float64  `json:"price"`
	Images         *[]Image  `json:"images"`
	Category       *string   `json:"category"`
	Brand          *string   `json:"brand"`
	SKU            *string   `json:"sku"`
	Stock          *int      `json:"stock"`
	IsActive       *bool     `json:"isActive"`
	Specifications *[]Spec   `json:"specifications"`
	Tags           *[]string `json:"tags"`
}

// InsufficientStockError reports a quantity that exceeds the available stock
// of a product. It carries the product name so callers can surface which line
// failed.
type InsufficientStockError struct {
	ProductID int
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient stock for %s: only %d available", e.Name, e.Available)
	}
	return fmt.Sprintf("only %d items available in stock", e.Available)
}
