package cart

// Cart is the per-user staging area of intended purchases. Version backs the
// compare-and-swap in Repository.Save; it never leaves the API.
type Cart struct {
	ID        int     `json:"id"`
	UserID    int     `json:"userId"`
	Items     []Item  `json:"items"`
	Total     float64 `json:"total"`
	Version   int     `json:"-"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// Item keeps the unit price captured when the product was added, so a later
// price change does not silently alter the line. Name, Image and Stock are
// filled from the live product on reads and are not persisted.
type Item struct {
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name,omitempty"`
	Image     string  `json:"image,omitempty"`
	Stock     int     `json:"stock,omitempty"`
}

func (c Cart) findItem(productID int) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
