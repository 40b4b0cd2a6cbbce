package order

// Order is an immutable record of a completed checkout. Only Status changes
// after creation, and only along the transitions below.
type Order struct {
	ID              int     `json:"id"`
	Number          string  `json:"orderNumber"`
	UserID          int     `json:"userId"`
	Items           []Item  `json:"items"`
	ShippingAddress Address `json:"shippingAddress"`
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	Shipping        float64 `json:"shipping"`
	Total           float64 `json:"total"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// Item snapshots a purchased line. The copied name, price and image must
// survive any later change to the product itself.
type Item struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to the
// next. Delivered and cancelled are terminal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
