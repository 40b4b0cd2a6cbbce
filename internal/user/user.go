package user

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        int      `json:"id"`
	Email     string   `json:"email"`
	Password  string   `json:"password,omitempty"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone,omitempty"`
	Address   *Address `json:"address,omitempty"`
	Role      string   `json:"role"`
	IsActive  bool     `json:"isActive"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// sanitizeUser strips the credential hash before a user leaves the API.
func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
