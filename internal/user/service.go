package user

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
)

const minPasswordLength = 6

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(page int, limit int, search string) ([]User, int, error) {
	return s.repo.List(page, limit, search)
}

func (s *Service) GetByID(id int) (User, error) {
	return s.repo.GetByID(id)
}

// Register creates an account with the credential hashed and the role forced
// to plain user; admins are promoted out of band.
func (s *Service) Register(u User) (User, error) {
	if len(u.Password) < minPasswordLength {
		return User{}, ErrPasswordTooShort
	}
	if _, err := s.repo.GetByEmail(u.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	u.Password = string(hashed)
	u.Role = RoleUser
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now
	return s.repo.Create(u)
}

// Authenticate never reveals whether the email or the password was wrong, and
// deactivated accounts fail the same way.
func (s *Service) Authenticate(email, password string) (User, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// ProfileUpdate is the allow-list of profile fields a user may change about
// themselves. Email, role and active flag are deliberately absent.
type ProfileUpdate struct {
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Phone     *string  `json:"phone"`
	Address   *Address `json:"address"`
}

func (s *Service) UpdateProfile(id int, update ProfileUpdate) (User, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return User{}, err
	}

	if update.FirstName != nil {
		existing.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		existing.LastName = *update.LastName
	}
	if update.Phone != nil {
		existing.Phone = *update.Phone
	}
	if update.Address != nil {
		existing.Address = update.Address
	}
	existing.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	return s.repo.Update(id, existing)
}

func (s *Service) ChangePassword(id int, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(id, string(hashed), time.Now().UTC().Format(time.RFC3339))
}

// Deactivate soft-deletes the account; the row stays for order history.
func (s *Service) Deactivate(id int) error {
	return s.repo.Deactivate(id, time.Now().UTC().Format(time.RFC3339))
}
