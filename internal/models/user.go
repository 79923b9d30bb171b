package models

type User struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Address      string       `json:"address"`
	Role         string       `json:"role"`
	Stores       []OwnedStore `json:"stores,omitempty"`
}

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleUser       UserRole = "user"
	RoleStoreOwner UserRole = "store_owner"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return true
	}
	return false
}

// ResolveSignupRole maps a self-service role request onto the role actually granted.
// Only store_owner may be requested; anything else, admin included, becomes user.
func ResolveSignupRole(requested string) UserRole {
	if UserRole(requested) == RoleStoreOwner {
		return RoleStoreOwner
	}
	return RoleUser
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=20,max=60"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=8,max=16,password_strength"`
	Address  string `json:"address" validate:"max=400"`
	Role     string `json:"role"`
}

type AddUserRequest struct {
	Name     string `json:"name" validate:"required,min=20,max=60"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=8,max=16,password_strength"`
	Address  string `json:"address" validate:"max=400"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	ID    int    `json:"id"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=16,password_strength"`
}

// UserFilter narrows the admin user listing. Empty fields are ignored.
type UserFilter struct {
	Name    string
	Email   string
	Address string
	Role    string
}
