package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email        *string   `json:"email,omitempty" gorm:"uniqueIndex"`
	Phone        *string   `json:"phone,omitempty" gorm:"uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"not null"` // hide in json
	Role         Role      `json:"role" gorm:"type:varchar(20);not null;default:'client';index"`
	Name         string    `json:"name" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the only user shape that leaves the server.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID.String(),
		Email:     u.Email,
		Phone:     u.Phone,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Contact returns the email if set, otherwise the phone.
func (u *User) Contact() string {
	if u.Email != nil {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleClient, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func ParseRole(role string) (Role, error) {
	if !IsValidRole(role) {
		return "", ErrInvalidRole
	}
	return Role(role), nil
}

// IsStaff reports whether the role can reach the back office.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
