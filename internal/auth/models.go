package auth

import (
	"time"

	"boutique/internal/users"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// RefreshToken is the single active refresh record of a user. Only the
// SHA-256 of the signed token is kept.
type RefreshToken struct {
	UserID    uuid.UUID `json:"user_id" gorm:"primaryKey;type:uuid"`
	TokenHash string    `json:"-" gorm:"size:64;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AccessClaims are carried by the access token. The refresh token only uses
// the registered claims.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session is what a successful login produces: the public user and the two
// signed tokens the controller puts in cookies.
type Session struct {
	User         users.PublicUser
	AccessToken  string
	RefreshToken string
}
