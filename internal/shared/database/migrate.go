package database

import (
	"boutique/internal/auth"
	"boutique/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&auth.RefreshToken{},
	)
}
