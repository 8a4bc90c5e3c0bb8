package database

import (
	"gorm.io/gorm"
)

// PostgreSQL has no ADD CONSTRAINT IF NOT EXISTS, hence the DO blocks.
var constraints = []string{
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'users_contact_present') THEN
			ALTER TABLE users ADD CONSTRAINT users_contact_present
			CHECK (email IS NOT NULL OR phone IS NOT NULL);
		END IF;
	END $$;`,

	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'users_role_known') THEN
			ALTER TABLE users ADD CONSTRAINT users_role_known
			CHECK (role IN ('client', 'admin', 'superadmin'));
		END IF;
	END $$;`,

	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens (expires_at);`,
}

// MigrateConstraints adds the checks AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
