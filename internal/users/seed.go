package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DemoAccount is one account created by SeedDemoUsers.
type DemoAccount struct {
	Name  string
	Email string
	Phone string
	Role  Role
}

// DemoAccounts covers one account per role.
var DemoAccounts = []DemoAccount{
	{Name: "Camille Martin", Email: "client@boutique.fr", Phone: "0612345678", Role: RoleClient},
	{Name: "Louis Bernard", Email: "admin@boutique.fr", Role: RoleAdmin},
	{Name: "Claire Dubois", Email: "superadmin@boutique.fr", Role: RoleSuperAdmin},
}

// SeedDemoUsers creates the demo accounts that do not exist yet and returns
// how many were created.
func SeedDemoUsers(ctx context.Context, repo Repository, password string, cost int) (int, error) {
	const op = "users.SeedDemoUsers"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	created := 0
	for _, account := range DemoAccounts {
		_, err := repo.GetByEmail(ctx, account.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return created, fmt.Errorf("%s: %w", op, err)
		}

		email := account.Email
		user := &User{Name: account.Name, Email: &email, PasswordHash: string(hash), Role: account.Role}
		if account.Phone != "" {
			phone := account.Phone
			user.Phone = &phone
		}
		if err := repo.Create(ctx, user); err != nil {
			return created, fmt.Errorf("%s: %w", op, err)
		}
		created++
	}
	return created, nil
}
