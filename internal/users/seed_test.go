package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedDemoUsers(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := SeedDemoUsers(ctx, repo, "motdepasse123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	for _, role := range []Role{RoleClient, RoleAdmin, RoleSuperAdmin} {
		n, err := repo.Count(ctx, role)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, role)
	}

	admin, err := repo.GetByEmail(ctx, "admin@boutique.fr")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("motdepasse123")))

	created, err = SeedDemoUsers(ctx, repo, "motdepasse123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Zero(t, created)

	total, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
