package users

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMemoryRepository_CreateAndLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user := &User{
		Email:        strPtr("marie@exemple.fr"),
		Phone:        strPtr("0612345678"),
		PasswordHash: "hash",
		Role:         RoleClient,
		Name:         "Marie",
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "  MARIE@exemple.fr ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byPhone, err := repo.GetByPhone(ctx, "06 12 34 56 78")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marie", byID.Name)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "absent@exemple.fr")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryRepository_Duplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &User{Email: strPtr("a@exemple.fr"), Phone: strPtr("0611111111"), Name: "A"}))

	err := repo.Create(ctx, &User{Email: strPtr("a@exemple.fr"), Name: "B"})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	err = repo.Create(ctx, &User{Phone: strPtr("0611111111"), Name: "C"})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	// users with neither value set never collide on it
	require.NoError(t, repo.Create(ctx, &User{Phone: strPtr("0622222222"), Name: "D"}))
	require.NoError(t, repo.Create(ctx, &User{Phone: strPtr("0633333333"), Name: "E"}))
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user := &User{Email: strPtr("copie@exemple.fr"), Name: "Copie"}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	*found.Email = "modifie@exemple.fr"
	found.Name = "Modifié"

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "copie@exemple.fr", *again.Email)
	assert.Equal(t, "Copie", again.Name)
}

func TestMemoryRepository_Updates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user := &User{Email: strPtr("maj@exemple.fr"), Role: RoleClient, PasswordHash: "old"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new"))
	require.NoError(t, repo.UpdateRole(ctx, user.ID, RoleAdmin))

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", found.PasswordHash)
	assert.Equal(t, RoleAdmin, found.Role)

	assert.ErrorIs(t, repo.UpdateRole(ctx, uuid.New(), RoleAdmin), ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "x"), ErrUserNotFound)
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		role := RoleClient
		if i%2 == 0 {
			role = RoleAdmin
		}
		require.NoError(t, repo.Create(ctx, &User{Email: strPtr(fmt.Sprintf("u%d@exemple.fr", i)), Role: role}))
	}

	all, total, err := repo.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, all, 2)

	admins, total, err := repo.List(ctx, ListFilter{Role: RoleAdmin, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, admins, 3)

	past, total, err := repo.List(ctx, ListFilter{Offset: 10, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, past)

	n, err := repo.Count(ctx, RoleClient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestMemoryRepository_ConcurrentCreate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, &User{Email: strPtr("meme@exemple.fr")})
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, ErrDuplicateUser)
		}
	}
	assert.Equal(t, 1, created)
}

func TestMemoryRepository_ListOutOfRange(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &User{Phone: strPtr("0611111111"), Name: "A"}))

	for _, filter := range []ListFilter{{Offset: -5, Limit: 10}, {Offset: 10, Limit: 10}, {Offset: 0, Limit: math.MaxInt}} {
		list, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.LessOrEqual(t, len(list), 1)
	}
}
