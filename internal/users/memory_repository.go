package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository keeps users in process memory. Contents are lost on restart.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
	now   func() time.Time
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		users: make(map[uuid.UUID]User),
		now:   time.Now,
	}
}

func (r *memoryRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if sameValue(existing.Email, user.Email) || sameValue(existing.Phone, user.Phone) {
			return ErrDuplicateUser
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = clone(*user)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := clone(user)
	return &found, nil
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	return r.find(func(u User) bool { return u.Email != nil && *u.Email == email })
}

func (r *memoryRepository) GetByPhone(_ context.Context, phone string) (*User, error) {
	phone = NormalizePhone(phone)
	return r.find(func(u User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (r *memoryRepository) find(match func(User) bool) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			found := clone(user)
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryRepository) List(_ context.Context, filter ListFilter) ([]User, int64, error) {
	r.mu.RLock()
	matched := make([]User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role == "" || user.Role == filter.Role {
			matched = append(matched, clone(user))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := max(0, min(filter.Offset, len(matched)))
	end := len(matched)
	if filter.Limit > 0 && filter.Limit < end-start {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *memoryRepository) Count(_ context.Context, role Role) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, user := range r.users {
		if role == "" || user.Role == role {
			total++
		}
	}
	return total, nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(id, func(u *User) { u.PasswordHash = passwordHash })
}

func (r *memoryRepository) UpdateRole(_ context.Context, id uuid.UUID, role Role) error {
	return r.update(id, func(u *User) { u.Role = role })
}

func (r *memoryRepository) update(id uuid.UUID, apply func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	apply(&user)
	user.UpdatedAt = r.now().UTC()
	r.users[id] = user
	return nil
}

func sameValue(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

// clone copies the pointer fields so callers never share state with the map.
func clone(u User) User {
	if u.Email != nil {
		email := *u.Email
		u.Email = &email
	}
	if u.Phone != nil {
		phone := *u.Phone
		u.Phone = &phone
	}
	return u
}
