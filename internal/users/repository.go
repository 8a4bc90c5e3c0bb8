package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
	ErrInvalidRole   = errors.New("invalid role")
)

// postgres unique_violation
const uniqueViolation = "23505"

type ListFilter struct {
	Role   Role
	Offset int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int64, error)
	Count(ctx context.Context, role Role) (int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	const op = "users.repository.Create"

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateUser
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.first(ctx, "users.repository.GetByID", "id = ?", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, "users.repository.GetByEmail", "email = ?", NormalizeEmail(email))
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.first(ctx, "users.repository.GetByPhone", "phone = ?", NormalizePhone(phone))
}

func (r *repository) first(ctx context.Context, op, query string, arg interface{}) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]User, int64, error) {
	const op = "users.repository.List"

	query := r.db.WithContext(ctx).Model(&User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var list []User
	err := query.Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return list, total, nil
}

// Count counts users with the given role, or all users when role is empty.
func (r *repository) Count(ctx context.Context, role Role) (int64, error) {
	const op = "users.repository.Count"

	query := r.db.WithContext(ctx).Model(&User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(ctx, "users.repository.UpdatePassword", id, "password_hash", passwordHash)
}

func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	return r.update(ctx, "users.repository.UpdateRole", id, "role", role)
}

func (r *repository) update(ctx context.Context, op string, id uuid.UUID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update(column, value)

	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
