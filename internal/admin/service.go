package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"boutique/internal/notifications"
	"boutique/internal/users"
	"boutique/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

var ErrSelfRoleChange = errors.New("cannot change own role")

// SessionRevoker is implemented by auth.SessionRevoker.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID, reason string) error
}

type Service interface {
	ListUsers(ctx context.Context, query ListUsersQuery) (*UserListResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*users.PublicUser, error)
	ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role users.Role) (*users.PublicUser, error)
}

type service struct {
	users    users.Repository
	sessions SessionRevoker
	notifier notifications.Notifier
	log      *logger.Logger
}

func NewService(repo users.Repository, sessions SessionRevoker, notifier notifications.Notifier, log *logger.Logger) Service {
	return &service{
		users:    repo,
		sessions: sessions,
		notifier: notifier,
		log:      log,
	}
}

func (s *service) ListUsers(ctx context.Context, query ListUsersQuery) (*UserListResponse, error) {
	const op = "admin.service.ListUsers"

	if query.Page <= 0 {
		query.Page = defaultPage
	}
	if query.Limit <= 0 {
		query.Limit = defaultLimit
	}

	list, total, err := s.users.List(ctx, users.ListFilter{
		Role:   users.Role(query.Role),
		Offset: pageOffset(query.Page, query.Limit),
		Limit:  query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	public := make([]users.PublicUser, 0, len(list))
	for i := range list {
		public = append(public, list[i].Public())
	}

	return &UserListResponse{
		Users:      public,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages(total, query.Limit),
	}, nil
}

// pageOffset saturates instead of overflowing; a page past the end is empty.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func totalPages(total int64, limit int) int {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*users.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ChangeRole updates the role and ends the target's session so the new role
// only applies after a fresh login.
func (s *service) ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role users.Role) (*users.PublicUser, error) {
	const op = "admin.service.ChangeRole"

	if actorID == userID {
		return nil, ErrSelfRoleChange
	}
	if !users.IsValidRole(string(role)) {
		return nil, users.ErrInvalidRole
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Role

	if previous != role {
		if err := s.users.UpdateRole(ctx, userID, role); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.sessions.RevokeUser(ctx, userID, "role_changed"); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.Role = role
		s.log.LogRoleChanged(ctx, actorID.String(), userID.String(), string(previous), string(role))
		s.notifyRoleChanged(ctx, user)
	}

	public := user.Public()
	return &public, nil
}

func (s *service) notifyRoleChanged(ctx context.Context, user *users.User) {
	if s.notifier == nil || user.Email == nil {
		return
	}
	n := notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeRoleChanged).
		WithRecipient(user.ID, *user.Email, user.Name).
		WithData("role", string(user.Role)).
		Build()
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WarnContext(ctx, "failed to queue notification",
			slog.String("type", string(n.Type)),
			logger.Err(err),
		)
	}
}
