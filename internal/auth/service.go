package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"boutique/internal/notifications"
	"boutique/internal/shared/constants"
	"boutique/internal/users"
	"boutique/pkg/cache"
	"boutique/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionExpired     = errors.New("session expired")
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*users.PublicUser, error)
	Login(ctx context.Context, req *LoginRequest) (*Session, error)
	// CurrentUser returns nil without error for anonymous callers.
	CurrentUser(ctx context.Context, accessToken string) (*users.PublicUser, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error
}

type ServiceDeps struct {
	Users    users.Repository
	Tokens   RefreshTokenStore
	JWT      *TokenManager
	Cache    cache.Service // nil when Redis is not configured
	Notifier notifications.Notifier
	Logger   *logger.Logger

	BcryptCost int
	ProfileTTL time.Duration
}

type service struct {
	users    users.Repository
	tokens   RefreshTokenStore
	jwt      *TokenManager
	cache    cache.Service
	notifier notifications.Notifier
	revoker  *SessionRevoker
	log      *logger.Logger

	cost       int
	profileTTL time.Duration
	dummyHash  []byte
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := deps.ProfileTTL
	if ttl <= 0 {
		ttl = constants.TTL_USER_PROFILE
	}
	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	// compared against when the identifier is unknown so both failures cost one bcrypt run
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("boutique-placeholder-password"), cost)

	return &service{
		users:      deps.Users,
		tokens:     deps.Tokens,
		jwt:        deps.JWT,
		cache:      deps.Cache,
		notifier:   deps.Notifier,
		revoker:    NewSessionRevoker(deps.Tokens, deps.Cache, log),
		log:        log,
		cost:       cost,
		profileTTL: ttl,
		dummyHash:  dummyHash,
		now:        time.Now,
	}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*users.PublicUser, error) {
	const op = "auth.service.Register"

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &users.User{
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
		Role:         users.RoleClient,
	}
	if email := users.NormalizeEmail(req.Email); email != "" {
		user.Email = &email
	}
	if phone := users.NormalizePhone(req.Phone); phone != "" {
		user.Phone = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateUser) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.LogUserRegistered(ctx, user.ID.String(), string(user.Role))
	if user.Email != nil {
		s.notify(ctx, notifications.NewNotificationBuilder().
			WithType(notifications.NotificationTypeWelcome).
			WithRecipient(user.ID, *user.Email, user.Name).
			Build())
	}

	public := user.Public()
	return &public, nil
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	const op = "auth.service.Login"

	user, err := s.findByIdentifier(ctx, req.Email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.LogAuthSuccess(ctx, user.ID.String(), "password")
	return session, nil
}

func (s *service) findByIdentifier(ctx context.Context, identifier string) (*users.User, error) {
	if users.IsEmailIdentifier(identifier) {
		return s.users.GetByEmail(ctx, identifier)
	}
	return s.users.GetByPhone(ctx, identifier)
}

// startSession issues both tokens and replaces the user's refresh record.
func (s *service) startSession(ctx context.Context, user *users.User) (*Session, error) {
	accessToken, err := s.jwt.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.jwt.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	err = s.tokens.Save(ctx, &RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *service) CurrentUser(ctx context.Context, accessToken string) (*users.PublicUser, error) {
	claims, err := s.jwt.ParseAccess(accessToken)
	if err != nil {
		return nil, nil
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil
	}

	profile, err := s.profile(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth.service.CurrentUser: %w", err)
	}
	return profile, nil
}

// profile is served from the cache when Redis is configured.
func (s *service) profile(ctx context.Context, userID uuid.UUID) (*users.PublicUser, error) {
	load := func() (interface{}, error) {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return user.Public(), nil
	}

	if s.cache == nil {
		data, err := load()
		if err != nil {
			return nil, err
		}
		profile := data.(users.PublicUser)
		return &profile, nil
	}

	var profile users.PublicUser
	if err := s.cache.GetOrSet(ctx, constants.BuildUserProfileKey(userID.String()), s.profileTTL, load, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	const op = "auth.service.Refresh"

	userID, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrSessionExpired
	}

	record, err := s.tokens.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !hashesEqual(record.TokenHash, HashToken(refreshToken)) || record.IsExpired(s.now()) {
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			_ = s.tokens.Delete(ctx, userID)
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := s.jwt.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// the refresh token itself is kept; only its cookie lifetime slides
	return &Session{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.service.Logout"

	userID, err := s.jwt.parseRefresh(refreshToken, true)
	if err != nil {
		return nil
	}

	record, err := s.tokens.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	// A token from an older login must not end the session that replaced it.
	if !hashesEqual(record.TokenHash, HashToken(refreshToken)) {
		return nil
	}
	return s.revoker.RevokeUser(ctx, userID, "logout")
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	const op = "auth.service.ChangePassword"

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.revoker.RevokeUser(ctx, userID, "password_changed"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Email != nil {
		s.notify(ctx, notifications.NewNotificationBuilder().
			WithType(notifications.NotificationTypePasswordChanged).
			WithRecipient(user.ID, *user.Email, user.Name).
			Build())
	}
	return nil
}

func (s *service) notify(ctx context.Context, n *notifications.EmailNotification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WarnContext(ctx, "failed to queue notification",
			slog.String("type", string(n.Type)),
			slog.String("user_id", n.RecipientID.String()),
			logger.Err(err),
		)
	}
}
