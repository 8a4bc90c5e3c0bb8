package auth

import (
	"context"
	"fmt"

	"boutique/internal/shared/constants"
	"boutique/pkg/cache"
	"boutique/pkg/logger"

	"github.com/google/uuid"
)

// SessionRevoker ends a user's session from outside the auth flow. The
// admin package depends on it through a small interface so it never
// imports the token store.
type SessionRevoker struct {
	tokens RefreshTokenStore
	cache  cache.Service
	log    *logger.Logger
}

func NewSessionRevoker(tokens RefreshTokenStore, cache cache.Service, log *logger.Logger) *SessionRevoker {
	return &SessionRevoker{
		tokens: tokens,
		cache:  cache,
		log:    log,
	}
}

// RevokeUser deletes the stored refresh record and the cached profile. The
// user's access token stays valid until it expires.
func (r *SessionRevoker) RevokeUser(ctx context.Context, userID uuid.UUID, reason string) error {
	if err := r.tokens.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke session of %s: %w", userID, err)
	}
	r.InvalidateProfile(ctx, userID)
	r.log.LogSessionRevoked(ctx, userID.String(), reason)
	return nil
}

func (r *SessionRevoker) InvalidateProfile(ctx context.Context, userID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, constants.BuildUserProfileKey(userID.String())); err != nil {
		r.log.WarnContext(ctx, "failed to invalidate profile cache", logger.Err(err))
	}
}
