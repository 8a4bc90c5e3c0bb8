package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenStore keeps at most one record per user; Save replaces it.
type RefreshTokenStore interface {
	Save(ctx context.Context, token *RefreshToken) error
	Get(ctx context.Context, userID uuid.UUID) (*RefreshToken, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type memoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]RefreshToken
}

func NewMemoryTokenStore() RefreshTokenStore {
	return &memoryTokenStore{tokens: make(map[uuid.UUID]RefreshToken)}
}

func (s *memoryTokenStore) Save(_ context.Context, token *RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	record := *token
	if prev, ok := s.tokens[token.UserID]; ok {
		record.CreatedAt = prev.CreatedAt
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.tokens[token.UserID] = record
	return nil
}

func (s *memoryTokenStore) Get(_ context.Context, userID uuid.UUID) (*RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.tokens[userID]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	return &record, nil
}

func (s *memoryTokenStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
	return nil
}

func (s *memoryTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, record := range s.tokens {
		if record.IsExpired(now) {
			delete(s.tokens, id)
			removed++
		}
	}
	return removed, nil
}
