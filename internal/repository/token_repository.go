package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"signal-backend/internal/domain"
)

// InMemoryTokenRepository manages device tokens for push notifications
type InMemoryTokenRepository struct {
	tokens map[string]domain.DeviceToken // token -> registration
	mu     sync.RWMutex
}

func NewInMemoryTokenRepository() *InMemoryTokenRepository {
	return &InMemoryTokenRepository{
		tokens: make(map[string]domain.DeviceToken),
	}
}

// Register adds a device token or moves it to another account.
func (r *InMemoryTokenRepository) Register(_ context.Context, token *domain.DeviceToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = *token
	return nil
}

func (r *InMemoryTokenRepository) Unregister(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *InMemoryTokenRepository) ListByAccount(_ context.Context, accountID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0)
	for token, dt := range r.tokens {
		if dt.AccountID == accountID {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

func (r *InMemoryTokenRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tokens), nil
}

var _ domain.TokenRepository = (*InMemoryTokenRepository)(nil)
