package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-backend/internal/domain"
)

// In-memory repositories back tests and database-less development runs.
// Stored entities are copied on the way in and out so callers never share state.

type InMemoryAccountRepository struct {
	accounts map[uuid.UUID]domain.Account
	mu       sync.RWMutex
}

func NewInMemoryAccountRepository() *InMemoryAccountRepository {
	return &InMemoryAccountRepository{accounts: make(map[uuid.UUID]domain.Account)}
}

func (r *InMemoryAccountRepository) conflicts(a *domain.Account) bool {
	for id, other := range r.accounts {
		if id == a.ID {
			continue
		}
		if strings.EqualFold(other.Username, a.Username) {
			return true
		}
		if a.Email != nil && other.Email != nil && strings.EqualFold(*other.Email, *a.Email) {
			return true
		}
	}
	return false
}

func (r *InMemoryAccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; ok || r.conflicts(a) {
		return domain.ErrConflict
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *InMemoryAccountRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.NotFound("account")
	}
	return &a, nil
}

func (r *InMemoryAccountRepository) find(match func(domain.Account) bool) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if match(a) {
			return &a, nil
		}
	}
	return nil, domain.NotFound("account")
}

func (r *InMemoryAccountRepository) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return strings.EqualFold(a.Username, username) })
}

func (r *InMemoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.Email != nil && strings.EqualFold(*a.Email, email) })
}

func (r *InMemoryAccountRepository) GetByResetToken(_ context.Context, token string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.ResetToken != nil && *a.ResetToken == token })
}

func (r *InMemoryAccountRepository) List(_ context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryAccountRepository) Update(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return domain.NotFound("account")
	}
	if r.conflicts(a) {
		return domain.ErrConflict
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *InMemoryAccountRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return domain.NotFound("account")
	}
	delete(r.accounts, id)
	return nil
}

type InMemoryChannelRepository struct {
	channels map[uuid.UUID]domain.Channel
	mu       sync.RWMutex
}

func NewInMemoryChannelRepository() *InMemoryChannelRepository {
	return &InMemoryChannelRepository{channels: make(map[uuid.UUID]domain.Channel)}
}

func (r *InMemoryChannelRepository) telegramIDTaken(c *domain.Channel) bool {
	for id, other := range r.channels {
		if id != c.ID && other.TelegramChannelID == c.TelegramChannelID {
			return true
		}
	}
	return false
}

func (r *InMemoryChannelRepository) Create(_ context.Context, c *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[c.ID]; ok || r.telegramIDTaken(c) {
		return domain.ErrConflict
	}
	r.channels[c.ID] = *c
	return nil
}

func (r *InMemoryChannelRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.channels[id]
	if !ok {
		return nil, domain.NotFound("channel")
	}
	return &c, nil
}

func (r *InMemoryChannelRepository) List(_ context.Context, f domain.ChannelFilter) ([]*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Channel, 0)
	for _, c := range r.channels {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.AccountID != nil && (c.AccountID == nil || *c.AccountID != *f.AccountID) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryChannelRepository) Update(_ context.Context, c *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[c.ID]; !ok {
		return domain.NotFound("channel")
	}
	if r.telegramIDTaken(c) {
		return domain.ErrConflict
	}
	r.channels[c.ID] = *c
	return nil
}

func (r *InMemoryChannelRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[id]; !ok {
		return domain.NotFound("channel")
	}
	delete(r.channels, id)
	return nil
}

func (r *InMemoryChannelRepository) AddSignals(_ context.Context, id uuid.UUID, delta int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[id]
	if !ok {
		return domain.NotFound("channel")
	}
	c.SignalCount = max(c.SignalCount+delta, 0)
	if delta > 0 {
		c.LastActiveAt = &at
	}
	c.UpdatedAt = at
	r.channels[id] = c
	return nil
}

func (r *InMemoryChannelRepository) OrphanByAccount(_ context.Context, accountID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.channels {
		if c.AccountID == nil || *c.AccountID != accountID {
			continue
		}
		c.AccountID = nil
		c.Status = domain.ChannelOrphan
		c.UpdatedAt = at
		r.channels[id] = c
	}
	return nil
}

type InMemoryTemplateRepository struct {
	templates map[uuid.UUID]domain.Template
	history   []domain.ExtractionHistory
	mu        sync.RWMutex
}

func NewInMemoryTemplateRepository() *InMemoryTemplateRepository {
	return &InMemoryTemplateRepository{templates: make(map[uuid.UUID]domain.Template)}
}

func cloneTemplate(t domain.Template) domain.Template {
	t.Config.Fields = append([]domain.FieldRule(nil), t.Config.Fields...)
	return t
}

func (r *InMemoryTemplateRepository) Create(_ context.Context, t *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; ok {
		return domain.ErrConflict
	}
	r.templates[t.ID] = cloneTemplate(*t)
	return nil
}

func (r *InMemoryTemplateRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, domain.NotFound("template")
	}
	t = cloneTemplate(t)
	return &t, nil
}

func (r *InMemoryTemplateRepository) ListByChannel(_ context.Context, channelID uuid.UUID, activeOnly bool) ([]*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Template, 0)
	for _, t := range r.templates {
		if t.ChannelID != channelID || (activeOnly && !t.IsActive) {
			continue
		}
		t = cloneTemplate(t)
		out = append(out, &t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryTemplateRepository) Update(_ context.Context, t *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return domain.NotFound("template")
	}
	r.templates[t.ID] = cloneTemplate(*t)
	return nil
}

func (r *InMemoryTemplateRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return domain.NotFound("template")
	}
	delete(r.templates, id)
	kept := r.history[:0]
	for _, h := range r.history {
		if h.TemplateID != id {
			kept = append(kept, h)
		}
	}
	r.history = kept
	return nil
}

func (r *InMemoryTemplateRepository) RecordExtraction(_ context.Context, h *domain.ExtractionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[h.TemplateID]
	if !ok {
		return domain.NotFound("template")
	}
	t.RecordAttempt(h.WasSuccessful, h.CreatedAt)
	r.templates[t.ID] = t
	r.history = append(r.history, *h)
	return nil
}

func (r *InMemoryTemplateRepository) ListHistory(_ context.Context, templateID uuid.UUID, limit int) ([]*domain.ExtractionHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.ExtractionHistory, 0)
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].TemplateID != templateID {
			continue
		}
		h := r.history[i]
		out = append(out, &h)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type InMemorySignalRepository struct {
	signals map[uuid.UUID]domain.Signal
	mu      sync.RWMutex
}

func NewInMemorySignalRepository() *InMemorySignalRepository {
	return &InMemorySignalRepository{signals: make(map[uuid.UUID]domain.Signal)}
}

func (r *InMemorySignalRepository) Create(_ context.Context, s *domain.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.signals[s.ID]; ok {
		return domain.ErrConflict
	}
	r.signals[s.ID] = *s
	return nil
}

func (r *InMemorySignalRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.signals[id]
	if !ok {
		return nil, domain.NotFound("signal")
	}
	return &s, nil
}

func (r *InMemorySignalRepository) list(match func(domain.Signal) bool, limit, offset int) []*domain.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.Signal, 0)
	for _, s := range r.signals {
		if match(s) {
			s := s
			all = append(all, &s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return page(all, limit, offset)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *InMemorySignalRepository) ListByChannel(_ context.Context, channelID uuid.UUID, f domain.SignalFilter) ([]*domain.Signal, error) {
	return r.list(func(s domain.Signal) bool {
		if s.ChannelID != channelID {
			return false
		}
		if f.Symbol != "" && !strings.EqualFold(s.Symbol, f.Symbol) {
			return false
		}
		if f.SignalType != "" && !strings.EqualFold(string(s.SignalType), f.SignalType) {
			return false
		}
		if f.PerformanceOutcome != "" && !strings.EqualFold(s.PerformanceOutcome, f.PerformanceOutcome) {
			return false
		}
		return true
	}, f.Limit, f.Offset), nil
}

func (r *InMemorySignalRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*domain.Signal, error) {
	return r.list(func(s domain.Signal) bool { return s.UserID == userID }, limit, offset), nil
}

func (r *InMemorySignalRepository) Update(_ context.Context, s *domain.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.signals[s.ID]; !ok {
		return domain.NotFound("signal")
	}
	r.signals[s.ID] = *s
	return nil
}

func (r *InMemorySignalRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.signals[id]; !ok {
		return domain.NotFound("signal")
	}
	delete(r.signals, id)
	return nil
}

// compile-time checks
var (
	_ domain.AccountRepository  = (*InMemoryAccountRepository)(nil)
	_ domain.ChannelRepository  = (*InMemoryChannelRepository)(nil)
	_ domain.TemplateRepository = (*InMemoryTemplateRepository)(nil)
	_ domain.SignalRepository   = (*InMemorySignalRepository)(nil)
)
