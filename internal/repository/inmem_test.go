package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"signal-backend/internal/domain"
)

func TestInMemoryAccountUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryAccountRepository()
	email := "a@example.com"
	if err := repo.Create(ctx, &domain.Account{ID: domain.NewID(), Username: "alice", Email: &email}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err := repo.Create(ctx, &domain.Account{ID: domain.NewID(), Username: "ALICE"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected username conflict, got %v", err)
	}
	other := "A@example.com"
	err = repo.Create(ctx, &domain.Account{ID: domain.NewID(), Username: "bob", Email: &other})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "Alice"); err != nil {
		t.Fatalf("expected case-insensitive lookup, got %v", err)
	}
	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInMemoryChannelCountersAndOrphans(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryChannelRepository()
	owner := domain.NewID()
	ch := &domain.Channel{ID: domain.NewID(), AccountID: &owner, Name: "gold", TelegramChannelID: "-100", Status: domain.ChannelActive}
	if err := repo.Create(ctx, ch); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	dup := &domain.Channel{ID: domain.NewID(), Name: "copy", TelegramChannelID: "-100"}
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected telegram id conflict, got %v", err)
	}

	now := time.Now()
	_ = repo.AddSignals(ctx, ch.ID, 1, now)
	_ = repo.AddSignals(ctx, ch.ID, -1, now)
	_ = repo.AddSignals(ctx, ch.ID, -1, now)
	got, _ := repo.GetByID(ctx, ch.ID)
	if got.SignalCount != 0 {
		t.Fatalf("expected count floored at 0, got %d", got.SignalCount)
	}
	if got.LastActiveAt == nil {
		t.Fatal("expected last_active_at to be set")
	}

	if err := repo.OrphanByAccount(ctx, owner, now); err != nil {
		t.Fatalf("OrphanByAccount returned error: %v", err)
	}
	orphans, _ := repo.List(ctx, domain.ChannelFilter{Status: domain.ChannelOrphan})
	if len(orphans) != 1 || orphans[0].AccountID != nil {
		t.Fatalf("expected one detached orphan, got %+v", orphans)
	}
}

func TestInMemoryTemplateOrderingAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTemplateRepository()
	channel := domain.NewID()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &domain.Template{ID: domain.NewID(), ChannelID: channel, IsActive: true, CreatedAt: base}
	newer := &domain.Template{ID: domain.NewID(), ChannelID: channel, IsActive: true, CreatedAt: base.Add(time.Hour)}
	inactive := &domain.Template{ID: domain.NewID(), ChannelID: channel, IsActive: false, CreatedAt: base.Add(2 * time.Hour)}
	for _, tpl := range []*domain.Template{older, newer, inactive} {
		if err := repo.Create(ctx, tpl); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	active, _ := repo.ListByChannel(ctx, channel, true)
	if len(active) != 2 || active[0].ID != newer.ID || active[1].ID != older.ID {
		t.Fatalf("expected newest active first, got %v", active)
	}

	at := base.Add(3 * time.Hour)
	_ = repo.RecordExtraction(ctx, &domain.ExtractionHistory{ID: domain.NewID(), TemplateID: newer.ID, WasSuccessful: false, CreatedAt: at})
	_ = repo.RecordExtraction(ctx, &domain.ExtractionHistory{ID: domain.NewID(), TemplateID: newer.ID, WasSuccessful: true, CreatedAt: at})
	_ = repo.RecordExtraction(ctx, &domain.ExtractionHistory{ID: domain.NewID(), TemplateID: newer.ID, WasSuccessful: true, CreatedAt: at})

	got, _ := repo.GetByID(ctx, newer.ID)
	if got.ExtractionAttempts != 3 || got.ExtractionSuccesses != 2 || got.ExtractionSuccessRate != 66 {
		t.Fatalf("unexpected counters %+v", got)
	}
	if got.LastUsedAt == nil || !got.LastUsedAt.Equal(at) {
		t.Fatalf("expected last_used_at %v, got %v", at, got.LastUsedAt)
	}
	history, _ := repo.ListHistory(ctx, newer.ID, 2)
	if len(history) != 2 || !history[0].WasSuccessful {
		t.Fatalf("expected 2 newest history rows, got %+v", history)
	}
}

func TestInMemorySignalFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemorySignalRepository()
	channel := domain.NewID()
	base := time.Now()
	for i, sym := range []string{"XAUUSD", "EURUSD", "XAUUSD", "XAUUSD"} {
		s := &domain.Signal{
			ID: domain.NewID(), ChannelID: channel, UserID: "u1", Symbol: sym,
			SignalType: domain.SignalBuy, PerformanceOutcome: domain.OutcomePending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	gold, _ := repo.ListByChannel(ctx, channel, domain.SignalFilter{Symbol: "xauusd"})
	if len(gold) != 3 {
		t.Fatalf("expected 3 XAUUSD signals, got %d", len(gold))
	}
	paged, _ := repo.ListByChannel(ctx, channel, domain.SignalFilter{Limit: 2, Offset: 1})
	if len(paged) != 2 || paged[0].Symbol != "XAUUSD" || paged[1].Symbol != "EURUSD" {
		t.Fatalf("unexpected page %+v", paged)
	}
	none, _ := repo.ListByUser(ctx, "u1", 10, 10)
	if len(none) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(none))
	}
}

func TestInMemoryTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTokenRepository()
	a, b := domain.NewID(), domain.NewID()
	_ = repo.Register(ctx, &domain.DeviceToken{Token: "t1", AccountID: a, Platform: "android"})
	_ = repo.Register(ctx, &domain.DeviceToken{Token: "t2", AccountID: a, Platform: "ios"})
	_ = repo.Register(ctx, &domain.DeviceToken{Token: "t2", AccountID: b, Platform: "ios"})

	tokens, _ := repo.ListByAccount(ctx, a)
	if len(tokens) != 1 || tokens[0] != "t1" {
		t.Fatalf("expected only t1 for account a, got %v", tokens)
	}
	_ = repo.Unregister(ctx, "t1")
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected 1 token, got %d", n)
	}
}
