package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
	"signal-backend/internal/repository"
)

func TestRegisterDevice(t *testing.T) {
	svc := NewNotificationService(repository.NewInMemoryTokenRepository(), &fakePush{enabled: true}, time.Minute, zerolog.Nop())
	ctx := context.Background()
	acct := domain.NewID()

	if _, err := svc.RegisterDevice(ctx, acct, "", "android"); err == nil {
		t.Fatalf("expected empty token to fail")
	}
	if _, err := svc.RegisterDevice(ctx, acct, "abc", "windows"); err == nil {
		t.Fatalf("expected unknown platform to fail")
	}
	count, err := svc.RegisterDevice(ctx, acct, "abc", "")
	if err != nil || count != 1 {
		t.Fatalf("expected 1 device, got %d (%v)", count, err)
	}
	count, _ = svc.RegisterDevice(ctx, acct, "abc", "ios")
	if count != 1 {
		t.Fatalf("expected re-registration to keep 1 device, got %d", count)
	}
	count, err = svc.UnregisterDevice(ctx, "abc")
	if err != nil || count != 0 {
		t.Fatalf("expected 0 devices, got %d (%v)", count, err)
	}
}

func TestNotifySignalCooldown(t *testing.T) {
	push := &fakePush{enabled: true}
	tokens := repository.NewInMemoryTokenRepository()
	svc := NewNotificationService(tokens, push, 5*time.Minute, zerolog.Nop())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	owner := domain.NewID()
	if _, err := svc.RegisterDevice(ctx, owner, "device-1", "android"); err != nil {
		t.Fatalf("register: %v", err)
	}
	ch := &domain.Channel{ID: domain.NewID(), AccountID: &owner, Name: "Gold"}
	gold := &domain.Signal{ID: domain.NewID(), Symbol: "XAUUSD", SignalType: domain.SignalBuy}
	euro := &domain.Signal{ID: domain.NewID(), Symbol: "EURUSD", SignalType: domain.SignalSell}

	svc.NotifySignal(ctx, ch, gold)
	svc.NotifySignal(ctx, ch, gold)
	if push.count() != 1 {
		t.Fatalf("expected repeat inside cooldown to be dropped, got %d sends", push.count())
	}
	svc.NotifySignal(ctx, ch, euro)
	if push.count() != 2 {
		t.Fatalf("expected other symbol to be sent, got %d sends", push.count())
	}
	if push.titles[1] != "SELL EURUSD" {
		t.Fatalf("unexpected title %q", push.titles[1])
	}

	now = now.Add(6 * time.Minute)
	svc.NotifySignal(ctx, ch, gold)
	if push.count() != 3 {
		t.Fatalf("expected send after cooldown, got %d sends", push.count())
	}

	orphan := &domain.Channel{ID: domain.NewID(), Name: "Orphan"}
	svc.NotifySignal(ctx, orphan, gold)
	if push.count() != 3 {
		t.Fatalf("expected no send for a channel without owner")
	}
}

func TestSendTestNotification(t *testing.T) {
	ctx := context.Background()
	acct := domain.NewID()

	disabled := NewNotificationService(repository.NewInMemoryTokenRepository(), &fakePush{}, time.Minute, zerolog.Nop())
	if _, err := disabled.SendTest(ctx, acct); !errors.Is(err, ErrPushDisabled) {
		t.Fatalf("expected ErrPushDisabled, got %v", err)
	}

	push := &fakePush{enabled: true}
	svc := NewNotificationService(repository.NewInMemoryTokenRepository(), push, time.Minute, zerolog.Nop())
	if _, err := svc.SendTest(ctx, acct); !errors.Is(err, ErrNoDevices) {
		t.Fatalf("expected ErrNoDevices, got %v", err)
	}
	if _, err := svc.RegisterDevice(ctx, acct, "device-1", "android"); err != nil {
		t.Fatalf("register: %v", err)
	}
	n, err := svc.SendTest(ctx, acct)
	if err != nil || n != 1 || push.count() != 1 {
		t.Fatalf("expected one device notified, got %d (%v)", n, err)
	}
}
