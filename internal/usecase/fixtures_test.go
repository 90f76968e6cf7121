package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
	"signal-backend/internal/extraction"
	"signal-backend/internal/infrastructure/auth"
	"signal-backend/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeMailer struct {
	mu     sync.Mutex
	tokens []string
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *fakeMailer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tokens) == 0 {
		return ""
	}
	return m.tokens[len(m.tokens)-1]
}

type publishedSignal struct {
	channel *domain.Channel
	signal  *domain.Signal
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []publishedSignal
}

func (p *fakePublisher) Publish(ch *domain.Channel, sig *domain.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, publishedSignal{ch, sig})
}

type fakePush struct {
	enabled bool
	mu      sync.Mutex
	calls   [][]string
	titles  []string
}

func (p *fakePush) IsEnabled() bool { return p.enabled }

func (p *fakePush) SendMulticast(_ context.Context, tokens []string, title, _ string, _ map[string]string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, tokens)
	p.titles = append(p.titles, title)
	return 0, nil
}

func (p *fakePush) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fixture struct {
	accounts  *repository.InMemoryAccountRepository
	channels  *repository.InMemoryChannelRepository
	templates *repository.InMemoryTemplateRepository
	signals   *repository.InMemorySignalRepository
	tokens    *repository.InMemoryTokenRepository

	mailer    *fakeMailer
	publisher *fakePublisher
	push      *fakePush

	accountSvc  *AccountService
	channelSvc  *ChannelService
	templateSvc *TemplateService
	signalSvc   *SignalService
	notifySvc   *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	f := &fixture{
		accounts:  repository.NewInMemoryAccountRepository(),
		channels:  repository.NewInMemoryChannelRepository(),
		templates: repository.NewInMemoryTemplateRepository(),
		signals:   repository.NewInMemorySignalRepository(),
		tokens:    repository.NewInMemoryTokenRepository(),
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
		push:      &fakePush{enabled: true},
	}
	engine := extraction.New(nil)
	f.accountSvc = NewAccountService(f.accounts, f.channels, auth.NewTokens(testSecret, time.Hour), f.mailer, log)
	f.channelSvc = NewChannelService(f.channels, f.accounts, log)
	f.templateSvc = NewTemplateService(f.templates, f.channels, engine, log)
	f.notifySvc = NewNotificationService(f.tokens, f.push, 5*time.Minute, log)
	f.signalSvc = NewSignalService(f.signals, f.channels, f.templates, engine, f.publisher, f.notifySvc, log)
	return f
}

func (f *fixture) register(t *testing.T, username string) *domain.Account {
	t.Helper()
	email := username + "@example.com"
	res, err := f.accountSvc.Register(context.Background(), RegisterInput{Username: username, Email: &email, Password: "password123"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res.Account
}

func (f *fixture) channel(t *testing.T, owner *domain.Account, telegramID string) *domain.Channel {
	t.Helper()
	in := ChannelInput{Name: "Gold Signals", TelegramChannelID: telegramID}
	if owner != nil {
		in.AccountID = &owner.ID
	}
	ch, err := f.channelSvc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	return ch
}

func goldConfig() domain.ExtractionConfig {
	return domain.ExtractionConfig{Fields: []domain.FieldRule{
		{Name: "Direction", Key: "signal_type", Type: domain.TypeString, Method: domain.MethodRegex, Regex: `^(BUY|SELL)`},
		{Name: "Symbol", Key: "symbol", Type: domain.TypeString, Method: domain.MethodRegex, Regex: `^(?:BUY|SELL)\s+(\w+)`},
		{Name: "Entry", Key: "entry", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `Entry:\s*([\d.]+)`},
		{Name: "Stop", Key: "sl", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `SL:\s*([\d.]+)`},
		{Name: "Targets", Key: "tp", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `TP\d:\s*([\d.]+)`},
	}}
}

const goldMessage = "BUY XAUUSD Entry: 1950.00 SL: 1945.00 TP1: 1960.00 TP2: 1970.00"

func (f *fixture) template(t *testing.T, owner *domain.Account, ch *domain.Channel, cfg domain.ExtractionConfig) *domain.Template {
	t.Helper()
	tpl, err := f.templateSvc.Create(context.Background(), owner.ID, TemplateInput{ChannelID: ch.ID, Config: cfg})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tpl
}
