package extraction

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"signal-backend/internal/domain"
)

func template(cfg domain.ExtractionConfig) *domain.Template {
	return &domain.Template{ID: domain.NewID(), Config: cfg, IsActive: true}
}

func symbolOnly() domain.ExtractionConfig {
	return domain.ExtractionConfig{Fields: []domain.FieldRule{
		{Key: "symbol", Method: domain.MethodMarker, StartMarker: "BUY ", EndMarker: " Entry"},
	}}
}

func TestResolveFirstSuccessWins(t *testing.T) {
	sink := &recordingSink{}
	t1 := template(symbolOnly())
	t2 := template(xauTemplate())
	t3 := template(xauTemplate())

	res, err := New(sink).Resolve([]*domain.Template{t1, t2, t3}, xauMessage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Template != t2 {
		t.Fatalf("expected second template to win, got %s", res.Template.ID)
	}
	if len(res.Failures) != 1 || res.Failures[0].TemplateID != t1.ID {
		t.Fatalf("expected one failure for the first template, got %+v", res.Failures)
	}
	if res.Signal.Symbol != "XAUUSD" {
		t.Fatalf("expected XAUUSD, got %q", res.Signal.Symbol)
	}
	if sink.count(EventResolved) != 1 || sink.count(EventTemplateMismatch) != 1 {
		t.Fatalf("unexpected events %v", sink.events)
	}
}

func TestResolveAllFail(t *testing.T) {
	t1 := template(symbolOnly())
	t2 := template(symbolOnly())

	_, err := New(nil).Resolve([]*domain.Template{t1, t2}, xauMessage)
	var nm *NoMatchError
	if !errors.As(err, &nm) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
	if len(nm.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(nm.Failures))
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "Could not extract signal from message. Errors: Template "+t1.ID.String()) {
		t.Fatalf("unexpected message %q", msg)
	}
	if !strings.Contains(msg, "; Template "+t2.ID.String()+": ") {
		t.Fatalf("expected both reasons in %q", msg)
	}
	if errors.Is(err, ErrNoActiveTemplates) {
		t.Fatal("exhausted templates must not report an empty template list")
	}
}

func TestResolveNoTemplates(t *testing.T) {
	_, err := New(nil).Resolve(nil, xauMessage)
	if !errors.Is(err, ErrNoActiveTemplates) {
		t.Fatalf("expected ErrNoActiveTemplates, got %v", err)
	}
	var nm *NoMatchError
	if !errors.As(err, &nm) {
		t.Fatalf("expected NoMatchError, got %T", err)
	}
}

func TestResolveConcurrentUse(t *testing.T) {
	e := New(&recordingSink{})
	templates := []*domain.Template{template(symbolOnly()), template(xauTemplate())}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Resolve(templates, xauMessage); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
}
