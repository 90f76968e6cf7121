package extraction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"signal-backend/internal/domain"
)

// ErrNoActiveTemplates is wrapped by the NoMatchError returned when there was nothing to try.
var ErrNoActiveTemplates = errors.New("no active templates found for this channel")

// TemplateFailure records why one template was rejected for a message.
type TemplateFailure struct {
	TemplateID uuid.UUID
	Reason     string
}

func (f TemplateFailure) String() string {
	return fmt.Sprintf("Template %s: %s", f.TemplateID, f.Reason)
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Signal   *domain.ExtractedSignal
	Template *domain.Template
	// Failures holds the templates tried before the winner, in order.
	Failures []TemplateFailure
}

// NoMatchError is returned when no template produced a signal.
type NoMatchError struct {
	Failures []TemplateFailure
}

func (e *NoMatchError) Error() string {
	if len(e.Failures) == 0 {
		return "Could not extract signal from message: " + ErrNoActiveTemplates.Error()
	}
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.String()
	}
	return "Could not extract signal from message. Errors: " + strings.Join(reasons, "; ")
}

func (e *NoMatchError) Unwrap() error {
	if len(e.Failures) == 0 {
		return ErrNoActiveTemplates
	}
	return nil
}

// Resolve tries templates in order and returns the first signal extracted.
// Callers pass the channel's active templates newest first.
func (e *Engine) Resolve(templates []*domain.Template, text string) (Resolution, error) {
	if len(templates) == 0 {
		e.sink.Record(EventUnresolved, map[string]any{"templates": 0})
		return Resolution{}, &NoMatchError{}
	}
	var failures []TemplateFailure
	for _, t := range templates {
		if t == nil {
			continue
		}
		sig, err := e.try(t, text)
		if err != nil {
			failures = append(failures, TemplateFailure{TemplateID: t.ID, Reason: err.Error()})
			continue
		}
		e.sink.Record(EventResolved, map[string]any{
			"template_id": t.ID.String(),
			"attempts":    len(failures) + 1,
			"symbol":      sig.Symbol,
		})
		return Resolution{Signal: sig, Template: t, Failures: failures}, nil
	}
	e.sink.Record(EventUnresolved, map[string]any{"templates": len(templates)})
	return Resolution{}, &NoMatchError{Failures: failures}
}

func (e *Engine) try(t *domain.Template, text string) (sig *domain.ExtractedSignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = fmt.Errorf("unexpected failure: %v", r)
			e.sink.Record(EventTemplatePanic, map[string]any{"template_id": t.ID.String(), "error": err.Error()})
		}
	}()
	sig, err = e.Extract(t.Config, text)
	if err != nil {
		e.sink.Record(EventTemplateMismatch, map[string]any{"template_id": t.ID.String(), "reason": err.Error()})
	}
	return sig, err
}
