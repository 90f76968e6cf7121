package extraction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

var arrayPriceFloor = decimal.NewFromInt(10)

// Engine applies extraction templates to message text. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	sink Sink
}

// New returns an engine reporting diagnostics to sink. A nil sink discards them.
func New(sink Sink) *Engine {
	if sink == nil {
		sink = NopSink{}
	}
	return &Engine{sink: sink}
}

// Evaluate runs a single field rule against text. ok is false when the field is absent.
// A non-nil error means the rule itself is broken; the field is then absent as well.
func (e *Engine) Evaluate(rule domain.FieldRule, text string) (v domain.Value, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok = domain.Value{}, false
			err = fmt.Errorf("evaluating field %q: %v", rule.Key, r)
			e.ruleFault(rule, "panic", err)
		}
	}()

	cr, err := compile(rule)
	if err != nil {
		e.ruleFault(rule, "invalid_rule", err)
		return domain.Value{}, false, fmt.Errorf("field %q: %w", rule.Key, err)
	}
	v, ok = cr.evaluate(text)
	return v, ok, nil
}

func (e *Engine) ruleFault(rule domain.FieldRule, reason string, err error) {
	e.sink.Record(EventRuleFault, map[string]any{
		"field":  rule.Key,
		"method": string(rule.Method),
		"reason": reason,
		"error":  err.Error(),
	})
}

func (r regexRule) evaluate(text string) (domain.Value, bool) {
	if r.valueType == domain.TypeArray {
		return r.evaluateAll(text)
	}
	m := r.re.FindStringSubmatchIndex(text)
	if m == nil {
		return domain.Value{}, false
	}
	start, end := m[0], m[1]
	if r.re.NumSubexp() > 0 {
		start, end = m[2], m[3]
		if start < 0 {
			return domain.Value{}, false
		}
	}
	return typed(text[start:end], r.valueType), true
}

// evaluateAll collects the last non-empty group of every match, keeping only
// captures that look like prices: greater than 10 or written with a decimal point.
func (r regexRule) evaluateAll(text string) (domain.Value, bool) {
	var nums []decimal.Decimal
	for _, groups := range r.re.FindAllStringSubmatch(text, -1) {
		candidate := ""
		for _, g := range groups[1:] {
			if g != "" {
				candidate = g
			}
		}
		if candidate == "" {
			continue
		}
		d, ok := parseNumber(candidate)
		if !ok {
			continue
		}
		if d.GreaterThan(arrayPriceFloor) || strings.Contains(candidate, ".") {
			nums = append(nums, d)
		}
	}
	if len(nums) == 0 {
		return domain.Value{}, false
	}
	return domain.ArrayValue(nums), true
}

func (r markerRule) evaluate(text string) (domain.Value, bool) {
	i := strings.Index(text, r.start)
	if i < 0 {
		return domain.Value{}, false
	}
	rest := text[i+len(r.start):]
	if j := strings.Index(rest, r.end); r.end != "" && j >= 0 {
		rest = rest[:j]
	} else if k := strings.IndexByte(rest, '\n'); k >= 0 {
		rest = rest[:k]
	}
	s := strings.TrimSpace(rest)
	if s == "" {
		return domain.Value{}, false
	}
	return typed(s, r.valueType), true
}

// typed converts a raw capture to the rule's declared type. Numbers that do not
// parse are kept as strings.
func typed(raw string, vt domain.ValueType) domain.Value {
	if vt == domain.TypeNumber {
		if d, ok := parseNumber(raw); ok {
			return domain.NumberValue(d)
		}
	}
	return domain.StringValue(raw)
}

func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
