package extraction

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"signal-backend/internal/domain"
)

func xauTemplate() domain.ExtractionConfig {
	return domain.ExtractionConfig{Fields: []domain.FieldRule{
		{Name: "Symbol", Key: "symbol", Type: domain.TypeString, Method: domain.MethodMarker, StartMarker: "BUY ", EndMarker: " Entry"},
		{Name: "Entry", Key: "entry", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `Entry:\s*([\d.]+)`},
		{Name: "Stop", Key: "sl", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `SL:\s*([\d.]+)`},
		{Name: "Targets", Key: "tp", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `TP\d:\s*([\d.]+)`},
	}}
}

const xauMessage = "BUY XAUUSD Entry: 1950.00 SL: 1945.00 TP1: 1960.00 TP2: 1970.00"

func TestExtractEndToEnd(t *testing.T) {
	sig, err := New(nil).Extract(xauTemplate(), xauMessage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Symbol != "XAUUSD" {
		t.Fatalf("expected symbol XAUUSD, got %q", sig.Symbol)
	}
	if !sig.EntryPrice.Equal(dec("1950.00")) {
		t.Fatalf("expected entry 1950.00, got %s", sig.EntryPrice)
	}
	if sig.SignalType != domain.SignalBuy {
		t.Fatalf("expected BUY, got %s", sig.SignalType)
	}
	if sig.StopLoss == nil || !sig.StopLoss.Price.Equal(dec("1945")) || sig.StopLoss.Hit || sig.StopLoss.HitAt != nil {
		t.Fatalf("unexpected stop loss %+v", sig.StopLoss)
	}
	if len(sig.TakeProfits) != 2 {
		t.Fatalf("expected 2 take profits, got %d", len(sig.TakeProfits))
	}
	wants := []struct{ level, price, rr string }{{"TP1", "1960", "2.00"}, {"TP2", "1970", "4.00"}}
	for i, w := range wants {
		tp := sig.TakeProfits[i]
		if tp.Level != w.level || !tp.Price.Equal(dec(w.price)) || tp.Hit {
			t.Fatalf("take profit %d: unexpected %+v", i, tp)
		}
		if tp.RiskRewardRatio == nil || !tp.RiskRewardRatio.Equal(dec(w.rr)) {
			t.Fatalf("take profit %d: expected ratio %s, got %v", i, w.rr, tp.RiskRewardRatio)
		}
	}
	if sig.Timeframe != nil {
		t.Fatalf("expected no timeframe, got %q", *sig.Timeframe)
	}
	if len(sig.RawExtraction) != 4 {
		t.Fatalf("expected 4 raw fields, got %v", sig.RawExtraction)
	}
}

func TestExtractIsRepeatable(t *testing.T) {
	e := New(nil)
	cfg := xauTemplate()
	before := xauTemplate()

	first, err := e.Extract(cfg, xauMessage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Extract(cfg, xauMessage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("expected identical output, got\n%s\n%s", a, b)
	}
	if !reflect.DeepEqual(cfg, before) {
		t.Fatal("extraction config was modified")
	}
}

func TestExtractRequiredFields(t *testing.T) {
	e := New(nil)
	tests := []struct {
		name string
		text string
	}{
		{"no symbol", "SELL Entry: 1950 SL: 1960"},
		{"no entry", "BUY XAUUSD Entry: soon"},
		{"zero entry", "BUY XAUUSD Entry: 0 SL: 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := e.Extract(xauTemplate(), tt.text)
			if sig != nil {
				t.Fatalf("expected no signal, got %+v", sig)
			}
			if !errors.Is(err, ErrTemplateMismatch) {
				t.Fatalf("expected template mismatch, got %v", err)
			}
		})
	}
}

func TestExtractDirectionAndStops(t *testing.T) {
	cfg := domain.ExtractionConfig{Fields: []domain.FieldRule{
		{Key: "signal_type", Method: domain.MethodRegex, Regex: `^(buy|sell|long|short)`},
		{Key: "symbol", Method: domain.MethodRegex, Regex: `^\w+\s+(\w+)`},
		{Key: "entry", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `(\d+\.\d+)\s*-`},
		{Key: "sl", Method: domain.MethodRegex, Regex: `SL:\s*([\d.]*)`},
		{Key: "stop_loss", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `STOP\s+([\d.]+)`},
		{Key: "tp", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `TP\d:\s*([\d.]+)`},
		{Key: "tp3", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `final\s+([\d.]+)`},
		{Key: "timeframe", Method: domain.MethodMarker, StartMarker: "TF:"},
	}}
	text := "short GBPJPY 190.50 - 190.80 SL: STOP 191.50 TP1: 189.50 TP2: 188.50 final 187.00 TF: H1"

	sig, err := New(nil).Extract(cfg, text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.SignalType != domain.SignalSell {
		t.Fatalf("expected SELL, got %s", sig.SignalType)
	}
	if !sig.EntryPrice.Equal(dec("190.50")) {
		t.Fatalf("expected first entry of range, got %s", sig.EntryPrice)
	}
	// sl is present but empty, so the scan stops there and stop_loss is ignored.
	if sig.StopLoss != nil {
		t.Fatalf("expected no stop loss, got %+v", sig.StopLoss)
	}
	levels := make([]string, len(sig.TakeProfits))
	for i, tp := range sig.TakeProfits {
		levels[i] = tp.Level
		if tp.RiskRewardRatio != nil {
			t.Fatalf("expected no ratio without a stop, got %s", tp.RiskRewardRatio)
		}
	}
	if want := []string{"TP1", "TP2", "TP1"}; !reflect.DeepEqual(levels, want) {
		t.Fatalf("expected levels %v, got %v", want, levels)
	}
	if sig.Timeframe == nil || *sig.Timeframe != "H1" {
		t.Fatalf("expected timeframe H1, got %v", sig.Timeframe)
	}
}

func TestExtractUnknownDirectionDefaultsToBuy(t *testing.T) {
	cfg := xauTemplate()
	cfg.Fields = append(cfg.Fields, domain.FieldRule{Key: "signal_type", Method: domain.MethodMarker, StartMarker: "Side:"})

	sig, err := New(nil).Extract(cfg, xauMessage+"\nSide: hold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.SignalType != domain.SignalBuy {
		t.Fatalf("expected BUY, got %s", sig.SignalType)
	}
}

func TestExtractNonNumericStopFails(t *testing.T) {
	cfg := xauTemplate()
	cfg.Fields[2] = domain.FieldRule{Key: "sl", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `SL:\s*(\S+)`}

	_, err := New(nil).Extract(cfg, "BUY XAUUSD Entry: 1950.00 SL: breakeven")
	if !errors.Is(err, ErrTemplateMismatch) {
		t.Fatalf("expected template mismatch, got %v", err)
	}
}

func TestExtractSkipsBrokenRule(t *testing.T) {
	sink := &recordingSink{}
	cfg := xauTemplate()
	cfg.Fields = append(cfg.Fields, domain.FieldRule{Key: "timeframe", Method: domain.MethodRegex, Regex: `(?P<tf`})

	sig, err := New(sink).Extract(cfg, xauMessage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Timeframe != nil {
		t.Fatal("expected broken rule to be absent")
	}
	if sink.count(EventRuleFault) != 1 {
		t.Fatalf("expected one rule fault, got %d", sink.count(EventRuleFault))
	}
}
