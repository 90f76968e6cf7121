package extraction

import (
	"testing"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEvaluateRegexNumber(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "entry", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `entry:\s*([\d.]+)`}

	v, ok, err := e.Evaluate(rule, "BUY XAUUSD ENTRY: 1950.50 now")
	if err != nil || !ok {
		t.Fatalf("expected a value, got ok=%v err=%v", ok, err)
	}
	if v.Kind != domain.KindNumber || !v.Num.Equal(dec("1950.50")) {
		t.Fatalf("expected number 1950.50, got %v", v)
	}
}

func TestEvaluateRegexWholeMatchWithoutGroups(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "symbol", Method: domain.MethodRegex, Regex: `[A-Z]{6}`}

	v, ok, _ := e.Evaluate(rule, "go long eurusd now")
	if !ok {
		t.Fatal("expected a match")
	}
	if v.String() != "eurusd" {
		t.Fatalf("expected eurusd, got %q", v.String())
	}
}

func TestEvaluateRegexNumberFallsBackToString(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "entry", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `entry:\s*(\S+)`}

	v, ok, err := e.Evaluate(rule, "Entry: market")
	if err != nil || !ok {
		t.Fatalf("expected a value, got ok=%v err=%v", ok, err)
	}
	if v.Kind != domain.KindString || v.Str != "market" {
		t.Fatalf("expected raw string market, got %#v", v)
	}
}

func TestEvaluateRegexNoMatchIsAbsent(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "sl", Type: domain.TypeNumber, Method: domain.MethodRegex, Regex: `SL:\s*([\d.]+)`}

	_, ok, err := e.Evaluate(rule, "no stop here")
	if ok || err != nil {
		t.Fatalf("expected absent without error, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluateRegexUnmatchedGroupIsAbsent(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "tf", Method: domain.MethodRegex, Regex: `tf(?::\s*(\w+))?`}

	_, ok, _ := e.Evaluate(rule, "TF only")
	if ok {
		t.Fatal("expected absent when the capture group did not participate")
	}
}

func TestEvaluateArrayHeuristic(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "tp", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `TP(\d)[:\s]*(\d+(?:\.\d+)?)?`}

	v, ok, err := e.Evaluate(rule, "TP1: 1960.5 TP2: 7 TP3: 2.5 TP4")
	if err != nil || !ok {
		t.Fatalf("expected values, got ok=%v err=%v", ok, err)
	}
	// TP2 value 7 is rejected, TP4 falls back to its index digit 4 and is rejected too.
	want := []decimal.Decimal{dec("1960.5"), dec("2.5")}
	if !v.Equal(domain.ArrayValue(want)) {
		t.Fatalf("expected %v, got %v", domain.ArrayValue(want), v)
	}
}

func TestEvaluateArrayRejectsTen(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "tp", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `TP\d:\s*(\d+)`}

	v, ok, _ := e.Evaluate(rule, "TP1: 10 TP2: 11")
	if !ok {
		t.Fatal("expected 11 to be accepted")
	}
	if len(v.Nums) != 1 || !v.Nums[0].Equal(dec("11")) {
		t.Fatalf("expected [11], got %v", v)
	}
}

func TestEvaluateArrayNothingAcceptedIsAbsent(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "tp", Type: domain.TypeArray, Method: domain.MethodRegex, Regex: `TP(\d)`}

	_, ok, _ := e.Evaluate(rule, "TP1 TP2 TP3")
	if ok {
		t.Fatal("expected absent when every capture is filtered out")
	}
}

func TestEvaluateMarker(t *testing.T) {
	e := New(nil)
	tests := []struct {
		name   string
		rule   domain.FieldRule
		text   string
		want   string
		absent bool
	}{
		{
			name: "start and end",
			rule: domain.FieldRule{Key: "symbol", Method: domain.MethodMarker, StartMarker: "BUY ", EndMarker: " Entry"},
			text: "BUY XAUUSD Entry: 1950",
			want: "XAUUSD",
		},
		{
			name: "end of line",
			rule: domain.FieldRule{Key: "symbol", Method: domain.MethodMarker, StartMarker: "Pair:"},
			text: "Pair:  GBPJPY \nEntry: 190.1",
			want: "GBPJPY",
		},
		{
			name: "end marker missing falls back to line",
			rule: domain.FieldRule{Key: "symbol", Method: domain.MethodMarker, StartMarker: "Pair:", EndMarker: "|"},
			text: "Pair: GBPJPY\nEntry: 190.1",
			want: "GBPJPY",
		},
		{
			name: "end of text",
			rule: domain.FieldRule{Key: "tf", Method: domain.MethodMarker, StartMarker: "TF:"},
			text: "Entry 1 TF: H4 ",
			want: "H4",
		},
		{
			name:   "case sensitive",
			rule:   domain.FieldRule{Key: "symbol", Method: domain.MethodMarker, StartMarker: "Pair:"},
			text:   "pair: GBPJPY",
			absent: true,
		},
		{
			name:   "blank",
			rule:   domain.FieldRule{Key: "symbol", Method: domain.MethodMarker, StartMarker: "Pair:"},
			text:   "Pair:   \nnext",
			absent: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := e.Evaluate(tt.rule, tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.absent {
				if ok {
					t.Fatalf("expected absent, got %q", v.String())
				}
				return
			}
			if !ok || v.String() != tt.want {
				t.Fatalf("expected %q, got %q (ok=%v)", tt.want, v.String(), ok)
			}
		})
	}
}

func TestEvaluateMarkerNumber(t *testing.T) {
	e := New(nil)
	rule := domain.FieldRule{Key: "sl", Type: domain.TypeNumber, Method: domain.MethodMarker, StartMarker: "SL", EndMarker: "TP"}

	v, ok, _ := e.Evaluate(rule, "SL 1945.00 TP 1960")
	if !ok || v.Kind != domain.KindNumber || !v.Num.Equal(dec("1945")) {
		t.Fatalf("expected number 1945, got %#v", v)
	}
}

func TestEvaluateMalformedRulesReportFaults(t *testing.T) {
	sink := &recordingSink{}
	e := New(sink)
	rules := []domain.FieldRule{
		{Key: "a", Method: domain.MethodRegex, Regex: `([`},
		{Key: "b", Method: domain.MethodRegex},
		{Key: "c", Method: domain.MethodMarker},
		{Key: "d", Method: "xpath"},
		{Key: "e"},
	}
	for _, r := range rules {
		_, ok, err := e.Evaluate(r, "anything")
		if ok || err == nil {
			t.Fatalf("rule %s: expected absent with error, got ok=%v err=%v", r.Key, ok, err)
		}
	}
	if got := sink.count(EventRuleFault); got != len(rules) {
		t.Fatalf("expected %d fault events, got %d", len(rules), got)
	}
}
