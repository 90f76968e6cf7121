package extraction

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRiskReward(t *testing.T) {
	sl := func(s string) *decimal.Decimal { d := dec(s); return &d }
	tests := []struct {
		name      string
		entry, tp string
		sl        *decimal.Decimal
		dir       string
		want      string
		absent    bool
	}{
		{name: "buy", entry: "1950", sl: sl("1945"), tp: "1960", dir: "BUY", want: "2"},
		{name: "long alias", entry: "1950", sl: sl("1945"), tp: "1970", dir: "long", want: "4"},
		{name: "sell", entry: "100", sl: sl("103"), tp: "91", dir: "SELL", want: "3"},
		{name: "unknown is short", entry: "100", sl: sl("103"), tp: "91", dir: "FLAT", want: "3"},
		{name: "negative kept", entry: "100", sl: sl("90"), tp: "95", dir: "BUY", want: "-0.5"},
		{name: "rounded", entry: "100", sl: sl("97"), tp: "110", dir: "BUY", want: "3.33"},
		{name: "half even down", entry: "0", sl: sl("-8"), tp: "1", dir: "BUY", want: "0.12"},
		{name: "half even up", entry: "0", sl: sl("-8"), tp: "3", dir: "BUY", want: "0.38"},
		{name: "zero reward", entry: "100", sl: sl("90"), tp: "100", dir: "BUY", want: "0"},
		{name: "no stop", entry: "100", tp: "110", dir: "BUY", absent: true},
		{name: "zero risk", entry: "100", sl: sl("100"), tp: "110", dir: "BUY", absent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RiskReward(dec(tt.entry), tt.sl, dec(tt.tp), tt.dir)
			if tt.absent {
				if ok {
					t.Fatalf("expected absent, got %s", got)
				}
				return
			}
			if !ok {
				t.Fatal("expected a ratio")
			}
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
