package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValueType is the declared output type of a field rule.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeArray  ValueType = "array"
)

// Method selects how a field rule finds its value in the message.
type Method string

const (
	MethodRegex  Method = "regex"
	MethodMarker Method = "marker"
)

// FieldRule is one instruction for pulling a named value out of a message.
type FieldRule struct {
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	Type        ValueType `json:"type"`
	Method      Method    `json:"method"`
	Regex       string    `json:"regex,omitempty"`
	StartMarker string    `json:"startMarker,omitempty"`
	EndMarker   string    `json:"endMarker,omitempty"`
}

// ExtractionConfig is the rule set stored on a template.
type ExtractionConfig struct {
	Fields []FieldRule `json:"fields"`
}

// ValueKind tags which member of Value is populated.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindArray
)

// Value is a single extracted field: a string, a number, or a list of numbers.
type Value struct {
	Kind ValueKind
	Str  string
	Num  decimal.Decimal
	Nums []decimal.Decimal
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func NumberValue(d decimal.Decimal) Value { return Value{Kind: KindNumber, Num: d} }

func ArrayValue(ds []decimal.Decimal) Value { return Value{Kind: KindArray, Nums: ds} }

// String renders the value the way it is shown to users and stored as a symbol or timeframe.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return v.Num.String()
	case KindArray:
		parts := make([]string, len(v.Nums))
		for i, n := range v.Nums {
			parts[i] = n.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.Str
	}
}

// Truthy reports whether the value is non-empty and non-zero.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNumber:
		return !v.Num.IsZero()
	case KindArray:
		return len(v.Nums) > 0
	default:
		return v.Str != ""
	}
}

// Decimal converts a scalar value to a price. Arrays and non-numeric strings fail.
func (v Value) Decimal() (decimal.Decimal, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.Str))
		if err != nil {
			return decimal.Zero, fmt.Errorf("could not convert %q to a number", v.Str)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("expected a single number, got list %s", v.String())
	}
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num.Equal(o.Num)
	case KindArray:
		if len(v.Nums) != len(o.Nums) {
			return false
		}
		for i := range v.Nums {
			if !v.Nums[i].Equal(o.Nums[i]) {
				return false
			}
		}
		return true
	default:
		return v.Str == o.Str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return []byte(v.Num.String()), nil
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, n := range v.Nums {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(n.String())
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v.Str)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty extracted value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case '[':
		var raw []json.Number
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		nums := make([]decimal.Decimal, 0, len(raw))
		for _, r := range raw {
			d, err := decimal.NewFromString(r.String())
			if err != nil {
				return err
			}
			nums = append(nums, d)
		}
		*v = ArrayValue(nums)
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("invalid extracted value %s: %w", data, err)
		}
		*v = NumberValue(d)
	}
	return nil
}

// SignalType is the normalized trade direction.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// StopLoss is the protective exit attached to a signal.
type StopLoss struct {
	Price decimal.Decimal `json:"price"`
	Hit   bool            `json:"hit"`
	HitAt *time.Time      `json:"hit_at"`
}

// TakeProfit is one profit target; Level is "TP1", "TP2", ...
type TakeProfit struct {
	Level           string           `json:"level"`
	Price           decimal.Decimal  `json:"price"`
	Hit             bool             `json:"hit"`
	RiskRewardRatio *decimal.Decimal `json:"risk_reward_ratio"`
}

// ExtractedSignal is the structured result of applying a template to a message.
// It carries no identity or timestamps; those are assigned when it is persisted.
type ExtractedSignal struct {
	Symbol        string           `json:"symbol"`
	EntryPrice    decimal.Decimal  `json:"entry_price"`
	SignalType    SignalType       `json:"signal_type"`
	StopLoss      *StopLoss        `json:"stop_loss"`
	TakeProfits   []TakeProfit     `json:"take_profits"`
	Timeframe     *string          `json:"timeframe"`
	RawExtraction map[string]Value `json:"raw_extraction"`
}
