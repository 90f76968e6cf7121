package extraction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

// ErrTemplateMismatch is matched by every error Extract returns for a message the template cannot read.
var ErrTemplateMismatch = errors.New("template does not match message")

// MismatchError explains why a template could not produce a signal.
type MismatchError struct {
	Reason string
}

func (e *MismatchError) Error() string { return e.Reason }

func (e *MismatchError) Unwrap() error { return ErrTemplateMismatch }

func mismatch(format string, args ...any) error {
	return &MismatchError{Reason: fmt.Sprintf(format, args...)}
}

var (
	stopLossKeys   = []string{"sl", "stop_loss", "stop"}
	takeProfitKeys = []string{"tp", "tp1", "tp2", "tp3", "take_profit", "take_profits"}
)

// Extract applies every rule of cfg to text and assembles a signal from the result.
func (e *Engine) Extract(cfg domain.ExtractionConfig, text string) (*domain.ExtractedSignal, error) {
	fields := e.evaluateAll(cfg, text)

	symbolVal, ok := fields["symbol"]
	if !ok {
		return nil, mismatch("required field symbol was not found")
	}
	if !symbolVal.Truthy() {
		return nil, mismatch("could not extract symbol from message")
	}
	entryVal, ok := fields["entry"]
	if !ok {
		return nil, mismatch("required field entry was not found")
	}
	if !entryVal.Truthy() {
		return nil, mismatch("could not extract entry price from message")
	}
	if entryVal.Kind == domain.KindArray {
		entryVal = domain.NumberValue(entryVal.Nums[0])
	}
	entry, err := entryVal.Decimal()
	if err != nil {
		return nil, mismatch("entry: %v", err)
	}

	signalType := domain.SignalBuy
	if st, ok := fields["signal_type"]; ok {
		signalType = normalizeDirection(st.String())
	}

	sig := &domain.ExtractedSignal{
		Symbol:        symbolVal.String(),
		EntryPrice:    entry,
		SignalType:    signalType,
		TakeProfits:   []domain.TakeProfit{},
		RawExtraction: fields,
	}

	for _, key := range stopLossKeys {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if v.Truthy() {
			price, err := v.Decimal()
			if err != nil {
				return nil, mismatch("%s: %v", key, err)
			}
			sig.StopLoss = &domain.StopLoss{Price: price}
		}
		break
	}

	var sl *decimal.Decimal
	if sig.StopLoss != nil {
		sl = &sig.StopLoss.Price
	}
	for _, key := range takeProfitKeys {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if v.Kind == domain.KindArray {
			for i, price := range v.Nums {
				sig.TakeProfits = append(sig.TakeProfits, takeProfit(i+1, entry, sl, price, signalType))
			}
			continue
		}
		if !v.Truthy() {
			continue
		}
		price, err := v.Decimal()
		if err != nil {
			return nil, mismatch("%s: %v", key, err)
		}
		sig.TakeProfits = append(sig.TakeProfits, takeProfit(1, entry, sl, price, signalType))
	}

	if tf, ok := fields["timeframe"]; ok {
		s := tf.String()
		sig.Timeframe = &s
	}
	return sig, nil
}

func (e *Engine) evaluateAll(cfg domain.ExtractionConfig, text string) map[string]domain.Value {
	fields := make(map[string]domain.Value, len(cfg.Fields))
	for _, rule := range cfg.Fields {
		if rule.Key == "" {
			continue
		}
		v, ok, err := e.Evaluate(rule, text)
		if err != nil || !ok {
			continue
		}
		fields[rule.Key] = v
	}
	return fields
}

func takeProfit(level int, entry decimal.Decimal, sl *decimal.Decimal, price decimal.Decimal, dir domain.SignalType) domain.TakeProfit {
	tp := domain.TakeProfit{Level: fmt.Sprintf("TP%d", level), Price: price}
	if rr, ok := RiskReward(entry, sl, price, string(dir)); ok {
		tp.RiskRewardRatio = &rr
	}
	return tp
}

func normalizeDirection(s string) domain.SignalType {
	switch strings.ToUpper(s) {
	case "SELL", "SHORT":
		return domain.SignalSell
	default:
		return domain.SignalBuy
	}
}
