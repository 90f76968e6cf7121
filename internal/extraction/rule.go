package extraction

import (
	"errors"
	"fmt"
	"regexp"

	"signal-backend/internal/domain"
)

var (
	errMissingPattern = errors.New("regex rule has no pattern")
	errMissingMarker  = errors.New("marker rule has no start marker")
	errUnknownMethod  = errors.New("unknown extraction method")
)

// compiledRule is a field rule resolved into one of its concrete forms.
type compiledRule interface {
	key() string
	evaluate(text string) (domain.Value, bool)
}

type regexRule struct {
	field     string
	valueType domain.ValueType
	re        *regexp.Regexp
}

type markerRule struct {
	field     string
	valueType domain.ValueType
	start     string
	end       string
}

func (r regexRule) key() string  { return r.field }
func (r markerRule) key() string { return r.field }

// compile validates a rule and prepares it for evaluation. Patterns are matched case-insensitively.
func compile(rule domain.FieldRule) (compiledRule, error) {
	vt := rule.Type
	if vt == "" {
		vt = domain.TypeString
	}
	switch rule.Method {
	case domain.MethodRegex:
		if rule.Regex == "" {
			return nil, errMissingPattern
		}
		re, err := regexp.Compile("(?i)" + rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
		return regexRule{field: rule.Key, valueType: vt, re: re}, nil
	case domain.MethodMarker:
		if rule.StartMarker == "" {
			return nil, errMissingMarker
		}
		return markerRule{field: rule.Key, valueType: vt, start: rule.StartMarker, end: rule.EndMarker}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownMethod, rule.Method)
	}
}
