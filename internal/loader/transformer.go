// =============================================================================
// Pre-Alert Engine - Transformation Engine
// =============================================================================
//
// This module cleans raw source values before they are mapped onto line
// items. Portal exports differ in small ways (currency symbols in price
// columns, lowercase part numbers, padded document numbers) and each
// dataset config lists the actions that normalize them.
//
// Rules run in configuration order. Within a rule, actions run in order and
// each action sees the output of the previous one.
//
// =============================================================================

package loader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/prealert-engine/internal/config"
)

var (
	currencyPattern = regexp.MustCompile(`(?i)\b(USD|SAR|US\$)\b|[$\s]`)
	digitsPattern   = regexp.MustCompile(`\d+`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies a dataset's transformation rules to source rows.
type Transformer struct {
	rules   []config.TransformationRule
	regexes map[string]*regexp.Regexp
}

// NewTransformer validates the rules and precompiles regex patterns.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules:   rules,
		regexes: make(map[string]*regexp.Regexp),
	}

	for _, rule := range rules {
		for _, action := range rule.Actions {
			if !knownAction(action.Type) {
				return nil, eris.Errorf("unknown transformation type %q on %q", action.Type, rule.Field)
			}
			if action.Type != "regex_replace" || action.Find == "" {
				continue
			}
			if _, ok := t.regexes[action.Find]; ok {
				continue
			}
			re, err := regexp.Compile(action.Find)
			if err != nil {
				return nil, eris.Wrapf(err, "invalid regex pattern on %q", rule.Field)
			}
			t.regexes[action.Find] = re
		}
	}

	return t, nil
}

// TransformRow applies every rule to the row in place. Columns a rule names
// but the row lacks are treated as empty and created.
func (t *Transformer) TransformRow(values map[string]string) error {
	for _, rule := range t.rules {
		result := values[rule.Field]
		for _, action := range rule.Actions {
			var err error
			result, err = t.apply(result, action, values)
			if err != nil {
				return eris.Wrapf(err, "transformation %q on %q failed", action.Type, rule.Field)
			}
		}
		values[rule.Field] = result
	}
	return nil
}

func knownAction(actionType string) bool {
	switch actionType {
	case "prepend_string", "append_string",
		"trim", "trim_left", "trim_right",
		"uppercase", "lowercase",
		"replace", "regex_replace",
		"pad_zeros_to_length", "ensure_length", "remove_leading_zeros",
		"strip_currency", "format_number",
		"extract_digits", "normalize_whitespace",
		"default_if_empty", "copy_from", "lookup":
		return true
	}
	return false
}

// apply runs a single action.
func (t *Transformer) apply(value string, action config.TransformationAction, row map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		re, ok := t.regexes[action.Find]
		if !ok {
			return value, nil
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "normalize_whitespace":
		return strings.TrimSpace(spacePattern.ReplaceAllString(value, " ")), nil

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// "6453800" -> "0006453800" with value "10"
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value, nil
		}
		return PadLeft(value, n, '0'), nil

	case "ensure_length":
		// Truncates from the right, pads with leading zeros.
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value, nil
		}
		if len(value) > n {
			return value[:n], nil
		}
		return PadLeft(value, n, '0'), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	case "strip_currency":
		// "$1,086.94" -> "1086.94", "SAR 4,076.03" -> "4076.03"
		cleaned := currencyPattern.ReplaceAllString(value, "")
		return strings.ReplaceAll(cleaned, ",", ""), nil

	case "format_number":
		// "1086.9" -> "1086.90" with value "2"; non-numbers pass through.
		places, err := strconv.Atoi(action.Value)
		if err != nil || places < 0 {
			return value, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return value, nil
		}
		return d.StringFixed(int32(places)), nil

	case "extract_digits":
		return strings.Join(digitsPattern.FindAllString(value, -1), ""), nil

	// =========================================================================
	// DEFAULTS AND LOOKUPS
	// =========================================================================

	case "default_if_empty":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "copy_from":
		if strings.TrimSpace(value) == "" {
			if other, ok := row[action.Value]; ok {
				return other, nil
			}
		}
		return value, nil

	case "lookup":
		// Unknown values pass through unless a default is given in Value.
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		if action.Value != "" {
			return action.Value, nil
		}
		return value, nil

	default:
		return "", eris.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads s on the left with padChar up to length runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
