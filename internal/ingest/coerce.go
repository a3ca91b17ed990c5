package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/memodeck/memodeck/internal/fsrs"
)

var stateByName = map[string]fsrs.State{
	"NEW":        fsrs.New,
	"LEARNING":   fsrs.Learning,
	"REVIEW":     fsrs.Review,
	"RELEARNING": fsrs.Relearning,
}

// parseState coerces the state field: it must be a string naming one
// of the four states, compared case-insensitively.
func parseState(v any) (fsrs.State, error) {
	if v == nil {
		return 0, &FieldError{"state", nil, "is missing"}
	}
	s, ok := v.(string)
	if !ok {
		return 0, &FieldError{"state", v, "must be a string"}
	}
	state, ok := stateByName[strings.ToUpper(s)]
	if !ok {
		return 0, &FieldError{"state", s, "is not a state: must be one of NEW, LEARNING, REVIEW, RELEARNING"}
	}
	return state, nil
}

// instantLayouts are tried in order when an instant arrives as a
// string.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseInstant coerces a date-like value: an actual time.Time or a
// parseable timestamp string.
func parseInstant(field string, v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, &FieldError{field, nil, "is missing"}
	case time.Time:
		if !fsrs.ValidTime(x) {
			return time.Time{}, &FieldError{field, x, "is not a valid date"}
		}
		return x, nil
	case string:
		for _, layout := range instantLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, &FieldError{field, x, "cannot be parsed as a date"}
	default:
		return time.Time{}, &FieldError{field, v, "cannot be parsed as a date"}
	}
}

// parseNumber coerces a numeric value, accepting native numbers,
// json.Number and numeric strings.
func parseNumber(field string, v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, &FieldError{field, nil, "is missing"}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, &FieldError{field, x, "is not a finite number"}
		}
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, &FieldError{field, x, "cannot be parsed as a number"}
		}
		return n, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, &FieldError{field, x, "cannot be parsed as a number"}
		}
		return n, nil
	default:
		return 0, &FieldError{field, v, "cannot be parsed as a number"}
	}
}

// parseInteger coerces a whole number. Fractional values are rejected
// rather than truncated.
func parseInteger(field string, v any) (int, error) {
	n, err := parseNumber(field, v)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, &FieldError{field, v, "must be an integer"}
	}
	return int(n), nil
}
