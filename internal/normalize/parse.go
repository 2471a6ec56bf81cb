package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"founder-bi-agent/internal/models"
)

var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "₹", "", "¥", "",
	",", "", " ", "", "\u00a0", "",
)

// isoLayouts are tried in order before the plain date pattern.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"20060102",
}

const plainDateLayout = "2006-01-02"

// NormalizeSector trims and lowercases a sector, defaulting blanks to "unknown".
func NormalizeSector(sector string) string {
	s := strings.ToLower(strings.TrimSpace(sector))
	if s == "" {
		return models.UnknownSector
	}
	return s
}

// ParseNumber converts a raw amount to a finite, non-negative number.
// Text has currency symbols and thousands separators removed first.
// Anything that does not convert yields 0.
func ParseNumber(raw interface{}) float64 {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0
	case string:
		cleaned := currencyStripper.Replace(strings.TrimSpace(v))
		if cleaned == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case fmt.Stringer:
		return ParseNumber(v.String())
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ParseDate accepts ISO-8601 first, then a plain YYYY-MM-DD date.
// Unparseable input yields nil, never an error.
func ParseDate(raw interface{}) *time.Time {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		t := *v
		return &t
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		if t, err := time.Parse(plainDateLayout, s); err == nil {
			return &t
		}
		return nil
	default:
		return nil
	}
}

// textValue renders a raw cell as trimmed text; ok is false when nothing usable is present.
func textValue(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case fmt.Stringer:
		s := strings.TrimSpace(v.String())
		return s, s != ""
	default:
		s := strings.TrimSpace(fmt.Sprint(v))
		return s, s != ""
	}
}

// isMissing reports absent or falsy raw values: nil, blank text, numeric zero, false.
// Textual "0" is present.
func isMissing(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case float32:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	case int32:
		return v == 0
	default:
		return false
	}
}
