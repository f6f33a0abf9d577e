package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	daysParam     = "days"
	secondsPerDay = 86400
)

// IsNumeric reports whether v is a number or a string holding one.
func IsNumeric(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case json.Number:
		return parseNumber(x.String())
	case string:
		return parseNumber(x)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// DaysCutoff converts a day count into the Unix timestamp that many days before now.
func DaysCutoff(days float64, now time.Time) int64 {
	return int64(float64(now.Unix()) - days*secondsPerDay)
}

// BindValue returns the value bound for placeholder name. A numeric "days" value
// becomes a Unix timestamp cutoff; everything else is passed through, with
// non-primitive values coerced to string.
func BindValue(name string, v any, now time.Time) any {
	if name == daysParam {
		if days, ok := toFloat(v); ok {
			return DaysCutoff(days, now)
		}
	}
	return coerce(v)
}

func coerce(v any) any {
	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
