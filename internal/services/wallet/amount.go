package wallet

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseAmount coerces a loosely typed amount from a request into smallest
// currency units. The policy is permissive: anything that is not a number
// becomes 0, which every operation treats as a no-op.
//   - numbers are truncated toward zero and saturate at the int64 range,
//     infinities included
//   - strings are trimmed and parsed as decimal numbers ("12", " 7.9 ", "1e3")
//   - true is 1; false, null, missing, objects and arrays are 0
func ParseAmount(raw gjson.Result) int64 {
	switch raw.Type {
	case gjson.Number:
		return truncateAmount(raw.Num)
	case gjson.String:
		return parseAmountString(raw.Str)
	case gjson.True:
		return 1
	default:
		return 0
	}
}

// ParseAmountString applies the ParseAmount policy to a bare string such as a
// query parameter.
func ParseAmountString(s string) int64 {
	return parseAmountString(s)
}

func parseAmountString(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return truncateAmount(f)
}

func truncateAmount(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
