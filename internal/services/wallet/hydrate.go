package wallet

import (
	"math"
	"strings"
	"unicode"
)

// parseStoredBalance decodes a persisted balance. Like a lenient integer
// parse it reads an optional sign and the leading run of decimal digits after
// whitespace ("42abc" is 42). No digits or a negative value yields 0; values
// above ceiling are clamped to it.
func parseStoredBalance(raw string, ceiling int64) (int64, string) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	var (
		value    int64
		digits   int
		overflow bool
	)
	for ; digits < len(s); digits++ {
		c := s[digits]
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if value > (math.MaxInt64-d)/10 {
			overflow = true
			continue
		}
		value = value*10 + d
	}

	switch {
	case digits == 0:
		return 0, HydrationInvalid
	case negative && (value > 0 || overflow):
		return 0, HydrationInvalid
	case overflow || value > ceiling:
		return ceiling, HydrationClamped
	}
	return value, HydrationLoaded
}
