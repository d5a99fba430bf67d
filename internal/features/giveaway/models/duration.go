package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var ErrInvalidDuration = errors.New("invalid duration")

// Unit synonym table. Bare numbers and unrecognized units default to
// minutes; a "month" is exactly 30 days, a deliberate approximation.
var durationUnits = map[string]time.Duration{
	"m":       time.Minute,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"menit":   time.Minute,

	"h":     time.Hour,
	"hr":    time.Hour,
	"hrs":   time.Hour,
	"hour":  time.Hour,
	"hours": time.Hour,
	"jam":   time.Hour,

	"d":    24 * time.Hour,
	"day":  24 * time.Hour,
	"days": 24 * time.Hour,
	"hari": 24 * time.Hour,

	"month":  30 * 24 * time.Hour,
	"months": 30 * 24 * time.Hour,
	"bulan":  30 * 24 * time.Hour,
	"bln":    30 * 24 * time.Hour,
}

// ParseDuration turns a free-form human duration ("5 minutes", "2d",
// "1 bulan", "10") into a time.Duration. It fails when no leading
// positive integer is present.
func ParseDuration(text string) (time.Duration, error) {
	s := strings.TrimSpace(text)

	i := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if i == 0 {
		return 0, ErrInvalidDuration
	}

	value, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil || value <= 0 {
		return 0, ErrInvalidDuration
	}

	unit := time.Minute
	if token := strings.ToLower(strings.TrimSpace(s[i:])); token != "" {
		if u, ok := durationUnits[token]; ok {
			unit = u
		}
	}

	d := time.Duration(value) * unit
	if d/unit != time.Duration(value) || d <= 0 {
		return 0, ErrInvalidDuration
	}
	return d, nil
}
