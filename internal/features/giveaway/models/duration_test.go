package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"5 minutes", 5 * time.Minute},
		{"5m", 5 * time.Minute},
		{"45 menit", 45 * time.Minute},
		{"2 days", 48 * time.Hour},
		{"2d", 48 * time.Hour},
		{"3 hari", 72 * time.Hour},
		{"1 hour", time.Hour},
		{"6 jam", 6 * time.Hour},
		{"1 bulan", 30 * 24 * time.Hour},
		{"2 months", 60 * 24 * time.Hour},
		// Bare numbers and unknown units default to minutes.
		{"10", 10 * time.Minute},
		{"7 bananas", 7 * time.Minute},
		{"  15 Minutes  ", 15 * time.Minute},
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseDurationMilliseconds(t *testing.T) {
	// Values pinned in milliseconds to guard the synonym table.
	for in, wantMs := range map[string]int64{
		"5 minutes": 300000,
		"2 days":    172800000,
		"1 bulan":   2592000000,
		"10":        600000,
	} {
		got, err := ParseDuration(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, wantMs, got.Milliseconds(), "input %q", in)
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"0 minutes",
		"0",
		"-5 minutes",
		"minutes 5",
		"99999999999999999999 days",
	} {
		_, err := ParseDuration(in)
		assert.ErrorIs(t, err, ErrInvalidDuration, "input %q", in)
	}
}
