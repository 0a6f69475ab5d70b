package cutoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	day := 24 * time.Hour
	cases := map[string]time.Duration{
		"30 days":           30 * day,
		"1 day":             day,
		"1 week 2 days":     9 * day,
		"1 week and 2 days": 9 * day,
		"2.hours":           2 * time.Hour,
		"1h30m":             90 * time.Minute,
		"3 months ago":      90 * day,
		"1 year":            365 * day,
		"90":                90 * time.Second,
		"  15 Minutes ":     15 * time.Minute,
		"1w, 1d":            8 * day,
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := ParseDuration(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, input := range []string{"", "soon", "3 fortnights", "days"} {
		_, err := ParseDuration(input)
		assert.Error(t, err, input)
	}
}
