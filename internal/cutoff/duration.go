package cutoff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

var (
	durationToken = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]*)`)
	dottedUnit    = regexp.MustCompile(`(\d)\.([a-z])`)
	fillerWords   = strings.NewReplacer(",", " ", " and ", " ", "ago", " ", "+", " ")
)

// unitSuffix maps the unit spellings accepted in cutoff settings to str2duration suffixes.
var unitSuffix = map[string]string{
	"":   "s",
	"ns": "ns", "us": "us", "ms": "ms",
	"s": "s", "sec": "s", "secs": "s", "second": "s", "seconds": "s",
	"m": "m", "min": "m", "mins": "m", "minute": "m", "minutes": "m",
	"h": "h", "hr": "h", "hrs": "h", "hour": "h", "hours": "h",
	"d": "d", "day": "d", "days": "d",
	"w": "w", "wk": "w", "wks": "w", "week": "w", "weeks": "w",
}

// daysPerUnit covers the calendar units str2duration has no suffix for.
var daysPerUnit = map[string]float64{
	"mo": 30, "month": 30, "months": 30,
	"y": 365, "yr": 365, "yrs": 365, "year": 365, "years": 365,
}

// ParseDuration parses a human duration such as "30 days", "1 week 2 days", "2.hours",
// "1h30m" or "3 months ago". A bare number is seconds. Months are 30 days and years 365.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	s = dottedUnit.ReplaceAllString(s, "$1 $2")
	s = " " + fillerWords.Replace(s) + " "

	var normalized strings.Builder
	rest := durationToken.ReplaceAllStringFunc(s, func(token string) string {
		m := durationToken.FindStringSubmatch(token)
		number, unit := m[1], m[2]
		if suffix, ok := unitSuffix[unit]; ok {
			normalized.WriteString(number + suffix)
			return ""
		}
		if days, ok := daysPerUnit[unit]; ok {
			n, err := strconv.ParseFloat(number, 64)
			if err != nil {
				return token
			}
			normalized.WriteString(strconv.FormatFloat(n*days, 'f', -1, 64) + "d")
			return ""
		}
		return token
	})
	if strings.TrimSpace(rest) != "" {
		return 0, fmt.Errorf("unrecognized duration %q", input)
	}
	if normalized.Len() == 0 {
		return 0, fmt.Errorf("no duration found in %q", input)
	}
	return str2duration.ParseDuration(normalized.String())
}
