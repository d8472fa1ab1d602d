package postgresengine

import (
	"fmt"
	"regexp"
	"strconv"
)

var resampleRulePattern = regexp.MustCompile(`^(\d*)(ms|L|s|S|min|T|h|H|D|W)$`)

const (
	defaultBucketOrigin = "2000-01-01 00:00:00+00"
	weeklyBucketOrigin  = "2000-01-03 00:00:00+00" // a Monday
)

// resampleRule is a parsed resample rule such as "15min".
type resampleRule struct {
	interval string
	origin   string
}

// parseResampleRule parses a rule of the form <n><unit>. n defaults to 1.
//
// Units: ms/L milliseconds, s/S seconds, min/T minutes, h/H hours, D days, W weeks (starting Monday).
func parseResampleRule(rule string) (resampleRule, error) {
	match := resampleRulePattern.FindStringSubmatch(rule)
	if match == nil {
		return resampleRule{}, fmt.Errorf("%w: %q", ErrInvalidResampleRule, rule)
	}

	n := int64(1)
	if match[1] != "" {
		parsed, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || parsed < 1 {
			return resampleRule{}, fmt.Errorf("%w: %q", ErrInvalidResampleRule, rule)
		}
		n = parsed
	}

	origin := defaultBucketOrigin

	var unit string
	switch match[2] {
	case "ms", "L":
		unit = "milliseconds"
	case "s", "S":
		unit = "seconds"
	case "min", "T":
		unit = "minutes"
	case "h", "H":
		unit = "hours"
	case "D":
		unit = "days"
	case "W":
		unit = "days"
		n *= 7
		origin = weeklyBucketOrigin
	}

	return resampleRule{interval: fmt.Sprintf("%d %s", n, unit), origin: origin}, nil
}
