package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate reports whether expr is a well-formed five-field cron expression.
func Validate(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

var weekdays = map[string]string{
	"0": "Sunday", "1": "Monday", "2": "Tuesday", "3": "Wednesday",
	"4": "Thursday", "5": "Friday", "6": "Saturday", "7": "Sunday",
	"SUN": "Sunday", "MON": "Monday", "TUE": "Tuesday", "WED": "Wednesday",
	"THU": "Thursday", "FRI": "Friday", "SAT": "Saturday",
}

// Describe translates a cron expression into human-readable follow-up
// text. Unrecognized but valid expressions fall back to quoting the
// expression itself; invalid ones return "".
func Describe(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	if err := Validate(expr); err != nil {
		return ""
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Sprintf("on schedule %q", expr)
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]

	at := clockTime(minute, hour)

	switch {
	case dom == "*" && month == "*" && dow == "*":
		if at == "" {
			return fmt.Sprintf("on schedule %q", expr)
		}
		return "every day at " + at

	case dom == "*" && month == "*":
		if day, ok := weekdays[strings.ToUpper(dow)]; ok && at != "" {
			return "every " + day + " at " + at
		}

	case month == "*" && dow == "*":
		if strings.HasPrefix(dom, "*/") {
			if n, err := strconv.Atoi(dom[2:]); err == nil && at != "" {
				if n == 1 {
					return "every day at " + at
				}
				return fmt.Sprintf("every %d days at %s", n, at)
			}
		}
		if d, err := strconv.Atoi(dom); err == nil && at != "" {
			return fmt.Sprintf("on day %d of every month at %s", d, at)
		}
	}

	return fmt.Sprintf("on schedule %q", expr)
}

// clockTime renders fixed minute/hour fields as "15:04"; "" when
// either field is not a plain number.
func clockTime(minute, hour string) string {
	m, err := strconv.Atoi(minute)
	if err != nil {
		return ""
	}
	h, err := strconv.Atoi(hour)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
