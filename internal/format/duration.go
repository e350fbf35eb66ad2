// Package format holds the small string/time helpers shared by the
// normalizers and the presentation layer.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISODuration reads compact ISO-8601 durations such as PT2H10M, PT45M,
// PT3H or P1DT2H. Missing hour or minute parts count as zero, days fold into
// hours, minutes above 59 carry over and seconds are dropped.
func ParseISODuration(s string) (hours, minutes int, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, 0, false
	}
	s = s[1:]

	total := 0
	inTime := false
	seen := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			if inTime || num != "" {
				return 0, 0, false
			}
			inTime = true
			continue
		}
		if num == "" {
			return 0, 0, false
		}
		v, err := strconv.Atoi(num)
		if err != nil {
			return 0, 0, false
		}
		num = ""
		switch {
		case r == 'D' && !inTime:
			total += v * 24 * 60
		case r == 'H' && inTime:
			total += v * 60
		case r == 'M' && inTime:
			total += v
		case r == 'S' && inTime:
		default:
			return 0, 0, false
		}
		seen = true
	}
	if num != "" || !seen {
		return 0, 0, false
	}
	return total / 60, total % 60, true
}

// Duration renders an ISO-8601 duration as "{h}h {m}m". Input it cannot
// parse is returned unchanged.
func Duration(s string) string {
	h, m, ok := ParseISODuration(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// Minutes renders a minute count as "{h}h {m}m".
func Minutes(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// DurationMinutes is ParseISODuration folded into a single minute count.
func DurationMinutes(s string) (int, bool) {
	h, m, ok := ParseISODuration(s)
	return h*60 + m, ok
}
