package report

import (
	"regexp"
	"strconv"
	"strings"
)

// durationPattern matches the localized attendance duration grammar,
// e.g. "1 時間 30 分 10 秒", "45 分", "90 秒". Every contiguous subset of
// hours/minutes/seconds is accepted.
var durationPattern = regexp.MustCompile(`^(?:(\d+)\s*時間)?\s*(?:(\d+)\s*分)?\s*(?:(\d+)\s*秒)?$`)

// parseDuration converts a localized duration string to seconds. The second
// return value is false when the string does not match the grammar.
func parseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	if m[1] == "" && m[2] == "" && m[3] == "" {
		return 0, false
	}
	total := 0
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		total += h * 3600
	}
	if m[2] != "" {
		min, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		total += min * 60
	}
	if m[3] != "" {
		sec, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, false
		}
		total += sec
	}
	return total, true
}
