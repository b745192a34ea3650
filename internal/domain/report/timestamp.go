package report

import (
	"regexp"
	"strconv"
	"time"
)

// The export carries two timestamp shapes depending on the client that
// produced it: "2023/4/1 10:00:25" (4-digit year, 24-hour clock) and
// "4/1/23 10:00:25 PM" (2-digit year, 12-hour clock with meridiem marker).
var (
	timestamp24Pattern = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})[,]?\s+(\d{1,2}):(\d{2}):(\d{2})$`)
	timestamp12Pattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})[,]?\s+(\d{1,2}):(\d{2}):(\d{2})\s*(AM|PM)$`)
)

// parseTimestamp converts a raw export timestamp to RFC3339 in local time.
// An unrecognized value degrades to "" rather than failing the parse.
func parseTimestamp(raw string) string {
	if t, ok := parse24(raw); ok {
		return t.Format(time.RFC3339)
	}
	if t, ok := parse12(raw); ok {
		return t.Format(time.RFC3339)
	}
	return ""
}

func parse24(raw string) (time.Time, bool) {
	m := timestamp24Pattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	year := atoi(m[1])
	month := atoi(m[2])
	day := atoi(m[3])
	hour := atoi(m[4])
	return buildTime(year, month, day, hour, atoi(m[5]), atoi(m[6]))
}

func parse12(raw string) (time.Time, bool) {
	m := timestamp12Pattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month := atoi(m[1])
	day := atoi(m[2])
	year := atoi(m[3])
	// Two-digit years 50-99 belong to the 1900s, the rest to the 2000s.
	if year >= 50 {
		year += 1900
	} else {
		year += 2000
	}
	hour := atoi(m[4]) % 12
	if m[7] == "PM" {
		hour += 12
	}
	return buildTime(year, month, day, hour, atoi(m[5]), atoi(m[6]))
}

func buildTime(year, month, day, hour, minute, second int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
