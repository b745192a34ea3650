package report

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// Anchors and headers of the Teams attendance export (Japanese locale).
const (
	summaryAnchor      = "1. 要約"
	participantsAnchor = "2. 参加者"
	activityAnchor     = "3. "

	titleKey = "会議タイトル"
	startKey = "開始時刻"
	endKey   = "終了時刻"

	meetingSuffix = "での会議"

	nameHeader             = "名前"
	emailHeader            = "メール"
	emailFallbackHeader    = "電子メール"
	durationHeader         = "会議内持続時間"
	durationFallbackHeader = "参加時間"
)

// Parse decodes a raw attendance export into a ParsedSession. The export is
// UTF-16LE text with three ordered sections: summary, participants and an
// optional activity trailer. Row-level problems are returned as warnings and
// the row dropped; a missing participants section or zero usable rows is an
// error. A fresh session id is minted on every call.
func Parse(data []byte) (*ParsedSession, []string, error) {
	text, err := decodeUTF16LE(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	summaryLines, participantLines, ok := splitSections(text)
	if !ok {
		return nil, nil, ErrUnrecognizedFormat
	}

	title, startedAt, endedAt := parseSummary(summaryLines)

	attendances, warnings, err := parseParticipants(participantLines)
	if err != nil {
		return nil, nil, err
	}

	return &ParsedSession{
		SessionID:   uuid.NewString(),
		GroupName:   title,
		Date:        dateOf(startedAt),
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		Attendances: attendances,
	}, warnings, nil
}

func decodeUTF16LE(data []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(out), "\r\n", "\n"), nil
}

// splitSections divides the export into summary and participant lines using
// the numbered anchor prefixes. The participants anchor is mandatory; the
// activity section, when present, terminates the participant block.
func splitSections(text string) (summary, participants []string, ok bool) {
	lines := strings.Split(text, "\n")

	start := 0
	for i, line := range lines {
		if strings.HasPrefix(line, summaryAnchor) {
			start = i + 1
			break
		}
	}

	partAt := -1
	for i, line := range lines {
		if strings.HasPrefix(line, participantsAnchor) {
			partAt = i
			break
		}
	}
	if partAt < 0 {
		return nil, nil, false
	}

	end := len(lines)
	for i := partAt + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], activityAnchor) {
			end = i
			break
		}
	}

	summaryEnd := partAt
	if start > summaryEnd {
		start = 0
	}
	return lines[start:summaryEnd], lines[partAt+1 : end], true
}

func parseSummary(lines []string) (title, startedAt, endedAt string) {
	for _, line := range lines {
		key, value, found := strings.Cut(line, "\t")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case titleKey:
			title = cleanTitle(value)
		case startKey:
			startedAt = parseTimestamp(strings.TrimSpace(value))
		case endKey:
			endedAt = parseTimestamp(strings.TrimSpace(value))
		}
	}
	return title, startedAt, endedAt
}

// cleanTitle strips wrapping quotes, then the localized "in meeting" suffix,
// then quotes again: a quoted title may carry the suffix outside or inside
// the quotes depending on the export variant.
func cleanTitle(raw string) string {
	s := stripQuotes(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.TrimSuffix(s, meetingSuffix))
	return stripQuotes(s)
}

func stripQuotes(s string) string {
	for len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func parseParticipants(lines []string) ([]ParsedAttendance, []string, error) {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if len(rows) < 2 {
		return nil, nil, ErrNoParticipants
	}

	header := rows[0]
	nameCol := findColumn(header, nameHeader)
	if nameCol < 0 {
		nameCol = 0
	}
	emailCol := findColumn(header, emailHeader)
	if emailCol < 0 {
		emailCol = findColumn(header, emailFallbackHeader)
	}
	durationCol := findColumn(header, durationHeader)
	if durationCol < 0 {
		durationCol = findColumn(header, durationFallbackHeader)
	}

	var attendances []ParsedAttendance
	var warnings []string
	for i, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("participant row %d: missing name, row skipped", i+1))
			continue
		}
		rawDuration := strings.TrimSpace(cell(row, durationCol))
		seconds, ok := parseDuration(rawDuration)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("participant row %d (%s): unrecognized duration %q, row skipped", i+1, name, rawDuration))
			continue
		}
		attendances = append(attendances, ParsedAttendance{
			MemberName:      name,
			MemberEmail:     strings.TrimSpace(cell(row, emailCol)),
			DurationSeconds: seconds,
		})
	}
	if len(attendances) == 0 {
		return nil, nil, ErrNoParticipants
	}
	return attendances, warnings, nil
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func dateOf(rfc3339 string) string {
	if len(rfc3339) < 10 {
		return ""
	}
	return rfc3339[:10]
}
