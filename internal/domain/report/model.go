package report

// ParsedSession is the transient product of parsing one attendance export.
// It is keyed by display names, never persisted as-is; entity resolution to
// stable ids happens when the session is merged into the dashboard index.
type ParsedSession struct {
	SessionID   string
	GroupName   string
	Date        string
	StartedAt   string
	EndedAt     string
	Attendances []ParsedAttendance
}

// ParsedAttendance is one participant row of the export.
type ParsedAttendance struct {
	MemberName      string
	MemberEmail     string
	DurationSeconds int
}
