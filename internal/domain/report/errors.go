package report

import "errors"

var (
	// ErrUnrecognizedFormat indicates the participants section marker is
	// missing and the file is not a Teams attendance report.
	ErrUnrecognizedFormat = errors.New("not in expected report format")
	// ErrNoParticipants indicates the participants section parsed to zero
	// usable rows.
	ErrNoParticipants = errors.New("no participant data found")
)
