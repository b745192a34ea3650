package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SchemaVersion marks the on-disk format of the dashboard index.
const SchemaVersion = 1

// Index is the aggregate document summarizing all groups, members and
// organizers. There is exactly one per deployment, stored as a single JSON
// object. It is never mutated in place: every edit produces a new Index with
// Version incremented, and Version doubles as the optimistic-concurrency
// token compared before each write.
type Index struct {
	SchemaVersion int                `json:"schemaVersion"`
	Version       int                `json:"version"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	Groups        []GroupSummary     `json:"groups"`
	Members       []MemberSummary    `json:"members"`
	Organizers    []OrganizerSummary `json:"organizers,omitempty"`
}

// GroupSummary aggregates the sessions of one recurring meeting series.
// TotalDurationSeconds is the sum of every attendance duration across the
// referenced session revisions.
type GroupSummary struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	OrganizerID          *string  `json:"organizerId"`
	TotalDurationSeconds int      `json:"totalDurationSeconds"`
	SessionRevisions     []string `json:"sessionRevisions"`
}

// MemberSummary aggregates one attendee across all referenced sessions.
// InstructorCount is the number of referenced sessions that list the member
// as an instructor.
type MemberSummary struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	TotalDurationSeconds int      `json:"totalDurationSeconds"`
	InstructorCount      int      `json:"instructorCount"`
	SessionRevisions     []string `json:"sessionRevisions"`
}

// OrganizerSummary names a meeting organizer. Groups point at organizers via
// a weak reference; deleting an organizer resets those references to nil.
type OrganizerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attendance is one member's time in one session.
type Attendance struct {
	MemberID        string `json:"memberId"`
	DurationSeconds int    `json:"durationSeconds"`
}

// SessionRecord is one immutable revision of a session. Edits never modify a
// revision; they append revision N+1 and repoint the aggregate's references.
// StartedAt and EndedAt are RFC3339 strings because the upstream export may
// carry timestamps the parser cannot interpret, which degrade to "".
type SessionRecord struct {
	SessionID   string       `json:"sessionId"`
	Revision    int          `json:"revision"`
	Title       string       `json:"title,omitempty"`
	StartedAt   string       `json:"startedAt"`
	EndedAt     string       `json:"endedAt,omitempty"`
	Attendances []Attendance `json:"attendances"`
	Instructors []string     `json:"instructors"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// TotalDurationSeconds sums every attendance duration in the session.
func (r *SessionRecord) TotalDurationSeconds() int {
	total := 0
	for _, a := range r.Attendances {
		total += a.DurationSeconds
	}
	return total
}

// NewIndex returns an empty aggregate at version 0.
func NewIndex() *Index {
	return &Index{
		SchemaVersion: SchemaVersion,
		Groups:        []GroupSummary{},
		Members:       []MemberSummary{},
	}
}

// FormatRef builds the "<sessionId>/<revision>" reference string, the only
// way groups and members point at session revisions.
func FormatRef(sessionID string, revision int) string {
	return fmt.Sprintf("%s/%d", sessionID, revision)
}

// ParseRef splits a session reference into its session id and revision.
func ParseRef(ref string) (sessionID string, revision int, err error) {
	i := strings.LastIndex(ref, "/")
	if i <= 0 || i == len(ref)-1 {
		return "", 0, ErrInvalidRef
	}
	rev, err := strconv.Atoi(ref[i+1:])
	if err != nil || rev < 0 {
		return "", 0, ErrInvalidRef
	}
	return ref[:i], rev, nil
}

// clone returns a deep copy of the index. Editor operations work on the copy
// so a failed or racing operation never observes partial mutation.
func (idx *Index) clone() *Index {
	out := &Index{
		SchemaVersion: idx.SchemaVersion,
		Version:       idx.Version,
		UpdatedAt:     idx.UpdatedAt,
		Groups:        make([]GroupSummary, len(idx.Groups)),
		Members:       make([]MemberSummary, len(idx.Members)),
	}
	for i, g := range idx.Groups {
		g.SessionRevisions = append([]string(nil), g.SessionRevisions...)
		if g.OrganizerID != nil {
			id := *g.OrganizerID
			g.OrganizerID = &id
		}
		out.Groups[i] = g
	}
	for i, m := range idx.Members {
		m.SessionRevisions = append([]string(nil), m.SessionRevisions...)
		out.Members[i] = m
	}
	if idx.Organizers != nil {
		out.Organizers = append([]OrganizerSummary(nil), idx.Organizers...)
	}
	return out
}

// touch stamps a successful edit: version bump plus a fresh timestamp.
func (idx *Index) touch() {
	idx.SchemaVersion = SchemaVersion
	idx.Version++
	idx.UpdatedAt = time.Now()
}

func (idx *Index) findGroup(id string) *GroupSummary {
	for i := range idx.Groups {
		if idx.Groups[i].ID == id {
			return &idx.Groups[i]
		}
	}
	return nil
}

func (idx *Index) findMember(id string) *MemberSummary {
	for i := range idx.Members {
		if idx.Members[i].ID == id {
			return &idx.Members[i]
		}
	}
	return nil
}

func (idx *Index) findOrganizer(id string) *OrganizerSummary {
	for i := range idx.Organizers {
		if idx.Organizers[i].ID == id {
			return &idx.Organizers[i]
		}
	}
	return nil
}
