package board

import (
	"strings"
	"time"
)

// untitledSession replaces an explicitly blanked title on a new revision.
const untitledSession = "no title"

// RevisionOptions carries the fields an edit may change on a session. Nil
// means "keep the current value".
type RevisionOptions struct {
	Title       *string
	Instructors []string
}

// NewRevision builds revision N+1 of a session from the revision named by
// ref. Revisions are append-only: the source record is never modified, and
// callers repoint the aggregate's references separately (see
// ApplySessionRevision). Returns the new record and its reference.
func NewRevision(ref string, rec *SessionRecord, opts RevisionOptions) (*SessionRecord, string, error) {
	if rec == nil {
		return nil, "", ErrInvalidInput
	}
	sessionID, revision, err := ParseRef(ref)
	if err != nil {
		return nil, "", err
	}
	for _, id := range opts.Instructors {
		if strings.TrimSpace(id) == "" {
			return nil, "", ErrInvalidInput
		}
	}

	title := rec.Title
	if opts.Title != nil {
		title = *opts.Title
	}
	if title == "" {
		title = untitledSession
	}

	instructors := opts.Instructors
	if instructors == nil {
		instructors = rec.Instructors
	}
	if instructors == nil {
		instructors = []string{}
	}

	next := &SessionRecord{
		SessionID:   sessionID,
		Revision:    revision + 1,
		Title:       title,
		StartedAt:   rec.StartedAt,
		EndedAt:     rec.EndedAt,
		Attendances: append([]Attendance(nil), rec.Attendances...),
		Instructors: append([]string(nil), instructors...),
		CreatedAt:   time.Now(),
	}
	return next, FormatRef(sessionID, next.Revision), nil
}

// ApplySessionRevision repoints every group and member reference from oldRef
// to newRef and applies the instructor-set difference to member counters.
// Counters never go below zero. Single version bump. When nothing references
// oldRef anymore (a concurrent editor removed the session) it fails instead
// of counting instructors for an unreferenced session.
func ApplySessionRevision(idx *Index, oldRef, newRef string, oldInstructors, newInstructors []string) (*Index, error) {
	if _, _, err := ParseRef(oldRef); err != nil {
		return idx, err
	}
	if _, _, err := ParseRef(newRef); err != nil {
		return idx, err
	}
	if !refInIndex(idx, oldRef) {
		return idx, ErrRefNotFound
	}

	out := idx.clone()

	for i := range out.Groups {
		out.Groups[i].SessionRevisions = replaceRef(out.Groups[i].SessionRevisions, oldRef, newRef)
	}
	for i := range out.Members {
		out.Members[i].SessionRevisions = replaceRef(out.Members[i].SessionRevisions, oldRef, newRef)
	}

	was := map[string]bool{}
	for _, id := range oldInstructors {
		was[id] = true
	}
	now := map[string]bool{}
	for _, id := range newInstructors {
		now[id] = true
	}
	for id := range now {
		if !was[id] {
			if m := out.findMember(id); m != nil {
				m.InstructorCount++
			}
		}
	}
	for id := range was {
		if !now[id] {
			if m := out.findMember(id); m != nil && m.InstructorCount > 0 {
				m.InstructorCount--
			}
		}
	}

	out.touch()
	return out, nil
}

func refInIndex(idx *Index, ref string) bool {
	for _, g := range idx.Groups {
		if containsRef(g.SessionRevisions, ref) {
			return true
		}
	}
	for _, m := range idx.Members {
		if containsRef(m.SessionRevisions, ref) {
			return true
		}
	}
	return false
}

// replaceRef swaps oldRef for newRef, de-duplicating when newRef is already
// present.
func replaceRef(refs []string, oldRef, newRef string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r == oldRef {
			r = newRef
		}
		if !containsRef(out, r) {
			out = append(out, r)
		}
	}
	return out
}
