package board

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nuitsjp/teams-board/internal/domain/report"
)

// Merge folds one parsed session into the aggregate as revision 0. Groups
// and members are resolved by display name: the upstream export carries no
// stable identifiers, so name matching is what lets re-imports of the same
// recurring series converge onto one group and one member per person. The
// input index is never mutated; the returned SessionRecord carries resolved
// member ids and an empty instructor list (instructor status is assigned
// only through explicit edits).
func Merge(idx *Index, parsed *report.ParsedSession) (*Index, *SessionRecord, []string) {
	out := idx.clone()
	ref := FormatRef(parsed.SessionID, 0)

	sessionTotal := 0
	for _, a := range parsed.Attendances {
		sessionTotal += a.DurationSeconds
	}

	group := findGroupByName(out, parsed.GroupName)
	if group == nil {
		out.Groups = append(out.Groups, GroupSummary{
			ID:               uuid.NewString(),
			Name:             parsed.GroupName,
			SessionRevisions: []string{},
		})
		group = &out.Groups[len(out.Groups)-1]
	}
	group.SessionRevisions = append(group.SessionRevisions, ref)
	group.TotalDurationSeconds += sessionTotal

	var warnings []string
	attendances := make([]Attendance, 0, len(parsed.Attendances))
	seen := map[string]bool{}
	for _, a := range parsed.Attendances {
		member := findMemberByName(out, a.MemberName)
		if member == nil {
			out.Members = append(out.Members, MemberSummary{
				ID:               uuid.NewString(),
				Name:             a.MemberName,
				SessionRevisions: []string{},
			})
			member = &out.Members[len(out.Members)-1]
		}
		if seen[member.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate attendance rows for %q merged into one member", a.MemberName))
		} else {
			seen[member.ID] = true
			member.SessionRevisions = append(member.SessionRevisions, ref)
		}
		member.TotalDurationSeconds += a.DurationSeconds
		attendances = append(attendances, Attendance{
			MemberID:        member.ID,
			DurationSeconds: a.DurationSeconds,
		})
	}

	rec := &SessionRecord{
		SessionID:   parsed.SessionID,
		Revision:    0,
		StartedAt:   parsed.StartedAt,
		EndedAt:     parsed.EndedAt,
		Attendances: attendances,
		Instructors: []string{},
		CreatedAt:   time.Now(),
	}

	out.touch()
	return out, rec, warnings
}

// Name resolution is exact-match. Keeping it behind these helpers means the
// policy can move to case folding or fuzzy matching without touching the
// aggregate's shape.

func findGroupByName(idx *Index, name string) *GroupSummary {
	for i := range idx.Groups {
		if idx.Groups[i].Name == name {
			return &idx.Groups[i]
		}
	}
	return nil
}

func findMemberByName(idx *Index, name string) *MemberSummary {
	for i := range idx.Members {
		if idx.Members[i].Name == name {
			return &idx.Members[i]
		}
	}
	return nil
}
