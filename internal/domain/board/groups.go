package board

// Editor operations are pure: on success they return a deep copy of the
// index with Version incremented and UpdatedAt refreshed; on validation
// failure they return the input pointer untouched alongside the error, so a
// caller can prove no partial mutation happened by comparing references.

// UpdateGroupName renames a group.
func UpdateGroupName(idx *Index, groupID, name string) (*Index, error) {
	if err := validateName(name); err != nil {
		return idx, err
	}
	if idx.findGroup(groupID) == nil {
		return idx, ErrGroupNotFound
	}

	out := idx.clone()
	out.findGroup(groupID).Name = name
	out.touch()
	return out, nil
}

// MergeGroups consolidates the selected groups into the target. Session
// references are unioned with de-duplication and the target's total is
// recomputed from the de-duplicated set using the supplied ref-to-duration
// lookup, so a session shared between selected groups is counted once. The
// target keeps its name and organizer; the other selected groups are
// removed. Members are untouched.
func MergeGroups(idx *Index, targetID string, selected []string, refDurations map[string]int) (*Index, error) {
	if len(selected) < 2 {
		return idx, ErrNotEnoughGroups
	}
	targetSelected := false
	for _, id := range selected {
		if idx.findGroup(id) == nil {
			return idx, ErrGroupNotFound
		}
		if id == targetID {
			targetSelected = true
		}
	}
	if !targetSelected {
		return idx, ErrTargetNotSelected
	}

	out := idx.clone()

	selectedSet := map[string]bool{}
	for _, id := range selected {
		selectedSet[id] = true
	}

	var refs []string
	seen := map[string]bool{}
	addRefs := func(g *GroupSummary) {
		for _, ref := range g.SessionRevisions {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	addRefs(out.findGroup(targetID))
	for _, id := range selected {
		if id != targetID {
			addRefs(out.findGroup(id))
		}
	}

	total := 0
	for _, ref := range refs {
		total += refDurations[ref]
	}

	target := out.findGroup(targetID)
	target.SessionRevisions = refs
	target.TotalDurationSeconds = total

	groups := out.Groups[:0]
	for _, g := range out.Groups {
		if g.ID == targetID || !selectedSet[g.ID] {
			groups = append(groups, g)
		}
	}
	out.Groups = groups

	out.touch()
	return out, nil
}

// RemoveSessionFromGroup detaches one session revision from a group and
// rolls its contribution out of the group's and every affected member's
// totals. The caller supplies the session record so the subtraction is exact
// even for members with duplicate attendance entries in that session.
// Instructor counters are decremented with a floor at zero.
func RemoveSessionFromGroup(idx *Index, groupID, ref string, rec *SessionRecord) (*Index, error) {
	if groupID == "" || ref == "" || rec == nil || rec.Attendances == nil {
		return idx, ErrInvalidInput
	}
	group := idx.findGroup(groupID)
	if group == nil {
		return idx, ErrGroupNotFound
	}
	if !containsRef(group.SessionRevisions, ref) {
		return idx, ErrSessionNotInGroup
	}

	out := idx.clone()

	g := out.findGroup(groupID)
	g.SessionRevisions = removeRef(g.SessionRevisions, ref)
	g.TotalDurationSeconds -= rec.TotalDurationSeconds()

	perMember := map[string]int{}
	for _, a := range rec.Attendances {
		perMember[a.MemberID] += a.DurationSeconds
	}
	for memberID, seconds := range perMember {
		m := out.findMember(memberID)
		if m == nil {
			continue
		}
		m.SessionRevisions = removeRef(m.SessionRevisions, ref)
		m.TotalDurationSeconds -= seconds
	}

	for _, instructorID := range rec.Instructors {
		m := out.findMember(instructorID)
		if m != nil && m.InstructorCount > 0 {
			m.InstructorCount--
		}
	}

	out.touch()
	return out, nil
}

func containsRef(refs []string, ref string) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

func removeRef(refs []string, ref string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r != ref {
			out = append(out, r)
		}
	}
	return out
}
