package board

import "github.com/google/uuid"

// AddOrganizer appends an organizer, returning the minted id.
func AddOrganizer(idx *Index, name string) (*Index, string, error) {
	if err := validateName(name); err != nil {
		return idx, "", err
	}

	out := idx.clone()
	id := uuid.NewString()
	out.Organizers = append(out.Organizers, OrganizerSummary{ID: id, Name: name})
	out.touch()
	return out, id, nil
}

// RemoveOrganizer deletes an organizer. Every group pointing at it has its
// OrganizerID reset to nil: the reference is a weak lookup, not ownership.
func RemoveOrganizer(idx *Index, organizerID string) (*Index, error) {
	if organizerID == "" {
		return idx, ErrInvalidInput
	}
	if idx.findOrganizer(organizerID) == nil {
		return idx, ErrOrganizerNotFound
	}

	out := idx.clone()
	organizers := out.Organizers[:0]
	for _, o := range out.Organizers {
		if o.ID != organizerID {
			organizers = append(organizers, o)
		}
	}
	out.Organizers = organizers

	for i := range out.Groups {
		if out.Groups[i].OrganizerID != nil && *out.Groups[i].OrganizerID == organizerID {
			out.Groups[i].OrganizerID = nil
		}
	}

	out.touch()
	return out, nil
}

// UpdateGroupOrganizer points a group at an organizer; nil clears the
// assignment.
func UpdateGroupOrganizer(idx *Index, groupID string, organizerID *string) (*Index, error) {
	if idx.findGroup(groupID) == nil {
		return idx, ErrGroupNotFound
	}
	if organizerID != nil && idx.findOrganizer(*organizerID) == nil {
		return idx, ErrOrganizerNotFound
	}

	out := idx.clone()
	if organizerID != nil {
		id := *organizerID
		out.findGroup(groupID).OrganizerID = &id
	} else {
		out.findGroup(groupID).OrganizerID = nil
	}
	out.touch()
	return out, nil
}
