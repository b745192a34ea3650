package board

import "github.com/google/uuid"

// AddMember appends a member with zero totals and no session references,
// returning the minted member id.
func AddMember(idx *Index, name string) (*Index, string, error) {
	if err := validateName(name); err != nil {
		return idx, "", err
	}

	out := idx.clone()
	id := uuid.NewString()
	out.Members = append(out.Members, MemberSummary{
		ID:               id,
		Name:             name,
		SessionRevisions: []string{},
	})
	out.touch()
	return out, id, nil
}
