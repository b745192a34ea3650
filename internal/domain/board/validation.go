package board

import (
	"strings"
	"unicode/utf8"
)

const maxNameLength = 256

// validateName checks a display name for groups, members and organizers:
// non-empty after trimming and at most 256 characters.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}
