package services

import (
	"strings"

	"github.com/fiszkiapp/fiszki-api/models"
)

// MaxTagLength caps a single tag's length in characters.
const MaxTagLength = 50

// ValidateCardFields enforces the flashcard content invariants shared by
// manual creation, edits and triage actions.
func ValidateCardFields(front, back string, tags []string) error {
	if strings.TrimSpace(front) == "" {
		return validationErrorf("Front text is required")
	}
	if strings.TrimSpace(back) == "" {
		return validationErrorf("Back text is required")
	}
	if len(tags) > models.MaxTagsPerFlashcard {
		return validationErrorf("Maximum 4 tags are allowed")
	}
	for _, tag := range tags {
		if len([]rune(tag)) > MaxTagLength {
			return validationErrorf("Tags must be at most 50 characters")
		}
	}
	return nil
}
