package utils

import "strings"

const visibleUserIDChars = 3

// MaskUserID keeps the first few characters of a user id and redacts the rest.
// Ids too short to keep three characters keep only the first one.
func MaskUserID(userID string) string {
	runes := []rune(userID)
	if len(runes) == 0 {
		return ""
	}

	keep := visibleUserIDChars
	if len(runes) <= visibleUserIDChars {
		keep = 1
	}

	return string(runes[:keep]) + strings.Repeat("*", len(runes)-keep)
}
