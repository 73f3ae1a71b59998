package scoring

import "strings"

// HasMissingAccents reports whether the user text matches the reference
// once accents are stripped but differs with accents retained. This
// signals correct content with dropped or altered diacritics, as opposed
// to wrong content. Containment in either direction counts: a user answer
// embedding the accent-stripped reference (or vice versa) without the
// same accent-bearing containment is an accent discrepancy too.
func HasMissingAccents(userText, referenceText string) bool {
	userNorm := Normalize(userText)
	refNorm := Normalize(referenceText)
	userLower := strings.ToLower(userText)
	refLower := strings.ToLower(referenceText)

	if userNorm == refNorm && userLower != refLower {
		return true
	}
	if strings.Contains(userNorm, refNorm) && !strings.Contains(userLower, refLower) {
		return true
	}
	if strings.Contains(refNorm, userNorm) && !strings.Contains(refLower, userLower) {
		return true
	}
	return false
}
