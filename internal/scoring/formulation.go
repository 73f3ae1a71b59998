package scoring

import "strings"

// IsPerfectFormulation reports whether the user's answer matches the
// suggested ideal phrasing, ignoring accents, case, and surrounding
// whitespace. Containment in either direction counts. The signal is
// purely informational and never affects correctness.
func IsPerfectFormulation(userAnswer, suggestedFormulation string) bool {
	user := Normalize(strings.TrimSpace(userAnswer))
	suggested := Normalize(strings.TrimSpace(suggestedFormulation))
	if user == "" || suggested == "" {
		return false
	}
	return user == suggested || strings.Contains(user, suggested) || strings.Contains(suggested, user)
}
