package scoring

import "testing"

func TestIsPerfectFormulation(t *testing.T) {
	suggested := "La devise de la République est Liberté, Égalité, Fraternité"

	tests := []struct {
		name string
		user string
		want bool
	}{
		{"identical", suggested, true},
		{"accents dropped", "la devise de la republique est liberte, egalite, fraternite", true},
		{"upper case", "LA DEVISE DE LA RÉPUBLIQUE EST LIBERTÉ, ÉGALITÉ, FRATERNITÉ", true},
		{"surrounding whitespace", "  " + suggested + "  ", true},
		{"user contains suggested", "Alors, " + suggested + ", voilà.", true},
		{"suggested contains user", "Liberté, Égalité, Fraternité", true},
		{"different phrasing", "la devise c'est liberté et égalité", false},
		{"empty user", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPerfectFormulation(tt.user, suggested)
			if got != tt.want {
				t.Errorf("IsPerfectFormulation(%q) = %v, want %v", tt.user, got, tt.want)
			}
		})
	}
}

func TestIsPerfectFormulationEmptySuggestion(t *testing.T) {
	if IsPerfectFormulation("une réponse", "") {
		t.Error("empty suggested formulation must never match")
	}
	if IsPerfectFormulation("", "") {
		t.Error("two empty strings must not match")
	}
}
