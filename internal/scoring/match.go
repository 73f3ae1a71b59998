package scoring

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pavelanni/civique/internal/model"
)

var (
	// quantityRe matches French enumeration cues like "citez deux" or
	// "nommez 3".
	quantityRe = regexp.MustCompile(`(?:nommez?|citez?)\s+(deux|trois|quatre|cinq|\d+)`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

// matchInput carries precomputed views of one grading call through the
// rule chain. Keyword matching is computed once, on first use.
type matchInput struct {
	userText      string
	answer        string
	keyPoints     []string
	userLower     string
	userNorm      string
	answerLower   string
	questionLower string

	keywordsDone  bool
	matched       []string
	accentMatched []string
}

// matchRule is one step of the grading cascade. A rule returns nil when
// it does not apply; the first non-nil result wins.
type matchRule struct {
	name string
	eval func(in *matchInput) *model.MatchResult
}

// matchRules is the priority-ordered grading cascade. The keyword rule
// is terminal and always produces a result.
var matchRules = []matchRule{
	{name: "exact", eval: exactRule},
	{name: "accent-insensitive", eval: accentInsensitiveRule},
	{name: "quantity", eval: quantityRule},
	{name: "keyword", eval: keywordRule},
}

// Score grades a free-text answer against the reference answer and key
// points of a question. It is total: every input produces a result, with
// empty input resolving to score 0.
func Score(userText string, keyPoints []string, referenceAnswer, question string) model.MatchResult {
	in := &matchInput{
		userText:      userText,
		answer:        referenceAnswer,
		keyPoints:     keyPoints,
		userLower:     strings.ToLower(strings.TrimSpace(userText)),
		userNorm:      Normalize(strings.TrimSpace(userText)),
		answerLower:   strings.ToLower(referenceAnswer),
		questionLower: strings.ToLower(question),
	}

	if in.userLower == "" {
		return model.MatchResult{Reasoning: "Réponse vide"}
	}

	for _, rule := range matchRules {
		if res := rule.eval(in); res != nil {
			return *res
		}
	}
	// Unreachable: the keyword rule is terminal.
	return model.MatchResult{}
}

// exactRule awards a full score when the lower-cased user text contains
// the reference answer or vice versa, accents retained.
func exactRule(in *matchInput) *model.MatchResult {
	if in.answerLower == "" {
		return nil
	}
	if strings.Contains(in.userLower, in.answerLower) || strings.Contains(in.answerLower, in.userLower) {
		return &model.MatchResult{Score: 100, ExactMatch: true, Reasoning: "Correspondance exacte"}
	}
	return nil
}

// accentInsensitiveRule awards a full score when containment holds after
// stripping accents, reduced to 85 when the only difference is dropped
// or altered diacritics.
func accentInsensitiveRule(in *matchInput) *model.MatchResult {
	if in.answerLower == "" {
		return nil
	}
	answerNorm := Normalize(in.answer)
	if !strings.Contains(in.userNorm, answerNorm) && !strings.Contains(answerNorm, in.userNorm) {
		return nil
	}
	if HasMissingAccents(in.userText, in.answer) {
		return &model.MatchResult{
			Score:        85,
			AccentIssues: true,
			Reasoning:    "Réponse correcte mais accents manquants (-15%)",
		}
	}
	return &model.MatchResult{Score: 100, Reasoning: "Correspondance exacte"}
}

// quantityRule grades questions asking to name N items by counting how
// many key points appear in the answer.
func quantityRule(in *matchInput) *model.MatchResult {
	m := quantityRe.FindStringSubmatch(in.questionLower)
	if m == nil {
		return nil
	}
	target := parseTargetCount(m[1])
	in.matchKeywords()
	matched := len(in.matched)
	penalty := len(in.accentMatched) > 0

	var score float64
	var reasoning string
	switch {
	case matched >= target:
		score = 100
		if penalty {
			score = 85
		}
		reasoning = fmt.Sprintf("Question de quantité: %d/%d éléments valides trouvés", matched, target)
	case matched >= int(math.Ceil(float64(target)*0.5)):
		score = 75
		if penalty {
			score = 60
		}
		reasoning = fmt.Sprintf("Partiellement correct: %d/%d éléments valides", matched, target)
	default:
		score = float64(matched) / float64(target) * 50
		if penalty {
			score -= 15
		}
		reasoning = fmt.Sprintf("Insuffisant: %d/%d éléments valides", matched, target)
	}
	if penalty {
		reasoning += " (accents manquants: -15%)"
	}
	return in.assemble(score, reasoning, true)
}

// keywordRule is the terminal fallback: keyword-ratio scoring with a
// numeric context bonus, and a binary short-circuit for "quelle année"
// questions where only the digits decide.
func keywordRule(in *matchInput) *model.MatchResult {
	in.matchKeywords()

	userDigits := digitsRe.FindAllString(in.userLower, -1)
	answerDigits := digitsRe.FindAllString(in.answerLower, -1)
	digitMatch := false
	for _, d := range userDigits {
		if slices.Contains(answerDigits, d) {
			digitMatch = true
			break
		}
	}

	if strings.Contains(in.questionLower, "année") {
		if digitMatch {
			return in.assemble(100, "Année correcte trouvée", false)
		}
		return in.assemble(0, "Année incorrecte", false)
	}

	// Empty key-point sets are defined as a zero keyword score rather
	// than 0/0.
	keywordScore := 0.0
	if len(in.keyPoints) > 0 {
		keywordScore = float64(len(in.matched)) / float64(len(in.keyPoints)) * 100
	}
	bonus := 0.0
	if digitMatch {
		bonus = 20
	}
	score := math.Min(100, keywordScore+bonus)
	if len(in.accentMatched) > 0 {
		score = math.Max(0, score-15)
	}

	reasoning := fmt.Sprintf("Score par mots-clés: %.0f%%", keywordScore)
	if bonus > 0 {
		reasoning += fmt.Sprintf(" + contexte: %.0f%%", bonus)
	}
	if len(in.accentMatched) > 0 {
		reasoning += " (accents manquants: -15%)"
	}
	return in.assemble(score, reasoning, false)
}

// matchKeywords tests each key point independently against the user text,
// accent-sensitive first, then accent-stripped. A keyword found only via
// the stripped comparison still counts as matched but joins the
// accent-issue set.
func (in *matchInput) matchKeywords() {
	if in.keywordsDone {
		return
	}
	in.keywordsDone = true
	for _, kw := range in.keyPoints {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		switch {
		case strings.Contains(in.userLower, strings.ToLower(kw)):
			in.matched = append(in.matched, kw)
		case strings.Contains(in.userNorm, Normalize(kw)):
			in.matched = append(in.matched, kw)
			in.accentMatched = append(in.accentMatched, kw)
		}
	}
}

// assemble rounds and clamps the score and fills the keyword-analysis
// fields shared by the quantity and keyword rules.
func (in *matchInput) assemble(score float64, reasoning string, quantity bool) *model.MatchResult {
	s := int(math.Round(score))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	penalty := len(in.accentMatched) > 0
	return &model.MatchResult{
		Score:                    s,
		ExactMatch:               s == 100 && !penalty,
		MatchedKeywords:          len(in.matched),
		TotalKeywords:            len(in.keyPoints),
		Reasoning:                reasoning,
		IsQuantityQuestion:       quantity,
		MatchedItems:             in.matched,
		AccentIssues:             penalty,
		KeywordsWithAccentIssues: in.accentMatched,
	}
}

func parseTargetCount(word string) int {
	switch word {
	case "deux":
		return 2
	case "trois":
		return 3
	case "quatre":
		return 4
	case "cinq":
		return 5
	}
	if n, err := strconv.Atoi(word); err == nil && n > 0 {
		return n
	}
	return 2
}
