// Package session assembles question sessions from the bank and reduces
// graded answer histories into summary statistics.
package session

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/pavelanni/civique/internal/model"
)

// Generator samples question sets. The randomness source is injectable
// so tests can assert a deterministic order.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil source falls back to a
// time-seeded PCG.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>32)
	}
	return &Generator{rng: rand.New(src)}
}

// Generate samples a session from the bank: filter by question types when
// given, shuffle, and truncate to at most count items. A bank smaller
// than count yields a shorter session rather than an error.
func (g *Generator) Generate(bank []model.Question, mode model.SessionMode, count int, types []model.QuestionType) model.Session {
	if len(types) == 0 {
		types = model.AllQuestionTypes
	}

	var available []model.Question
	for _, q := range bank {
		if slices.Contains(types, q.Type) {
			available = append(available, q)
		}
	}

	g.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	if count > 0 && count < len(available) {
		available = available[:count]
	}

	practice, test := 0, 0
	for _, q := range available {
		if q.Type == model.TypeOral {
			test++
		} else {
			practice++
		}
	}

	now := time.Now()
	return model.Session{
		ID:            now.UnixMilli(),
		Mode:          mode,
		Questions:     available,
		QuestionTypes: types,
		PracticeCount: practice,
		TestCount:     test,
		CreatedAt:     now,
	}
}

// Aggregate reduces an answer history into session statistics. It is a
// pure fold, idempotent and safe on empty input.
func Aggregate(history []model.AnswerRecord) model.SessionStats {
	stats := model.SessionStats{
		Total:   len(history),
		Answers: history,
	}
	for _, a := range history {
		if a.IsCorrect {
			stats.Correct++
		}
		if a.PerfectFormulation {
			stats.PerfectFormulations++
		}
	}
	if stats.Total > 0 {
		stats.Percentage = int(math.Round(float64(stats.Correct) / float64(stats.Total) * 100))
	}
	return stats
}
