// Package progress applies session results to a user's long-term
// progression: daily streak, XP, level, and badges.
package progress

import (
	"slices"
	"time"

	"github.com/pavelanni/civique/internal/model"
)

const (
	xpPerCorrect   = 10
	xpPerFormulate = 5
	xpPerLevel     = 500

	// BadgeBeginner is granted to every new account.
	BadgeBeginner = "Débutant"

	badgeStreak7     = "Assidu"
	badgeStreak30    = "Dévoué"
	badgeSessions10  = "Expérimenté"
	badgeLevel5      = "Constitution Pro"
	badgeCorrect100  = "Centurion"
	dateLayout       = "2006-01-02"
)

// NewProgress creates the initial progression for a fresh account.
func NewProgress(now time.Time) model.UserProgress {
	return model.UserProgress{
		Streak:    1,
		Level:     1,
		Badges:    []string{BadgeBeginner},
		CreatedAt: now,
	}
}

// Streak computes the streak value for a session happening now: the same
// day keeps the current streak, a consecutive day extends it, anything
// else resets to 1.
func Streak(p model.UserProgress, now time.Time) int {
	if p.LastSessionDate == "" {
		return 1
	}
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
	switch p.LastSessionDate {
	case today:
		return p.Streak
	case yesterday:
		return p.Streak + 1
	}
	return 1
}

// Apply folds a finished session into the progression and returns any
// newly earned badges. Only quiz modes award XP and bump the quiz
// totals; learning sessions still maintain the streak.
func Apply(p *model.UserProgress, stats model.SessionStats, mode model.SessionMode, now time.Time) []string {
	today := now.Format(dateLayout)
	if p.LastSessionDate != today {
		p.Streak = Streak(*p, now)
	}
	p.LastSessionDate = today

	if mode.IsQuiz() {
		p.XP += stats.Correct*xpPerCorrect + stats.PerfectFormulations*xpPerFormulate
		p.Level = p.XP/xpPerLevel + 1
		p.TotalSessions++
		p.TotalQuestions += stats.Total
		p.TotalCorrect += stats.Correct
	}

	var earned []string
	award := func(badge string, ok bool) {
		if ok && !slices.Contains(p.Badges, badge) {
			earned = append(earned, badge)
		}
	}
	award(badgeStreak7, p.Streak >= 7)
	award(badgeStreak30, p.Streak >= 30)
	award(badgeSessions10, p.TotalSessions >= 10)
	award(badgeLevel5, p.Level >= 5)
	award(badgeCorrect100, p.TotalCorrect >= 100)

	p.Badges = append(p.Badges, earned...)
	return earned
}
