package evaluator

import "github.com/oggyb/daily-riddle/internal/calendar"

// Policy decides what a wrong answer does to the streak.
type Policy string

const (
	// PolicyReset sets the streak to 0 on a wrong answer.
	PolicyReset Policy = "reset"
	// PolicyHold keeps the streak on a wrong answer given on a consecutive
	// day; the answered day still counts toward continuity.
	PolicyHold Policy = "hold"
)

// ParsePolicy falls back to PolicyReset for unknown values.
func ParsePolicy(s string) Policy {
	if Policy(s) == PolicyHold {
		return PolicyHold
	}
	return PolicyReset
}

// State is the streak-relevant part of a profile.
type State struct {
	CurrentStreak    int
	LongestStreak    int
	TotalCorrect     int
	CorrectRun       int
	LastAnsweredDate calendar.Date
}

// Advance applies one accepted daily answer on today. It is pure; the caller
// guarantees today is after s.LastAnsweredDate.
func Advance(s State, today calendar.Date, correct bool, policy Policy) State {
	consecutive := !s.LastAnsweredDate.IsZero() && s.LastAnsweredDate.Equal(today.AddDays(-1))

	next := s
	next.LastAnsweredDate = today

	switch {
	case correct && consecutive:
		next.CurrentStreak = s.CurrentStreak + 1
		next.CorrectRun = s.CorrectRun + 1
	case correct:
		next.CurrentStreak = 1
		next.CorrectRun = 1
	case policy == PolicyHold && consecutive:
		next.CorrectRun = 0
	default:
		next.CurrentStreak = 0
		next.CorrectRun = 0
	}

	if correct {
		next.TotalCorrect = s.TotalCorrect + 1
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next
}
