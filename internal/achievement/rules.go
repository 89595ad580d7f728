// Package achievement evaluates badge rules against profile state and
// records unlocks. Unlocks are permanent.
package achievement

import "github.com/oggyb/daily-riddle/internal/db"

// Type is the stored achievement key.
type Type string

const (
	Rookie        Type = "rookie"
	Enthusiast    Type = "enthusiast"
	Dedicated     Type = "dedicated"
	Legendary     Type = "legendary"
	Perfectionist Type = "perfectionist"
	Social        Type = "social"
	Master        Type = "master"
)

// Mutation is the profile state a rule is evaluated against. It carries the
// derived counters so no rule needs to scan history. It is also the retry
// queue payload, so it keeps the counters as they were at commit time.
type Mutation struct {
	UserID         string `json:"userId"`
	CurrentStreak  int    `json:"currentStreak"`
	TotalCorrect   int    `json:"totalCorrect"`
	CorrectRun     int    `json:"correctRun"`
	FollowingCount int    `json:"followingCount"`
}

// Merge keeps the higher value of every counter.
func (m Mutation) Merge(o Mutation) Mutation {
	return Mutation{
		UserID:         m.UserID,
		CurrentStreak:  max(m.CurrentStreak, o.CurrentStreak),
		TotalCorrect:   max(m.TotalCorrect, o.TotalCorrect),
		CorrectRun:     max(m.CorrectRun, o.CorrectRun),
		FollowingCount: max(m.FollowingCount, o.FollowingCount),
	}
}

// MutationOf snapshots a stored profile.
func MutationOf(p *db.Profile) Mutation {
	return Mutation{
		UserID:         p.ID,
		CurrentStreak:  p.CurrentStreak,
		TotalCorrect:   p.TotalCorrect,
		CorrectRun:     p.CorrectRun,
		FollowingCount: p.FollowingCount,
	}
}

type Rule struct {
	Type        Type
	Description string
	Met         func(Mutation) bool
}

func streakAtLeast(n int) func(Mutation) bool {
	return func(m Mutation) bool { return m.CurrentStreak >= n }
}

// Rules is the fixed rule table, in display order.
var Rules = []Rule{
	{Rookie, "3-day streak", streakAtLeast(3)},
	{Enthusiast, "7-day streak", streakAtLeast(7)},
	{Dedicated, "30-day streak", streakAtLeast(30)},
	{Legendary, "100-day streak", streakAtLeast(100)},
	{Perfectionist, "7 correct answers in a row", func(m Mutation) bool { return m.CorrectRun >= 7 }},
	{Social, "following 5 players", func(m Mutation) bool { return m.FollowingCount >= 5 }},
	{Master, "100 correct answers", func(m Mutation) bool { return m.TotalCorrect >= 100 }},
}

// Satisfied lists every rule m currently meets.
func Satisfied(m Mutation) []Type {
	var out []Type
	for _, r := range Rules {
		if r.Met(m) {
			out = append(out, r.Type)
		}
	}
	return out
}

// Describe returns the human label for t, or "" for unknown types.
func Describe(t Type) string {
	for _, r := range Rules {
		if r.Type == t {
			return r.Description
		}
	}
	return ""
}
