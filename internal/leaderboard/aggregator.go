// Package leaderboard ranks players by correct answers per ISO week.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/db"
	"github.com/oggyb/daily-riddle/internal/repository"
)

// Entry is one ranked row. Username is filled in for display and is not
// part of the cached board.
type Entry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"userId"`
	Username   string `json:"username,omitempty"`
	Score      int    `json:"score"`
	StreakDays int    `json:"streakDays"`
}

// Board is a full weekly ranking.
type Board struct {
	WeekStart calendar.Date `json:"weekStart"`
	Entries   []Entry       `json:"entries"`
}

type SubmissionSource interface {
	WeeklyTotals(ctx context.Context, from, to calendar.Date) ([]repository.WeeklyTotal, error)
	LatestBetween(ctx context.Context, userIDs []string, from, to calendar.Date) (map[string]db.Submission, error)
}

type FollowSource interface {
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

// Cache stores computed boards. RedisCache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	KeyForWeeklyBoard(weekStart string) string
}

type Options struct {
	StreakBonus bool
	CacheTTL    time.Duration
}

type Aggregator struct {
	subs    SubmissionSource
	follows FollowSource
	cache   Cache
	clock   *calendar.Clock
	opts    Options
	log     *slog.Logger
}

// New builds an Aggregator. cache may be nil, in which case every call
// recomputes from the submission log.
func New(subs SubmissionSource, follows FollowSource, cache Cache, clock *calendar.Clock, opts Options, log *slog.Logger) *Aggregator {
	return &Aggregator{subs: subs, follows: follows, cache: cache, clock: clock, opts: opts, log: log}
}

// ResolveWeek normalizes weekStart to a Monday; the zero date means the
// current week.
func (a *Aggregator) ResolveWeek(weekStart calendar.Date) calendar.Date {
	if weekStart.IsZero() {
		return a.clock.Today().WeekStart()
	}
	return weekStart.WeekStart()
}

// WeeklyRanking returns every participant of the week, best first.
// Cache errors are logged and the board is recomputed.
func (a *Aggregator) WeeklyRanking(ctx context.Context, weekStart calendar.Date) (*Board, error) {
	week := a.ResolveWeek(weekStart)

	if a.cache != nil {
		var cached Board
		hit, err := a.cache.GetJSON(ctx, a.cache.KeyForWeeklyBoard(week.String()), &cached)
		if err != nil {
			a.log.Warn("weekly board cache read failed", "week", week, "err", err)
		} else if hit {
			return &cached, nil
		}
	}

	board, err := a.compute(ctx, week)
	if err != nil {
		return nil, err
	}

	if a.cache != nil && a.opts.CacheTTL > 0 {
		if err := a.cache.SetJSON(ctx, a.cache.KeyForWeeklyBoard(week.String()), board, a.opts.CacheTTL); err != nil {
			a.log.Warn("weekly board cache write failed", "week", week, "err", err)
		}
	}
	return board, nil
}

// FollowingRanking restricts the weekly board to userID and the users they
// follow, re-ranked. yourRank is userID's rank in that list, 0 if absent.
func (a *Aggregator) FollowingRanking(ctx context.Context, userID string, weekStart calendar.Date) (*Board, int, error) {
	ids, err := a.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("load following ids: %w", err)
	}
	circle := make(map[string]struct{}, len(ids)+1)
	circle[userID] = struct{}{}
	for _, id := range ids {
		circle[id] = struct{}{}
	}

	full, err := a.WeeklyRanking(ctx, weekStart)
	if err != nil {
		return nil, 0, err
	}

	out := &Board{WeekStart: full.WeekStart, Entries: []Entry{}}
	yourRank := 0
	for _, e := range full.Entries {
		if _, ok := circle[e.UserID]; !ok {
			continue
		}
		e.Rank = len(out.Entries) + 1
		if e.UserID == userID {
			yourRank = e.Rank
		}
		out.Entries = append(out.Entries, e)
	}
	return out, yourRank, nil
}

// Invalidate drops the cached board of the week containing date.
func (a *Aggregator) Invalidate(ctx context.Context, date calendar.Date) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Del(ctx, a.cache.KeyForWeeklyBoard(date.WeekStart().String()))
}

func (a *Aggregator) compute(ctx context.Context, week calendar.Date) (*Board, error) {
	weekEnd := week.AddDays(6)
	totals, err := a.subs.WeeklyTotals(ctx, week, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("aggregate week %s: %w", week, err)
	}

	asOf := weekEnd
	if today := a.clock.Today(); today.Before(asOf) {
		asOf = today
	}
	ids := make([]string, 0, len(totals))
	for _, t := range totals {
		ids = append(ids, t.UserID)
	}
	latest, err := a.subs.LatestBetween(ctx, ids, asOf.AddDays(-1), asOf)
	if err != nil {
		return nil, fmt.Errorf("load streaks for week %s: %w", week, err)
	}

	streaks := make(map[string]int, len(latest))
	for id, s := range latest {
		streaks[id] = s.StreakAfter
	}
	return &Board{WeekStart: week, Entries: Rank(totals, streaks, a.opts.StreakBonus)}, nil
}

// Rank scores and orders the week's totals.
//
// Score is the number of correct answers; with bonus, one extra point per
// full seven days of streak at week end. Ties go to the lower user id.
func Rank(totals []repository.WeeklyTotal, streaks map[string]int, bonus bool) []Entry {
	entries := make([]Entry, 0, len(totals))
	for _, t := range totals {
		streak := streaks[t.UserID]
		score := t.Correct
		if bonus {
			score += streak / 7
		}
		entries = append(entries, Entry{UserID: t.UserID, Score: score, StreakDays: streak})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// RankOf returns userID's rank, 0 when the user has no entry this week.
func (b *Board) RankOf(userID string) int {
	for _, e := range b.Entries {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}

// Top returns at most limit entries; limit <= 0 means all.
func (b *Board) Top(limit int) []Entry {
	if limit <= 0 || limit >= len(b.Entries) {
		return b.Entries
	}
	return b.Entries[:limit]
}
