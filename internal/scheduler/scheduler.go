// Package scheduler maps a calendar date to the riddle of the day.
package scheduler

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
)

// Mode selects how the riddle of the day varies between users.
type Mode string

const (
	// ModeGlobal serves every user the same riddle for a date.
	ModeGlobal Mode = "global"
	// ModePersonalized salts the pick with the user id and skips riddles the
	// user answered on earlier days.
	ModePersonalized Mode = "personalized"
)

// ParseMode falls back to ModePersonalized for unknown values.
func ParseMode(s string) Mode {
	if Mode(s) == ModeGlobal {
		return ModeGlobal
	}
	return ModePersonalized
}

// RiddleSource lists the riddle pool in a stable order.
type RiddleSource interface {
	ListPool(ctx context.Context) ([]db.Riddle, error)
}

// HistorySource reports which riddles a user answered before a date.
type HistorySource interface {
	RiddleIDsBefore(ctx context.Context, userID string, date calendar.Date) ([]string, error)
}

type Scheduler struct {
	riddles RiddleSource
	history HistorySource
	mode    Mode
}

func New(riddles RiddleSource, history HistorySource, mode Mode) *Scheduler {
	return &Scheduler{riddles: riddles, history: history, mode: mode}
}

func (s *Scheduler) Mode() Mode { return s.mode }

// RiddleForDate picks the riddle for date with no per-user salt.
func (s *Scheduler) RiddleForDate(ctx context.Context, date calendar.Date, excluded []string) (*db.Riddle, error) {
	return s.pick(ctx, date, "", excluded)
}

// RiddleForUser picks the riddle userID is served on date. The result is
// stable for the whole day: answering it does not change the exclusion set
// until the next date.
func (s *Scheduler) RiddleForUser(ctx context.Context, userID string, date calendar.Date) (*db.Riddle, error) {
	if s.mode == ModeGlobal {
		return s.pick(ctx, date, "", nil)
	}
	excluded, err := s.history.RiddleIDsBefore(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load answered riddles: %w", err)
	}
	return s.pick(ctx, date, userID, excluded)
}

func (s *Scheduler) pick(ctx context.Context, date calendar.Date, salt string, excluded []string) (*db.Riddle, error) {
	pool, err := s.riddles.ListPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("load riddle pool: %w", err)
	}
	r, ok := Pick(pool, date, salt, excluded)
	if !ok {
		return nil, fmt.Errorf("%w for %s", svcErr.ErrNoRiddleAvailable, date)
	}
	return r, nil
}

// Pick is the deterministic selection rule.
//
// Behavior:
//   - A riddle pinned to date (ActiveDate) wins unless excluded.
//   - Otherwise candidates are the pool minus excluded, or the whole pool when
//     that leaves nothing, and the pick is
//     candidates[(date ordinal + fnv32a(salt)) mod len].
//   - An empty pool reports false.
//
// pool must already be in a stable order.
func Pick(pool []db.Riddle, date calendar.Date, salt string, excluded []string) (*db.Riddle, bool) {
	if len(pool) == 0 {
		return nil, false
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}

	candidates := make([]*db.Riddle, 0, len(pool))
	for i := range pool {
		r := &pool[i]
		if _, ok := skip[r.ID]; ok {
			continue
		}
		if !r.ActiveDate.IsZero() && r.ActiveDate.Equal(date) {
			return r, true
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		// everything answered already: reuse rather than block
		for i := range pool {
			candidates = append(candidates, &pool[i])
		}
	}

	n := uint64(len(candidates))
	idx := (uint64(date.Ordinal()) + uint64(hash(salt))) % n
	return candidates[idx], true
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
