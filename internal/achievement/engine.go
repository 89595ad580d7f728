package achievement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/daily-riddle/internal/db"
)

// Store persists unlocks. Unlock must report true only for a fresh row.
type Store interface {
	Unlock(ctx context.Context, userID, achievementType string, at time.Time) (bool, error)
	List(ctx context.Context, userID string) ([]db.Achievement, error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*db.Profile, error)
}

// Engine runs the rule table after every profile mutation.
type Engine struct {
	store    Store
	profiles ProfileReader
	now      func() time.Time
	log      *slog.Logger
}

func NewEngine(store Store, profiles ProfileReader, now func() time.Time, log *slog.Logger) *Engine {
	return &Engine{store: store, profiles: profiles, now: now, log: log}
}

// OnMutation unlocks every satisfied rule and returns the types unlocked by
// this call. Already unlocked types are skipped silently. On error the
// types unlocked so far are still returned.
func (e *Engine) OnMutation(ctx context.Context, m Mutation) ([]Type, error) {
	var unlocked []Type
	at := e.now().UTC()
	for _, t := range Satisfied(m) {
		created, err := e.store.Unlock(ctx, m.UserID, string(t), at)
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s for %s: %w", t, m.UserID, err)
		}
		if created {
			unlocked = append(unlocked, t)
		}
	}
	if len(unlocked) > 0 {
		e.log.Info("achievements unlocked", "user", m.UserID, "types", unlocked)
	}
	return unlocked, nil
}

// Replay evaluates a queued snapshot merged with the user's current profile.
// A milestone reached at commit time still unlocks after the counters
// have dropped again.
func (e *Engine) Replay(ctx context.Context, m Mutation) ([]Type, error) {
	p, err := e.profiles.GetProfile(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	return e.OnMutation(ctx, m.Merge(MutationOf(p)))
}

// List returns the user's unlocks, oldest first.
func (e *Engine) List(ctx context.Context, userID string) ([]db.Achievement, error) {
	if _, err := e.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	return e.store.List(ctx, userID)
}
