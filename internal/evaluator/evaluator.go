// Package evaluator grades submitted answers and moves a user's streak
// forward exactly once per day.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/oggyb/daily-riddle/internal/achievement"
	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/repository"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*db.Profile, error)
	CommitDailyAnswer(ctx context.Context, userID string, expectedLast calendar.Date, next repository.DailyUpdate, sub *db.Submission) error
}

type RiddleReader interface {
	GetRiddle(ctx context.Context, id string) (*db.Riddle, error)
}

type SubmissionReader interface {
	GetForDate(ctx context.Context, userID string, date calendar.Date) (*db.Submission, error)
}

// DailyRiddle tells which riddle a user is served on a date.
type DailyRiddle interface {
	RiddleForUser(ctx context.Context, userID string, date calendar.Date) (*db.Riddle, error)
}

// Achievements is notified after every committed mutation.
type Achievements interface {
	OnMutation(ctx context.Context, m achievement.Mutation) ([]achievement.Type, error)
}

// RetryQueue keeps mutation snapshots whose evaluation failed.
type RetryQueue interface {
	Enqueue(ctx context.Context, m achievement.Mutation) error
}

// sideEffectTimeout bounds the post-commit work, which runs detached from
// the caller's cancellation.
const sideEffectTimeout = 5 * time.Second

// BoardInvalidator drops derived leaderboard state for the week containing a date.
type BoardInvalidator interface {
	Invalidate(ctx context.Context, date calendar.Date) error
}

// Options are the game rules the evaluator enforces.
type Options struct {
	Policy          Policy
	StrictDaily     bool
	MaxAnswerLength int
	MaxRetries      int
}

type Deps struct {
	Profiles     ProfileStore
	Riddles      RiddleReader
	Submissions  SubmissionReader
	Schedule     DailyRiddle
	Achievements Achievements
	Retries      RetryQueue
	Board        BoardInvalidator
	Clock        *calendar.Clock
	Log          *slog.Logger
}

// Result is what a caller sees for a submission, fresh or replayed.
type Result struct {
	RiddleID        string
	Date            calendar.Date
	IsCorrect       bool
	CanonicalAnswer string
	CurrentStreak   int
	LongestStreak   int
	TotalCorrect    int
	NewAchievements []achievement.Type
	Replayed        bool
}

type Evaluator struct {
	Deps
	opts Options
}

func New(deps Deps, opts Options) *Evaluator {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxAnswerLength <= 0 || opts.MaxAnswerLength > db.RawAnswerSize {
		opts.MaxAnswerLength = db.RawAnswerSize
	}
	return &Evaluator{Deps: deps, opts: opts}
}

// Submit evaluates rawAnswer for userID against riddleID on the current day.
//
// Behavior:
//   - Empty or oversized answers are rejected before anything is read. The
//     raw input is capped in bytes at the column width and the trimmed text
//     in characters at MaxAnswerLength.
//   - The first accepted submission of the day commits the streak transition
//     and the submission row atomically (CAS on last_answered_date).
//   - Any later call on the same day replays the recorded outcome.
//   - Lost CAS races are retried with a fresh read; once the budget is
//     spent svcErr.ErrTransient is returned.
//   - Achievement failures never fail the call; the user is queued for retry.
func (e *Evaluator) Submit(ctx context.Context, userID, riddleID, rawAnswer string) (*Result, error) {
	log := e.Log.With("user", userID, "riddle", riddleID)

	answer, err := e.validateAnswer(rawAnswer)
	if err != nil {
		return nil, err
	}

	riddle, err := e.Riddles.GetRiddle(ctx, riddleID)
	if err != nil {
		return nil, err
	}

	today := e.Clock.Today()
	isCorrect := Matches(answer, riddle.CanonicalAnswer)
	checkedDaily := false

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		profile, err := e.Profiles.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}

		last := profile.LastAnsweredDate
		if last.Equal(today) {
			log.Debug("replaying recorded submission", "date", today)
			return e.replay(ctx, profile, riddle, today)
		}
		if last.After(today) {
			return nil, fmt.Errorf("last answered %s is after today %s: %w", last, today, svcErr.ErrConflict)
		}

		if e.opts.StrictDaily && !checkedDaily {
			if err := e.checkDaily(ctx, userID, riddleID, today); err != nil {
				return nil, err
			}
			checkedDaily = true
		}

		next := Advance(stateOf(profile), today, isCorrect, e.opts.Policy)
		sub := &db.Submission{
			ID:          uuid.NewString(),
			UserID:      userID,
			RiddleID:    riddleID,
			Date:        today,
			RawAnswer:   answer,
			IsCorrect:   isCorrect,
			StreakAfter: next.CurrentStreak,
		}

		err = e.Profiles.CommitDailyAnswer(ctx, userID, last, repository.DailyUpdate{
			CurrentStreak:    next.CurrentStreak,
			LongestStreak:    next.LongestStreak,
			TotalCorrect:     next.TotalCorrect,
			CorrectRun:       next.CorrectRun,
			LastAnsweredDate: next.LastAnsweredDate,
		}, sub)
		if errors.Is(err, svcErr.ErrConflict) {
			if attempt >= e.opts.MaxRetries {
				log.Warn("daily answer CAS retries exhausted", "attempts", attempt+1)
				return nil, fmt.Errorf("submit answer for %s: %w", userID, svcErr.ErrTransient)
			}
			log.Debug("daily answer CAS conflict, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			log.Error("failed to commit daily answer", "err", err)
			return nil, err
		}

		log.Info("daily answer recorded", "date", today, "correct", isCorrect, "streak", next.CurrentStreak)

		res := &Result{
			RiddleID:        riddleID,
			Date:            today,
			IsCorrect:       isCorrect,
			CanonicalAnswer: riddle.CanonicalAnswer,
			CurrentStreak:   next.CurrentStreak,
			LongestStreak:   next.LongestStreak,
			TotalCorrect:    next.TotalCorrect,
		}
		res.NewAchievements = e.afterCommit(ctx, log, profile, next, today)
		return res, nil
	}
}

// validateAnswer returns the trimmed answer that is graded and stored.
func (e *Evaluator) validateAnswer(raw string) (string, error) {
	if len(raw) > db.RawAnswerSize {
		return "", fmt.Errorf("%w (max %d bytes)", svcErr.ErrAnswerTooLong, db.RawAnswerSize)
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", svcErr.ErrEmptyAnswer
	}
	if utf8.RuneCountInString(trimmed) > e.opts.MaxAnswerLength {
		return "", fmt.Errorf("%w (max %d characters)", svcErr.ErrAnswerTooLong, e.opts.MaxAnswerLength)
	}
	return trimmed, nil
}

func (e *Evaluator) checkDaily(ctx context.Context, userID, riddleID string, today calendar.Date) error {
	served, err := e.Schedule.RiddleForUser(ctx, userID, today)
	if err != nil {
		return err
	}
	if served.ID != riddleID {
		return fmt.Errorf("%w: %s", svcErr.ErrRiddleNotToday, riddleID)
	}
	return nil
}

// replay rebuilds the response of the submission already recorded today.
func (e *Evaluator) replay(ctx context.Context, p *db.Profile, requested *db.Riddle, today calendar.Date) (*Result, error) {
	sub, err := e.Submissions.GetForDate(ctx, p.ID, today)
	if err != nil {
		return nil, fmt.Errorf("load recorded submission: %w", err)
	}

	riddle := requested
	if sub.RiddleID != requested.ID {
		if riddle, err = e.Riddles.GetRiddle(ctx, sub.RiddleID); err != nil {
			return nil, err
		}
	}

	return &Result{
		RiddleID:        sub.RiddleID,
		Date:            today,
		IsCorrect:       sub.IsCorrect,
		CanonicalAnswer: riddle.CanonicalAnswer,
		CurrentStreak:   p.CurrentStreak,
		LongestStreak:   p.LongestStreak,
		TotalCorrect:    p.TotalCorrect,
		Replayed:        true,
	}, nil
}

// afterCommit runs the derived-state side effects. Nothing here may fail
// the submission, and a caller that goes away after the commit must not
// drop them.
func (e *Evaluator) afterCommit(ctx context.Context, log *slog.Logger, p *db.Profile, next State, today calendar.Date) []achievement.Type {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if e.Board != nil {
		if err := e.Board.Invalidate(ctx, today); err != nil {
			log.Warn("failed to invalidate weekly board", "err", err)
		}
	}

	m := achievement.Mutation{
		UserID:         p.ID,
		CurrentStreak:  next.CurrentStreak,
		TotalCorrect:   next.TotalCorrect,
		CorrectRun:     next.CorrectRun,
		FollowingCount: p.FollowingCount,
	}
	unlocked, err := e.Achievements.OnMutation(ctx, m)
	if err != nil {
		log.Warn("achievement evaluation failed, queued for retry", "err", err)
		if e.Retries != nil {
			if qerr := e.Retries.Enqueue(ctx, m); qerr != nil {
				log.Error("failed to queue achievement retry", "err", qerr)
			}
		}
	}
	return unlocked
}

func stateOf(p *db.Profile) State {
	return State{
		CurrentStreak:    p.CurrentStreak,
		LongestStreak:    p.LongestStreak,
		TotalCorrect:     p.TotalCorrect,
		CorrectRun:       p.CorrectRun,
		LastAnsweredDate: p.LastAnsweredDate,
	}
}
