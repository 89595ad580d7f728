package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
)

// DailyUpdate is the profile state produced by one accepted daily answer.
type DailyUpdate struct {
	CurrentStreak    int
	LongestStreak    int
	TotalCorrect     int
	CorrectRun       int
	LastAnsweredDate calendar.Date
}

// ProfileRepository provides data access for the Profile model.
// It owns the conditional update that makes daily scoring happen once.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetProfile loads a profile by id.
//
// Returns svcErr.ErrUserNotFound when the id is unknown.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", svcErr.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Usernames maps the given ids to usernames. Unknown ids are absent.
func (r *ProfileRepository) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []db.Profile
	err := r.db.WithContext(ctx).
		Select("id", "username").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p.Username
	}
	return out, nil
}

// CreateProfile inserts a profile. Used by seeding and tests; profile
// management itself belongs to the account service.
func (r *ProfileRepository) CreateProfile(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CommitDailyAnswer applies a streak transition and appends its submission
// in one transaction.
//
// Behavior:
//   - The profile row is updated only if last_answered_date still equals
//     expectedLast (compare-and-swap; zero date means NULL).
//   - Zero rows updated, or a second submission for (user, date), → svcErr.ErrConflict.
//   - On conflict nothing is written.
//
// Example:
//
//	repo.CommitDailyAnswer(ctx, "u1", yesterday, next, &sub)
func (r *ProfileRepository) CommitDailyAnswer(
	ctx context.Context,
	userID string,
	expectedLast calendar.Date,
	next DailyUpdate,
	sub *db.Submission,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&db.Profile{}).Where("id = ?", userID)
		if expectedLast.IsZero() {
			query = query.Where("last_answered_date IS NULL")
		} else {
			query = query.Where("last_answered_date = ?", expectedLast)
		}

		res := query.Updates(map[string]any{
			"current_streak":     next.CurrentStreak,
			"longest_streak":     next.LongestStreak,
			"total_correct":      next.TotalCorrect,
			"correct_run":        next.CorrectRun,
			"last_answered_date": next.LastAnsweredDate,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("profile %s changed concurrently: %w", userID, svcErr.ErrConflict)
		}

		if err := tx.Create(sub).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("submission for %s on %s exists: %w", userID, sub.Date, svcErr.ErrConflict)
			}
			return err
		}
		return nil
	})
}
