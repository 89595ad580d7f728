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

// WeeklyTotal is one user's aggregate over a date range.
type WeeklyTotal struct {
	UserID   string
	Correct  int
	Answered int
}

// SubmissionRepository queries the append-only submission log.
// Appends happen through ProfileRepository.CommitDailyAnswer.
type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(database *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: database}
}

// GetForDate returns the user's single submission on date, or svcErr.ErrNotFound.
func (r *SubmissionRepository) GetForDate(ctx context.Context, userID string, date calendar.Date) (*db.Submission, error) {
	var s db.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("submission for %s on %s: %w", userID, date, svcErr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Query returns the user's submissions with date in [from, to], oldest first.
func (r *SubmissionRepository) Query(ctx context.Context, userID string, from, to calendar.Date) ([]db.Submission, error) {
	var subs []db.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&subs).Error
	return subs, err
}

// RiddleIDsBefore lists the riddles the user answered strictly before date.
func (r *SubmissionRepository) RiddleIDsBefore(ctx context.Context, userID string, date calendar.Date) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Submission{}).
		Where("user_id = ? AND date < ?", userID, date).
		Distinct().
		Pluck("riddle_id", &ids).Error
	return ids, err
}

// WeeklyTotals aggregates correct / answered counts per user for [from, to].
func (r *SubmissionRepository) WeeklyTotals(ctx context.Context, from, to calendar.Date) ([]WeeklyTotal, error) {
	var rows []WeeklyTotal
	err := r.db.WithContext(ctx).
		Model(&db.Submission{}).
		Select(`user_id,
			SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct,
			COUNT(*) AS answered`).
		Where("date >= ? AND date <= ?", from, to).
		Group("user_id").
		Scan(&rows).Error
	return rows, err
}

// LatestBetween returns, per user, the most recent submission with date in [from, to].
func (r *SubmissionRepository) LatestBetween(
	ctx context.Context,
	userIDs []string,
	from, to calendar.Date,
) (map[string]db.Submission, error) {
	latest := make(map[string]db.Submission, len(userIDs))
	if len(userIDs) == 0 {
		return latest, nil
	}

	var subs []db.Submission
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND date >= ? AND date <= ?", userIDs, from, to).
		Order("date ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		latest[s.UserID] = s // ascending, so the last write wins
	}
	return latest, nil
}
