package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/daily-riddle/internal/db"
)

// AchievementRepository stores permanent achievement unlocks.
type AchievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(database *gorm.DB) *AchievementRepository {
	return &AchievementRepository{db: database}
}

// Unlock records (userID, achievementType) once.
//
// Behavior:
//   - Returns true only when this call inserted the row.
//   - An existing unlock is left untouched, unlocked_at never moves.
func (r *AchievementRepository) Unlock(
	ctx context.Context,
	userID, achievementType string,
	at time.Time,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Achievement{UserID: userID, Type: achievementType, UnlockedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns the user's unlocks, oldest first.
func (r *AchievementRepository) List(ctx context.Context, userID string) ([]db.Achievement, error) {
	var out []db.Achievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC, type ASC").
		Find(&out).Error
	return out, err
}
