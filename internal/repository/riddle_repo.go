package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
)

// RiddleRepository reads the published riddle pool.
type RiddleRepository struct {
	db *gorm.DB
}

func NewRiddleRepository(database *gorm.DB) *RiddleRepository {
	return &RiddleRepository{db: database}
}

// GetRiddle returns svcErr.ErrRiddleNotFound for unknown ids.
func (r *RiddleRepository) GetRiddle(ctx context.Context, id string) (*db.Riddle, error) {
	var riddle db.Riddle
	err := r.db.WithContext(ctx).First(&riddle, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", svcErr.ErrRiddleNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &riddle, nil
}

// ListPool returns every riddle ordered by id, the scheduler's stable pool order.
func (r *RiddleRepository) ListPool(ctx context.Context) ([]db.Riddle, error) {
	var riddles []db.Riddle
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&riddles).Error; err != nil {
		return nil, err
	}
	return riddles, nil
}

func (r *RiddleRepository) CreateRiddle(ctx context.Context, riddle *db.Riddle) error {
	return r.db.WithContext(ctx).Create(riddle).Error
}
