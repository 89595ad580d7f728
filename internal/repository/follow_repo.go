package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/utils/pagination"
)

// FollowRepository provides data access for directed follow edges.
// Edge writes keep profiles.following_count in the same transaction.
type FollowRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new repository bound to the given DB connection.
func NewFollowRepository(database *gorm.DB) *FollowRepository {
	return &FollowRepository{db: database}
}

// CreateEdge inserts follower -> following.
//
// Behavior:
//   - Existing edge → no-op, returns false.
//   - New edge → following_count of the follower is incremented, returns true.
func (r *FollowRepository) CreateEdge(ctx context.Context, followerID, followingID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&db.FollowEdge{FollowerID: followerID, FollowingID: followingID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&db.Profile{}).
			Where("id = ?", followerID).
			Update("following_count", gorm.Expr("following_count + 1")).Error
	})
	return created, err
}

// DeleteEdge removes follower -> following and decrements the counter when a
// row was actually removed.
func (r *FollowRepository) DeleteEdge(ctx context.Context, followerID, followingID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&db.FollowEdge{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&db.Profile{}).
			Where("id = ? AND following_count > 0", followerID).
			Update("following_count", gorm.Expr("following_count - 1")).Error
	})
	return removed, err
}

// ListFollowing returns the users followerID follows, newest edge first.
// Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListFollowing(ctx, "u1", nil, 20)
func (r *FollowRepository) ListFollowing(
	ctx context.Context,
	followerID string,
	paginationToken *string,
	limit int,
) ([]db.FollowEdge, *string, error) {
	return r.page(ctx, "follower_id", followerID, "following_id", paginationToken, limit)
}

// ListFollowers returns the users following followingID, newest edge first.
func (r *FollowRepository) ListFollowers(
	ctx context.Context,
	followingID string,
	paginationToken *string,
	limit int,
) ([]db.FollowEdge, *string, error) {
	return r.page(ctx, "following_id", followingID, "follower_id", paginationToken, limit)
}

// page lists edges where keyCol = id, ordered by created_at DESC, otherCol DESC.
func (r *FollowRepository) page(
	ctx context.Context,
	keyCol, id, otherCol string,
	paginationToken *string,
	limit int,
) ([]db.FollowEdge, *string, error) {
	var edges []db.FollowEdge

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.InvalidArgument(err.Error())
	}

	query := r.db.WithContext(ctx).
		Where(keyCol+" = ?", id).
		Order("created_at DESC, " + otherCol + " DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND "+otherCol+" < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&edges).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(edges) > limit {
		last := edges[limit-1]
		other := last.FollowingID
		if otherCol == "follower_id" {
			other = last.FollowerID
		}
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      other,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		edges = edges[:limit]
	}

	return edges, nextToken, nil
}

// FollowingIDs returns every user id followerID follows.
func (r *FollowRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.FollowEdge{}).
		Where("follower_id = ?", followerID).
		Order("following_id ASC").
		Pluck("following_id", &ids).Error
	return ids, err
}

// Suggestions returns profiles userID does not follow yet, excluding userID,
// strongest solvers first.
func (r *FollowRepository) Suggestions(ctx context.Context, userID string, limit int) ([]db.Profile, error) {
	followed := r.db.Model(&db.FollowEdge{}).
		Select("following_id").
		Where("follower_id = ?", userID)

	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("id <> ? AND id NOT IN (?)", userID, followed).
		Order("total_correct DESC, id ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
