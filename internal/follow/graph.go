// Package follow is the directed social graph: who follows whom, plus the
// read-through queries the leaderboard and discovery pages use.
package follow

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/daily-riddle/internal/achievement"
	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	sideEffectTimeout = 5 * time.Second
)

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*db.Profile, error)
}

type Achievements interface {
	OnMutation(ctx context.Context, m achievement.Mutation) ([]achievement.Type, error)
}

type RetryQueue interface {
	Enqueue(ctx context.Context, m achievement.Mutation) error
}

type Graph struct {
	edges        *repository.FollowRepository
	profiles     ProfileReader
	achievements Achievements
	retries      RetryQueue
	log          *slog.Logger
}

func NewGraph(edges *repository.FollowRepository, profiles ProfileReader, achievements Achievements, retries RetryQueue, log *slog.Logger) *Graph {
	return &Graph{edges: edges, profiles: profiles, achievements: achievements, retries: retries, log: log}
}

// Follow adds followerID -> followingID.
//
// Behavior:
//   - Self-follow → svcErr.ErrSelfFollow; both users must exist.
//   - An existing edge is a no-op (created=false).
//   - A new edge bumps the follower's following_count and re-evaluates the
//     follower's achievements; evaluation failures are queued for retry.
func (g *Graph) Follow(ctx context.Context, followerID, followingID string) (bool, []achievement.Type, error) {
	if followerID == followingID {
		return false, nil, svcErr.ErrSelfFollow
	}
	if err := g.mustExist(ctx, followerID, followingID); err != nil {
		return false, nil, err
	}

	created, err := g.edges.CreateEdge(ctx, followerID, followingID)
	if err != nil {
		g.log.Error("failed to create follow edge", "follower", followerID, "following", followingID, "err", err)
		return false, nil, err
	}
	if !created {
		return false, nil, nil
	}

	return true, g.afterFollow(ctx, followerID), nil
}

// afterFollow evaluates the follower's post-commit snapshot, detached from
// the caller's cancellation. Failures are queued, never returned.
func (g *Graph) afterFollow(ctx context.Context, followerID string) []achievement.Type {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	m := achievement.Mutation{UserID: followerID}
	p, err := g.profiles.GetProfile(ctx, followerID)
	if err == nil {
		m = achievement.MutationOf(p)
		var unlocked []achievement.Type
		if unlocked, err = g.achievements.OnMutation(ctx, m); err == nil {
			return unlocked
		}
	}

	g.log.Warn("achievement evaluation after follow failed", "user", followerID, "err", err)
	if g.retries != nil {
		if qerr := g.retries.Enqueue(ctx, m); qerr != nil {
			g.log.Error("failed to queue achievement retry", "user", followerID, "err", qerr)
		}
	}
	return nil
}

// Unfollow removes the edge if present; removing a missing edge is not an error.
func (g *Graph) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, svcErr.ErrSelfFollow
	}
	return g.edges.DeleteEdge(ctx, followerID, followingID)
}

// Page is one slice of a follow listing.
type Page struct {
	Profiles      []db.Profile
	NextPageToken *string
}

// ListFollowing pages through the users userID follows, newest first.
func (g *Graph) ListFollowing(ctx context.Context, userID string, pageToken *string, limit int) (*Page, error) {
	if _, err := g.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	edges, next, err := g.edges.ListFollowing(ctx, userID, pageToken, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FollowingID)
	}
	return g.page(ctx, ids, next)
}

// ListFollowers pages through the users following userID, newest first.
func (g *Graph) ListFollowers(ctx context.Context, userID string, pageToken *string, limit int) (*Page, error) {
	if _, err := g.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	edges, next, err := g.edges.ListFollowers(ctx, userID, pageToken, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FollowerID)
	}
	return g.page(ctx, ids, next)
}

func (g *Graph) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return g.edges.FollowingIDs(ctx, userID)
}

// Suggestions lists players userID could follow, strongest solvers first.
func (g *Graph) Suggestions(ctx context.Context, userID string, limit int) ([]db.Profile, error) {
	if _, err := g.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	return g.edges.Suggestions(ctx, userID, clampLimit(limit))
}

// page resolves edge ids to profiles, keeping edge order. Edges pointing at
// deleted profiles are skipped.
func (g *Graph) page(ctx context.Context, ids []string, next *string) (*Page, error) {
	out := &Page{Profiles: make([]db.Profile, 0, len(ids)), NextPageToken: next}
	for _, id := range ids {
		p, err := g.profiles.GetProfile(ctx, id)
		if err != nil {
			if svcErr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out.Profiles = append(out.Profiles, *p)
	}
	return out, nil
}

func (g *Graph) mustExist(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := g.profiles.GetProfile(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}
