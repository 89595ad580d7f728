package challenge

import (
	"context"
	"strings"

	"github.com/oggyb/daily-riddle/internal/achievement"
	"github.com/oggyb/daily-riddle/internal/app"
	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/db"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/evaluator"
	"github.com/oggyb/daily-riddle/internal/follow"
	"github.com/oggyb/daily-riddle/internal/leaderboard"
	"github.com/oggyb/daily-riddle/internal/localization"
	"github.com/oggyb/daily-riddle/internal/repository"
	"github.com/oggyb/daily-riddle/internal/scheduler"
)

// Service implements the ChallengeService API.
// It is the single entry point used by both the gRPC and the HTTP surface
// and holds no state of its own beyond the wired components.
type Service struct {
	appCtx *app.AppContext

	profiles     *repository.ProfileRepository
	scheduler    *scheduler.Scheduler
	evaluator    *evaluator.Evaluator
	achievements *achievement.Engine
	board        *leaderboard.Aggregator
	graph        *follow.Graph
	retries      *achievement.RetryQueue
}

// NewChallengeService wires every component from AppContext.
// Dependencies include:
//   - DB connection (via the repositories)
//   - RedisCache for the weekly board cache and the achievement retry queue
//   - Clock for the authoritative day boundary
func NewChallengeService(appCtx *app.AppContext) *Service {
	cfg := appCtx.Config
	log := appCtx.Logger

	profiles := repository.NewProfileRepository(appCtx.DB)
	riddles := repository.NewRiddleRepository(appCtx.DB)
	subs := repository.NewSubmissionRepository(appCtx.DB)
	follows := repository.NewFollowRepository(appCtx.DB)

	sched := scheduler.New(riddles, subs, scheduler.ParseMode(cfg.Game.ScheduleMode))
	engine := achievement.NewEngine(repository.NewAchievementRepository(appCtx.DB), profiles, appCtx.Clock.Now, log)

	var boardCache leaderboard.Cache
	if appCtx.RedisCache != nil {
		boardCache = appCtx.RedisCache
	}
	board := leaderboard.New(subs, follows, boardCache, appCtx.Clock, leaderboard.Options{
		StreakBonus: cfg.Leaderboard.StreakBonus,
		CacheTTL:    cfg.Leaderboard.CacheTTL,
	}, log)

	deps := evaluator.Deps{
		Profiles:     profiles,
		Riddles:      riddles,
		Submissions:  subs,
		Schedule:     sched,
		Achievements: engine,
		Board:        board,
		Clock:        appCtx.Clock,
		Log:          log,
	}
	var (
		queue   *achievement.RetryQueue
		retries follow.RetryQueue
	)
	if appCtx.RedisCache != nil {
		queue = achievement.NewRetryQueue(appCtx.RedisCache)
		deps.Retries = queue
		retries = queue
	}
	eval := evaluator.New(deps, evaluator.Options{
		Policy:          evaluator.ParsePolicy(cfg.Game.StreakOnWrong),
		StrictDaily:     cfg.Game.StrictDailyRiddle,
		MaxAnswerLength: cfg.Game.MaxAnswerLength,
		MaxRetries:      cfg.Game.CASMaxRetries,
	})

	return &Service{
		appCtx:       appCtx,
		profiles:     profiles,
		scheduler:    sched,
		evaluator:    eval,
		achievements: engine,
		board:        board,
		graph:        follow.NewGraph(follows, profiles, engine, retries, log),
		retries:      queue,
	}
}

// Achievements exposes the engine for the retry worker.
func (s *Service) Achievements() *achievement.Engine { return s.achievements }

// RetryQueue is the achievement retry queue, nil without Redis.
func (s *Service) RetryQueue() *achievement.RetryQueue { return s.retries }

// GetTodayRiddle returns the riddle the user is served today, localized.
//
// Behavior:
//   - Language defaults to the profile's preference.
//   - Missing variants fall back to English, then to a placeholder.
//   - An empty pool → svcErr.ErrNoRiddleAvailable.
func (s *Service) GetTodayRiddle(ctx context.Context, req *TodayRiddleRequest) (*TodayRiddleResponse, error) {
	s.appCtx.Logger.Debug("GetTodayRiddle called", "user", req.UserID, "language", req.Language)

	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	today := s.appCtx.Clock.Today()
	riddle, err := s.scheduler.RiddleForUser(ctx, req.UserID, today)
	if err != nil {
		s.appCtx.Logger.Error("riddle selection failed", "user", req.UserID, "err", err)
		return nil, err
	}

	lang := req.Language
	if strings.TrimSpace(lang) == "" {
		lang = profile.LanguagePreference
	}
	lang = localization.Normalize(lang)

	return &TodayRiddleResponse{
		RiddleID:    riddle.ID,
		DisplayText: localization.Resolve(riddle.Texts.Data(), lang),
		Category:    riddle.Category,
		Difficulty:  riddle.Difficulty,
		Language:    lang,
		Date:        today.String(),
	}, nil
}

// SubmitAnswer grades the answer and records today's attempt.
// Retrying the same call on the same day returns the recorded outcome.
func (s *Service) SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	s.appCtx.Logger.Debug("SubmitAnswer called", "user", req.UserID, "riddle", req.RiddleID)

	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	if err := requireID("riddleId", req.RiddleID); err != nil {
		return nil, err
	}

	res, err := s.evaluator.Submit(ctx, req.UserID, req.RiddleID, req.AnswerText)
	if err != nil {
		return nil, err
	}

	return &SubmitAnswerResponse{
		IsCorrect:       res.IsCorrect,
		CanonicalAnswer: res.CanonicalAnswer,
		CurrentStreak:   res.CurrentStreak,
		LongestStreak:   res.LongestStreak,
		TotalCorrect:    res.TotalCorrect,
		NewAchievements: typeNames(res.NewAchievements),
		Replayed:        res.Replayed,
	}, nil
}

// GetLeaderboard returns the weekly ranking, best first.
func (s *Service) GetLeaderboard(ctx context.Context, req *LeaderboardRequest) (*LeaderboardResponse, error) {
	week, err := parseWeek(req.WeekStart)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.appCtx.Config.Leaderboard.Limit
	}

	if req.UserID != "" {
		if _, err := s.profiles.GetProfile(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	board, err := s.board.WeeklyRanking(ctx, week)
	if err != nil {
		s.appCtx.Logger.Error("weekly ranking failed", "week", req.WeekStart, "err", err)
		return nil, err
	}
	entries, err := s.withUsernames(ctx, board.Top(limit))
	if err != nil {
		return nil, err
	}

	resp := &LeaderboardResponse{WeekStart: board.WeekStart.String(), Entries: entries}
	if req.UserID != "" {
		resp.YourRank = board.RankOf(req.UserID)
	}
	return resp, nil
}

// GetFollowingLeaderboard ranks the user among the people they follow.
func (s *Service) GetFollowingLeaderboard(ctx context.Context, req *FollowingLeaderboardRequest) (*FollowingLeaderboardResponse, error) {
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	week, err := parseWeek(req.WeekStart)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetProfile(ctx, req.UserID); err != nil {
		return nil, err
	}

	board, yourRank, err := s.board.FollowingRanking(ctx, req.UserID, week)
	if err != nil {
		return nil, err
	}
	entries, err := s.withUsernames(ctx, board.Entries)
	if err != nil {
		return nil, err
	}
	return &FollowingLeaderboardResponse{
		WeekStart: board.WeekStart.String(),
		Entries:   entries,
		YourRank:  yourRank,
	}, nil
}

// withUsernames returns a copy of entries with display names filled in.
func (s *Service) withUsernames(ctx context.Context, entries []leaderboard.Entry) ([]leaderboard.Entry, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	names, err := s.profiles.Usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]leaderboard.Entry, len(entries))
	for i, e := range entries {
		e.Username = names[e.UserID]
		out[i] = e
	}
	return out, nil
}

// ListAchievements returns the user's unlocks, oldest first.
func (s *Service) ListAchievements(ctx context.Context, req *UserRequest) (*AchievementsResponse, error) {
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	list, err := s.achievements.List(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	resp := &AchievementsResponse{Achievements: make([]AchievementView, 0, len(list))}
	for _, a := range list {
		resp.Achievements = append(resp.Achievements, AchievementView{
			Type:        a.Type,
			Description: achievement.Describe(achievement.Type(a.Type)),
			UnlockedAt:  a.UnlockedAt,
		})
	}
	return resp, nil
}

// GetStats returns the user's streak and score snapshot.
func (s *Service) GetStats(ctx context.Context, req *UserRequest) (*StatsResponse, error) {
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	return &StatsResponse{
		UserID:             p.ID,
		Username:           p.Username,
		DisplayName:        p.DisplayName,
		LanguagePreference: p.LanguagePreference,
		CurrentStreak:      p.CurrentStreak,
		LongestStreak:      p.LongestStreak,
		TotalCorrect:       p.TotalCorrect,
		CorrectRun:         p.CorrectRun,
		FollowingCount:     p.FollowingCount,
		LastAnsweredDate:   p.LastAnsweredDate,
		AnsweredToday:      p.LastAnsweredDate.Equal(s.appCtx.Clock.Today()),
	}, nil
}

func (s *Service) Follow(ctx context.Context, req *FollowRequest) (*FollowResponse, error) {
	if err := requireFollowPair(req); err != nil {
		return nil, err
	}
	created, unlocked, err := s.graph.Follow(ctx, req.FollowerID, req.FollowingID)
	if err != nil {
		return nil, err
	}
	return &FollowResponse{Created: created, NewAchievements: typeNames(unlocked)}, nil
}

func (s *Service) Unfollow(ctx context.Context, req *FollowRequest) (*UnfollowResponse, error) {
	if err := requireFollowPair(req); err != nil {
		return nil, err
	}
	removed, err := s.graph.Unfollow(ctx, req.FollowerID, req.FollowingID)
	if err != nil {
		return nil, err
	}
	return &UnfollowResponse{Removed: removed}, nil
}

func (s *Service) ListFollowing(ctx context.Context, req *ListFollowsRequest) (*ListFollowsResponse, error) {
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	page, err := s.graph.ListFollowing(ctx, req.UserID, optional(req.PageToken), req.Limit)
	if err != nil {
		return nil, err
	}
	return pageResponse(page), nil
}

func (s *Service) ListFollowers(ctx context.Context, req *ListFollowsRequest) (*ListFollowsResponse, error) {
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	page, err := s.graph.ListFollowers(ctx, req.UserID, optional(req.PageToken), req.Limit)
	if err != nil {
		return nil, err
	}
	return pageResponse(page), nil
}

// Suggestions lists players worth following, strongest solvers first.
func (s *Service) Suggestions(ctx context.Context, req *SuggestionsRequest) (*SuggestionsResponse, error) {
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	profiles, err := s.graph.Suggestions(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, err
	}
	return &SuggestionsResponse{Users: summaries(profiles)}, nil
}

// --- helpers ---

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return svcErr.InvalidArgument(field + " is required")
	}
	return nil
}

func requireFollowPair(req *FollowRequest) error {
	if err := requireID("followerId", req.FollowerID); err != nil {
		return err
	}
	return requireID("followingId", req.FollowingID)
}

// parseWeek accepts "" (current week) or YYYY-MM-DD.
func parseWeek(s string) (calendar.Date, error) {
	if strings.TrimSpace(s) == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return calendar.Date{}, svcErr.InvalidArgument("weekStart must be YYYY-MM-DD")
	}
	return d, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func typeNames(types []achievement.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func summaries(profiles []db.Profile) []UserSummary {
	out := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, UserSummary{
			UserID:        p.ID,
			Username:      p.Username,
			DisplayName:   p.DisplayName,
			CurrentStreak: p.CurrentStreak,
			TotalCorrect:  p.TotalCorrect,
		})
	}
	return out
}

func pageResponse(page *follow.Page) *ListFollowsResponse {
	resp := &ListFollowsResponse{Users: summaries(page.Profiles)}
	if page.NextPageToken != nil {
		resp.NextPageToken = *page.NextPageToken
	}
	return resp
}
