// Package httpapi exposes the challenge service over REST with gin.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/service/challenge"
)

type Handler struct {
	svc     challenge.ChallengeServer
	limiter *UserLimiter
	log     *slog.Logger
}

func NewHandler(svc challenge.ChallengeServer, limiter *UserLimiter, log *slog.Logger) *Handler {
	return &Handler{svc: svc, limiter: limiter, log: log}
}

// HandleTodayRiddle handles GET /api/v1/riddles/today?userId=&language=
func (h *Handler) HandleTodayRiddle(c *gin.Context) {
	resp, err := h.svc.GetTodayRiddle(c.Request.Context(), &challenge.TodayRiddleRequest{
		UserID:   c.Query("userId"),
		Language: c.Query("language"),
	})
	h.respond(c, resp, err)
}

// HandleSubmitAnswer handles POST /api/v1/answers
func (h *Handler) HandleSubmitAnswer(c *gin.Context) {
	var req challenge.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if !h.allow(c, req.UserID) {
		return
	}
	resp, err := h.svc.SubmitAnswer(c.Request.Context(), &req)
	h.respond(c, resp, err)
}

// HandleLeaderboard handles GET /api/v1/leaderboard?weekStart=&limit=&userId=
func (h *Handler) HandleLeaderboard(c *gin.Context) {
	limit, ok := h.intQuery(c, "limit")
	if !ok {
		return
	}
	resp, err := h.svc.GetLeaderboard(c.Request.Context(), &challenge.LeaderboardRequest{
		WeekStart: c.Query("weekStart"),
		Limit:     limit,
		UserID:    c.Query("userId"),
	})
	h.respond(c, resp, err)
}

// HandleFollowingLeaderboard handles GET /api/v1/leaderboard/following?userId=&weekStart=
func (h *Handler) HandleFollowingLeaderboard(c *gin.Context) {
	resp, err := h.svc.GetFollowingLeaderboard(c.Request.Context(), &challenge.FollowingLeaderboardRequest{
		UserID:    c.Query("userId"),
		WeekStart: c.Query("weekStart"),
	})
	h.respond(c, resp, err)
}

func (h *Handler) HandleAchievements(c *gin.Context) {
	resp, err := h.svc.ListAchievements(c.Request.Context(), &challenge.UserRequest{UserID: c.Param("id")})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.Achievements)
}

func (h *Handler) HandleStats(c *gin.Context) {
	resp, err := h.svc.GetStats(c.Request.Context(), &challenge.UserRequest{UserID: c.Param("id")})
	h.respond(c, resp, err)
}

// HandleFollow handles POST /api/v1/follows
func (h *Handler) HandleFollow(c *gin.Context) {
	var req challenge.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if !h.allow(c, req.FollowerID) {
		return
	}
	resp, err := h.svc.Follow(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	code := http.StatusOK
	if resp.Created {
		code = http.StatusCreated
	}
	c.JSON(code, resp)
}

// HandleUnfollow handles DELETE /api/v1/follows
func (h *Handler) HandleUnfollow(c *gin.Context) {
	var req challenge.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if !h.allow(c, req.FollowerID) {
		return
	}
	resp, err := h.svc.Unfollow(c.Request.Context(), &req)
	h.respond(c, resp, err)
}

func (h *Handler) HandleFollowing(c *gin.Context) {
	req, ok := h.listRequest(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListFollowing(c.Request.Context(), req)
	h.respond(c, resp, err)
}

func (h *Handler) HandleFollowers(c *gin.Context) {
	req, ok := h.listRequest(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListFollowers(c.Request.Context(), req)
	h.respond(c, resp, err)
}

func (h *Handler) HandleSuggestions(c *gin.Context) {
	limit, ok := h.intQuery(c, "limit")
	if !ok {
		return
	}
	resp, err := h.svc.Suggestions(c.Request.Context(), &challenge.SuggestionsRequest{
		UserID: c.Param("id"),
		Limit:  limit,
	})
	h.respond(c, resp, err)
}

// --- helpers ---

func (h *Handler) listRequest(c *gin.Context) (*challenge.ListFollowsRequest, bool) {
	limit, ok := h.intQuery(c, "limit")
	if !ok {
		return nil, false
	}
	return &challenge.ListFollowsRequest{
		UserID:    c.Param("id"),
		PageToken: c.Query("pageToken"),
		Limit:     limit,
	}, true
}

// intQuery parses an optional integer query parameter; absent means 0.
func (h *Handler) intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func (h *Handler) allow(c *gin.Context, userID string) bool {
	if userID == "" || h.limiter == nil || h.limiter.Allow(userID) {
		return true
	}
	c.Header("Retry-After", "60")
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	return false
}

func (h *Handler) respond(c *gin.Context, resp any, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := svcErr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(code, gin.H{"error": http.StatusText(code)})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
