package challenge

import (
	"time"

	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/leaderboard"
)

// Messages exchanged over both gRPC (JSON codec) and HTTP.

type TodayRiddleRequest struct {
	UserID   string `json:"userId"`
	Language string `json:"language,omitempty"`
}

type TodayRiddleResponse struct {
	RiddleID    string `json:"riddleId"`
	DisplayText string `json:"displayText"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty,omitempty"`
	Language    string `json:"language"`
	Date        string `json:"date"`
}

type SubmitAnswerRequest struct {
	UserID     string `json:"userId"`
	RiddleID   string `json:"riddleId"`
	AnswerText string `json:"answerText"`
}

type SubmitAnswerResponse struct {
	IsCorrect       bool     `json:"isCorrect"`
	CanonicalAnswer string   `json:"canonicalAnswer"`
	CurrentStreak   int      `json:"currentStreak"`
	LongestStreak   int      `json:"longestStreak"`
	TotalCorrect    int      `json:"totalCorrect"`
	NewAchievements []string `json:"newAchievements"`
	Replayed        bool     `json:"replayed"`
}

// LeaderboardRequest asks for the global weekly board. UserID is optional;
// when set the response carries that user's rank.
type LeaderboardRequest struct {
	WeekStart string `json:"weekStart,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

type LeaderboardResponse struct {
	WeekStart string              `json:"weekStart"`
	Entries   []leaderboard.Entry `json:"entries"`
	YourRank  int                 `json:"yourRank,omitempty"`
}

type FollowingLeaderboardRequest struct {
	UserID    string `json:"userId"`
	WeekStart string `json:"weekStart,omitempty"`
}

type FollowingLeaderboardResponse struct {
	WeekStart string              `json:"weekStart"`
	Entries   []leaderboard.Entry `json:"entries"`
	YourRank  int                 `json:"yourRank"`
}

type UserRequest struct {
	UserID string `json:"userId"`
}

type AchievementView struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

type AchievementsResponse struct {
	Achievements []AchievementView `json:"achievements"`
}

type StatsResponse struct {
	UserID             string        `json:"userId"`
	Username           string        `json:"username"`
	DisplayName        string        `json:"displayName"`
	LanguagePreference string        `json:"languagePreference"`
	CurrentStreak      int           `json:"currentStreak"`
	LongestStreak      int           `json:"longestStreak"`
	TotalCorrect       int           `json:"totalCorrect"`
	CorrectRun         int           `json:"correctRun"`
	FollowingCount     int           `json:"followingCount"`
	LastAnsweredDate   calendar.Date `json:"lastAnsweredDate"`
	AnsweredToday      bool          `json:"answeredToday"`
}

type FollowRequest struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
}

type FollowResponse struct {
	Created         bool     `json:"created"`
	NewAchievements []string `json:"newAchievements"`
}

type UnfollowResponse struct {
	Removed bool `json:"removed"`
}

type ListFollowsRequest struct {
	UserID    string `json:"userId"`
	PageToken string `json:"pageToken,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type UserSummary struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName"`
	CurrentStreak int    `json:"currentStreak"`
	TotalCorrect  int    `json:"totalCorrect"`
}

type ListFollowsResponse struct {
	Users         []UserSummary `json:"users"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

type SuggestionsRequest struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit,omitempty"`
}

type SuggestionsResponse struct {
	Users []UserSummary `json:"users"`
}
