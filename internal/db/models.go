package db

import (
	"time"

	"gorm.io/datatypes"

	"github.com/oggyb/daily-riddle/internal/calendar"
)

// Profile is a player's game state. Authentication and profile editing live
// elsewhere; this service only mutates the streak counters.
//
// Invariants:
//   - LongestStreak >= CurrentStreak
//   - TotalCorrect equals the number of correct submissions
//   - LastAnsweredDate is the CAS key for the once-per-day transition
//
// Derived counters:
//   - CorrectRun: consecutive correct answers on consecutive days (perfect week).
//   - FollowingCount: outgoing follow edges (social achievement).
type Profile struct {
	ID                 string        `gorm:"primaryKey;size:36"`
	Username           string        `gorm:"uniqueIndex;size:64;not null"`
	DisplayName        string        `gorm:"size:128"`
	Bio                string        `gorm:"size:512"`
	LanguagePreference string        `gorm:"size:8;not null;default:en"`
	CurrentStreak      int           `gorm:"not null;default:0"`
	LongestStreak      int           `gorm:"not null;default:0"`
	TotalCorrect       int           `gorm:"not null;default:0"`
	CorrectRun         int           `gorm:"not null;default:0"`
	FollowingCount     int           `gorm:"not null;default:0"`
	LastAnsweredDate   calendar.Date `gorm:"type:varchar(10)"`
	CreatedAt          time.Time     `gorm:"autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime"`
}

// Riddle is immutable once published. Texts maps a language code to the
// riddle text in that language and may be partial.
type Riddle struct {
	ID              string                                `gorm:"primaryKey;size:36"`
	Texts           datatypes.JSONType[map[string]string] `gorm:"not null"`
	Category        string                                `gorm:"size:64"`
	Difficulty      string                                `gorm:"size:32"`
	CanonicalAnswer string                                `gorm:"size:255;not null"`
	ActiveDate      calendar.Date                         `gorm:"type:varchar(10);index"`
	CreatedAt       time.Time                             `gorm:"autoCreateTime"`
}

// RawAnswerSize is the width of submissions.raw_answer. Answers longer than
// this are rejected before they reach the database.
const RawAnswerSize = 1024

// Submission is the append-only answer log.
//
// Unique (UserID, Date): a single scoring event per user and day.
// StreakAfter is the CurrentStreak produced by this submission, which lets the
// leaderboard derive streaks from history alone. RawAnswer holds the trimmed
// text as submitted.
type Submission struct {
	ID          string        `gorm:"primaryKey;size:36"`
	UserID      string        `gorm:"size:36;not null;uniqueIndex:idx_submission_user_date,priority:1"`
	RiddleID    string        `gorm:"size:36;not null"`
	Date        calendar.Date `gorm:"type:varchar(10);not null;uniqueIndex:idx_submission_user_date,priority:2;index:idx_submission_date_correct,priority:1"`
	RawAnswer   string        `gorm:"size:1024"`
	IsCorrect   bool          `gorm:"not null;index:idx_submission_date_correct,priority:2"`
	StreakAfter int           `gorm:"not null;default:0"`
	CreatedAt   time.Time     `gorm:"autoCreateTime"`
}

// Achievement is a permanent unlock. Composite PK (UserID, Type) makes
// unlocking idempotent.
type Achievement struct {
	UserID     string    `gorm:"primaryKey;size:36"`
	Type       string    `gorm:"primaryKey;size:32"`
	UnlockedAt time.Time `gorm:"not null"`
}

// FollowEdge is a directed follower -> following relation, unique per ordered pair.
type FollowEdge struct {
	FollowerID  string    `gorm:"primaryKey;size:36"`
	FollowingID string    `gorm:"primaryKey;size:36;index:idx_following_created,priority:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_following_created,priority:2,sort:desc"`
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&Profile{}, &Riddle{}, &Submission{}, &Achievement{}, &FollowEdge{}}
}
