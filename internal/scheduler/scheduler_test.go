package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/db"
	"github.com/oggyb/daily-riddle/internal/db/dbtest"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/repository"
	"github.com/oggyb/daily-riddle/internal/scheduler"
)

var day = calendar.NewDate(2026, 10, 14)

func pool(ids ...string) []db.Riddle {
	out := make([]db.Riddle, 0, len(ids))
	for _, id := range ids {
		out = append(out, db.Riddle{ID: id, Texts: datatypes.NewJSONType(map[string]string{"en": id})})
	}
	return out
}

func TestPick_DeterministicPerDate(t *testing.T) {
	p := pool("a", "b", "c", "d", "e")

	first, ok := scheduler.Pick(p, day, "", nil)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, _ := scheduler.Pick(p, day, "", nil)
		assert.Equal(t, first.ID, again.ID)
	}

	// consecutive days rotate through the pool
	next, _ := scheduler.Pick(p, day.AddDays(1), "", nil)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestPick_ExcludesAnswered(t *testing.T) {
	p := pool("a", "b", "c")
	for i := 0; i < 30; i++ {
		got, ok := scheduler.Pick(p, day.AddDays(i), "user-1", []string{"a", "b"})
		require.True(t, ok)
		assert.Equal(t, "c", got.ID)
	}
}

func TestPick_ReusesWhenEverythingAnswered(t *testing.T) {
	p := pool("only")
	got, ok := scheduler.Pick(p, day, "u", []string{"only"})
	require.True(t, ok)
	assert.Equal(t, "only", got.ID)
}

func TestPick_EmptyPool(t *testing.T) {
	_, ok := scheduler.Pick(nil, day, "", nil)
	assert.False(t, ok)
}

func TestPick_PinnedDateWins(t *testing.T) {
	p := pool("a", "b", "c")
	p[1].ActiveDate = day

	got, _ := scheduler.Pick(p, day, "anyone", nil)
	assert.Equal(t, "b", got.ID)

	// pinned but already answered: falls back to the rotation
	got, _ = scheduler.Pick(p, day, "anyone", []string{"b"})
	assert.NotEqual(t, "b", got.ID)
}

func TestScheduler_NoRiddleAvailable(t *testing.T) {
	gdb := dbtest.Open(t)
	s := scheduler.New(repository.NewRiddleRepository(gdb), repository.NewSubmissionRepository(gdb), scheduler.ModeGlobal)

	_, err := s.RiddleForDate(context.Background(), day, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, svcErr.ErrNoRiddleAvailable))
}

func TestScheduler_PersonalizedStableForTheDay(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	riddles := repository.NewRiddleRepository(gdb)
	for _, r := range pool("r1", "r2", "r3", "r4") {
		r := r
		require.NoError(t, riddles.CreateRiddle(ctx, &r))
	}
	s := scheduler.New(riddles, repository.NewSubmissionRepository(gdb), scheduler.ModePersonalized)

	before, err := s.RiddleForUser(ctx, "u1", day)
	require.NoError(t, err)

	// answering today's riddle must not change today's pick
	require.NoError(t, gdb.Create(&db.Submission{ID: "s1", UserID: "u1", RiddleID: before.ID, Date: day}).Error)
	after, err := s.RiddleForUser(ctx, "u1", day)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)

	// tomorrow it is excluded
	tomorrow, err := s.RiddleForUser(ctx, "u1", day.AddDays(1))
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, tomorrow.ID)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, scheduler.ModeGlobal, scheduler.ParseMode("global"))
	assert.Equal(t, scheduler.ModePersonalized, scheduler.ParseMode("personalized"))
	assert.Equal(t, scheduler.ModePersonalized, scheduler.ParseMode("whatever"))
}
