package evaluator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oggyb/daily-riddle/internal/achievement"
	"github.com/oggyb/daily-riddle/internal/cache"
	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/config"
	"github.com/oggyb/daily-riddle/internal/db"
	"github.com/oggyb/daily-riddle/internal/db/dbtest"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
	"github.com/oggyb/daily-riddle/internal/evaluator"
	"github.com/oggyb/daily-riddle/internal/leaderboard"
	"github.com/oggyb/daily-riddle/internal/logger"
	"github.com/oggyb/daily-riddle/internal/repository"
	"github.com/oggyb/daily-riddle/internal/scheduler"
)

var (
	now       = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	today     = calendar.NewDate(2026, 10, 14)
	yesterday = today.AddDays(-1)
)

type fixture struct {
	db      *gorm.DB
	eval    *evaluator.Evaluator
	queue   *cache.RedisCache
	retries *achievement.RetryQueue
	mr      *miniredis.Miniredis
	sched   *scheduler.Scheduler
}

type fixtureOpts struct {
	riddles      []string
	strict       bool
	policy       evaluator.Policy
	achievements evaluator.Achievements
}

// newFixture wires an evaluator over in-memory SQLite and miniredis.
// Riddles get the canonical answer "answer-<id>".
func newFixture(t *testing.T, o fixtureOpts) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)

	if len(o.riddles) == 0 {
		o.riddles = []string{"r1"}
	}
	for _, id := range o.riddles {
		require.NoError(t, gdb.Create(&db.Riddle{
			ID:              id,
			Texts:           datatypes.NewJSONType(map[string]string{"en": "riddle " + id}),
			CanonicalAnswer: "answer-" + id,
		}).Error)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)

	clock := calendar.FixedClock(now, time.UTC)
	profiles := repository.NewProfileRepository(gdb)
	riddles := repository.NewRiddleRepository(gdb)
	subs := repository.NewSubmissionRepository(gdb)
	sched := scheduler.New(riddles, subs, scheduler.ModePersonalized)

	ach := o.achievements
	if ach == nil {
		ach = achievement.NewEngine(repository.NewAchievementRepository(gdb), profiles, clock.Now, logger.Discard())
	}
	board := leaderboard.New(subs, repository.NewFollowRepository(gdb), rc, clock,
		leaderboard.Options{CacheTTL: time.Minute}, logger.Discard())

	retries := achievement.NewRetryQueue(rc)
	policy := o.policy
	if policy == "" {
		policy = evaluator.PolicyReset
	}
	eval := evaluator.New(evaluator.Deps{
		Profiles:     profiles,
		Riddles:      riddles,
		Submissions:  subs,
		Schedule:     sched,
		Achievements: ach,
		Retries:      retries,
		Board:        board,
		Clock:        clock,
		Log:          logger.Discard(),
	}, evaluator.Options{
		Policy:          policy,
		StrictDaily:     o.strict,
		MaxAnswerLength: 50,
		MaxRetries:      3,
	})

	return &fixture{db: gdb, eval: eval, queue: rc, retries: retries, mr: mr, sched: sched}
}

func (f *fixture) profile(t *testing.T, p db.Profile) {
	t.Helper()
	if p.Username == "" {
		p.Username = p.ID
	}
	require.NoError(t, f.db.Create(&p).Error)
}

func (f *fixture) load(t *testing.T, id string) db.Profile {
	t.Helper()
	var p db.Profile
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p
}

func TestSubmit_ConsecutiveCorrectThenDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "a", CurrentStreak: 5, LongestStreak: 5, TotalCorrect: 40, CorrectRun: 5, LastAnsweredDate: yesterday})

	first, err := f.eval.Submit(ctx, "a", "r1", "  ANSWER-r1 ")
	require.NoError(t, err)
	assert.True(t, first.IsCorrect)
	assert.Equal(t, 6, first.CurrentStreak)
	assert.Equal(t, 41, first.TotalCorrect)
	assert.Equal(t, "answer-r1", first.CanonicalAnswer)
	assert.False(t, first.Replayed)

	// a retry, even with a different answer, replays the recorded outcome
	second, err := f.eval.Submit(ctx, "a", "r1", "wrong")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.IsCorrect, second.IsCorrect)
	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
	assert.Equal(t, first.CanonicalAnswer, second.CanonicalAnswer)
	assert.Empty(t, second.NewAchievements)

	p := f.load(t, "a")
	assert.Equal(t, 6, p.CurrentStreak)
	assert.Equal(t, 41, p.TotalCorrect)
	assert.Equal(t, today, p.LastAnsweredDate)

	var n int64
	require.NoError(t, f.db.Model(&db.Submission{}).Where("user_id = ?", "a").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSubmit_StreakTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "gap", CurrentStreak: 9, LongestStreak: 9, LastAnsweredDate: today.AddDays(-2)})
	f.profile(t, db.Profile{ID: "wrong", CurrentStreak: 9, LongestStreak: 9, LastAnsweredDate: yesterday})
	f.profile(t, db.Profile{ID: "new"})

	res, err := f.eval.Submit(ctx, "gap", "r1", "answer-r1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 9, res.LongestStreak)

	res, err = f.eval.Submit(ctx, "wrong", "r1", "nope")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 0, res.CurrentStreak)
	assert.Equal(t, "answer-r1", res.CanonicalAnswer)
	assert.Equal(t, today, f.load(t, "wrong").LastAnsweredDate)

	res, err = f.eval.Submit(ctx, "new", "r1", "answer-r1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 1, res.LongestStreak)
}

func TestSubmit_HoldPolicy(t *testing.T) {
	f := newFixture(t, fixtureOpts{policy: evaluator.PolicyHold})
	f.profile(t, db.Profile{ID: "h", CurrentStreak: 4, LongestStreak: 4, LastAnsweredDate: yesterday})

	res, err := f.eval.Submit(context.Background(), "h", "r1", "nope")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 4, res.CurrentStreak)
}

func TestSubmit_HundredthCorrectUnlocksMasterOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "m", TotalCorrect: 99, LastAnsweredDate: today.AddDays(-5)})

	res, err := f.eval.Submit(ctx, "m", "r1", "answer-r1")
	require.NoError(t, err)
	assert.Equal(t, 100, res.TotalCorrect)
	assert.Equal(t, []achievement.Type{achievement.Master}, res.NewAchievements)

	again, err := f.eval.Submit(ctx, "m", "r1", "answer-r1")
	require.NoError(t, err)
	assert.Empty(t, again.NewAchievements)

	var n int64
	require.NoError(t, f.db.Model(&db.Achievement{}).Where("user_id = ? AND type = ?", "m", "master").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "u"})

	_, err := f.eval.Submit(ctx, "u", "r1", "   ")
	assert.ErrorIs(t, err, svcErr.ErrEmptyAnswer)

	_, err = f.eval.Submit(ctx, "u", "r1", strings.Repeat("x", 51))
	assert.ErrorIs(t, err, svcErr.ErrAnswerTooLong)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	// padding does not get past the size check
	_, err = f.eval.Submit(ctx, "u", "r1", "answer-r1"+strings.Repeat(" ", 5000))
	assert.ErrorIs(t, err, svcErr.ErrAnswerTooLong)

	_, err = f.eval.Submit(ctx, "u", "missing", "x")
	assert.ErrorIs(t, err, svcErr.ErrRiddleNotFound)

	_, err = f.eval.Submit(ctx, "ghost", "r1", "x")
	assert.ErrorIs(t, err, svcErr.ErrUserNotFound)

	// nothing was written by rejected calls
	assert.True(t, f.load(t, "u").LastAnsweredDate.IsZero())
	var n int64
	require.NoError(t, f.db.Model(&db.Submission{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSubmit_StoresTrimmedAnswer(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "u"})

	res, err := f.eval.Submit(context.Background(), "u", "r1", "  answer-r1"+strings.Repeat(" ", 200))
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)

	var sub db.Submission
	require.NoError(t, f.db.First(&sub, "user_id = ?", "u").Error)
	assert.Equal(t, "answer-r1", sub.RawAnswer)
}

func TestSubmit_StrictDailyRiddle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{riddles: []string{"r1", "r2", "r3"}, strict: true})
	f.profile(t, db.Profile{ID: "u"})

	served, err := f.sched.RiddleForUser(ctx, "u", today)
	require.NoError(t, err)
	other := "r1"
	if served.ID == other {
		other = "r2"
	}

	_, err = f.eval.Submit(ctx, "u", other, "answer-"+other)
	assert.ErrorIs(t, err, svcErr.ErrRiddleNotToday)

	res, err := f.eval.Submit(ctx, "u", served.ID, "answer-"+served.ID)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)

	// replays skip the check and report the recorded riddle
	replay, err := f.eval.Submit(ctx, "u", other, "whatever")
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, served.ID, replay.RiddleID)
	assert.Equal(t, "answer-"+served.ID, replay.CanonicalAnswer)
}

func TestSubmit_LastAnsweredInTheFuture(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "u", LastAnsweredDate: today.AddDays(1)})

	_, err := f.eval.Submit(context.Background(), "u", "r1", "answer-r1")
	assert.ErrorIs(t, err, svcErr.ErrConflict)
}

func TestSubmit_ConcurrentDuplicatesScoreOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "a", CurrentStreak: 5, LongestStreak: 5, TotalCorrect: 10, LastAnsweredDate: yesterday})

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*evaluator.Result
		errs    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.eval.Submit(ctx, "a", "r1", "answer-r1")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, res)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, results, callers)

	fresh := 0
	for _, r := range results {
		if !r.Replayed {
			fresh++
		}
		assert.True(t, r.IsCorrect)
		assert.Equal(t, 6, r.CurrentStreak)
	}
	assert.Equal(t, 1, fresh)

	p := f.load(t, "a")
	assert.Equal(t, 6, p.CurrentStreak)
	assert.Equal(t, 11, p.TotalCorrect)
}

type brokenAchievements struct{}

func (brokenAchievements) OnMutation(context.Context, achievement.Mutation) ([]achievement.Type, error) {
	return nil, errors.New("achievement store down")
}

func TestSubmit_AchievementFailureIsQueued(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{achievements: brokenAchievements{}})
	f.profile(t, db.Profile{ID: "u", CurrentStreak: 2, LongestStreak: 2, LastAnsweredDate: yesterday})

	res, err := f.eval.Submit(ctx, "u", "r1", "answer-r1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentStreak)
	assert.Empty(t, res.NewAchievements)

	// the mutation committed and its snapshot waits for a retry
	assert.Equal(t, 3, f.load(t, "u").CurrentStreak)
	m, ok, err := f.retries.Pop(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, achievement.Mutation{UserID: "u", CurrentStreak: 3, TotalCorrect: 1, CorrectRun: 1}, m)
}

// cancellingAchievements cancels the caller's context, then fails.
type cancellingAchievements struct {
	cancel    context.CancelFunc
	sawCancel bool
}

func (a *cancellingAchievements) OnMutation(ctx context.Context, _ achievement.Mutation) ([]achievement.Type, error) {
	a.cancel()
	a.sawCancel = ctx.Err() != nil
	return nil, errors.New("achievement store down")
}

func TestSubmit_CallerCancelAfterCommitStillQueuesRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ach := &cancellingAchievements{cancel: cancel}
	f := newFixture(t, fixtureOpts{achievements: ach})
	f.profile(t, db.Profile{ID: "u", CurrentStreak: 2, LongestStreak: 2, LastAnsweredDate: yesterday})

	res, err := f.eval.Submit(ctx, "u", "r1", "answer-r1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentStreak)
	assert.False(t, ach.sawCancel)

	m, ok, err := f.retries.Pop(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u", m.UserID)
	assert.Equal(t, 3, m.CurrentStreak)
}

func TestSubmit_InvalidatesWeeklyBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	f.profile(t, db.Profile{ID: "u"})

	key := f.queue.KeyForWeeklyBoard(today.WeekStart().String())
	require.NoError(t, f.mr.Set(key, `{"weekStart":"2026-10-12","entries":[]}`))

	_, err := f.eval.Submit(ctx, "u", "r1", "answer-r1")
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(key))
}
