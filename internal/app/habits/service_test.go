package habits_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/app/habits"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/infra/memstore"
)

var now0 = time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func seq() domain.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("h%d", n)
	}
}

// recorder captures completion events.
type recorder struct {
	calls []engagement.CompletionInput
}

func (r *recorder) OnHabitComplete(_ context.Context, in engagement.CompletionInput) engagement.CompletionResult {
	r.calls = append(r.calls, in)
	return engagement.CompletionResult{XPAwarded: 10}
}

func newSvc(t *testing.T, store domain.KVStore, c *clock, opts ...habits.Option) (*habits.Service, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	base := []habits.Option{
		habits.WithClock(c.Now),
		habits.WithLocation(time.UTC),
		habits.WithIDGenerator(seq()),
		habits.WithLogger(log.New(&logs, "", 0)),
	}
	return habits.NewService(context.Background(), store, append(base, opts...)...), &logs
}

func mustAdd(t *testing.T, svc *habits.Service, name string, d domain.HabitDifficulty) domain.Habit {
	t.Helper()
	h, err := svc.Add(context.Background(), habits.NewHabit{
		Name: name, Icon: "Star", Category: domain.CategoryCustom, Difficulty: d,
	})
	require.NoError(t, err)
	return h
}

func day(offset int) string {
	return now0.AddDate(0, 0, offset).Format(domain.DateLayout)
}

// ═══════════════════════════════════════════════════════════════════════════
// Catalog Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLegacyLevel(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{0, 1}, {99, 1}, {100, 2}, {249, 2}, {250, 3}, {15000, 11}, {1 << 40, 11}, {-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, habits.LegacyLevel(tt.xp), "xp=%d", tt.xp)
	}
	assert.Equal(t, int64(250), habits.LegacyXPForNextLevel(2))
	assert.Equal(t, int64(15000), habits.LegacyXPForNextLevel(11))
}

func TestCatalogs(t *testing.T) {
	assert.Len(t, habits.Templates(), 8)
	assert.Len(t, habits.Badges(), 7)

	b := habits.Badges()
	b[0].Name = "tampered"
	assert.Equal(t, "First Step", habits.Badges()[0].Name)

	st := habits.DefaultStats()
	assert.Equal(t, 3, st.StreakFreezes)
	assert.Equal(t, 1, st.Level)
	assert.NotNil(t, st.Badges)
}

// ═══════════════════════════════════════════════════════════════════════════
// CRUD Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestAdd(t *testing.T) {
	svc, _ := newSvc(t, memstore.New(), &clock{now: now0})

	h := mustAdd(t, svc, "  Read <b>daily</b>  ", domain.DifficultyEasy)
	assert.Equal(t, "h1", h.ID)
	assert.Equal(t, "Read daily", h.Name)
	assert.Zero(t, h.Streak)
	assert.Empty(t, h.Completions)
	assert.True(t, h.CreatedAt.Equal(now0))

	got, err := svc.Get("h1")
	require.NoError(t, err)
	assert.Equal(t, h.Name, got.Name)
}

func TestAdd_Validation(t *testing.T) {
	svc, _ := newSvc(t, nil, &clock{now: now0})

	tests := []struct {
		name string
		in   habits.NewHabit
	}{
		{"missing name", habits.NewHabit{Category: domain.CategoryFitness, Difficulty: domain.DifficultyEasy}},
		{"bad difficulty", habits.NewHabit{Name: "x", Category: domain.CategoryFitness, Difficulty: "epic"}},
		{"bad category", habits.NewHabit{Name: "x", Category: "sleep", Difficulty: domain.DifficultyEasy}},
		{"markup only", habits.NewHabit{Name: "<script></script>", Category: domain.CategoryFitness, Difficulty: domain.DifficultyEasy}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidHabit)
		})
	}
	assert.Empty(t, svc.List())
}

func TestDelete(t *testing.T) {
	svc, _ := newSvc(t, memstore.New(), &clock{now: now0})
	mustAdd(t, svc, "a", domain.DifficultyEasy)
	mustAdd(t, svc, "b", domain.DifficultyEasy)

	require.NoError(t, svc.Delete(context.Background(), "h1"))
	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "h2", list[0].ID)

	assert.ErrorIs(t, svc.Delete(context.Background(), "h1"), domain.ErrHabitNotFound)
	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)
}

func TestPersistence(t *testing.T) {
	store := memstore.New()
	c := &clock{now: now0}
	svc, _ := newSvc(t, store, c)
	h := mustAdd(t, svc, "Meditate", domain.DifficultyMedium)
	_, err := svc.ToggleCompletion(context.Background(), h.ID, day(0), "calm", domain.MoodGood)
	require.NoError(t, err)

	raw, ok, err := store.Get(context.Background(), domain.KeyHabits)
	require.NoError(t, err)
	require.True(t, ok)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Contains(t, doc, "habits")
	assert.Contains(t, doc, "stats")

	reopened, _ := newSvc(t, store, c)
	got, err := reopened.Get(h.ID)
	require.NoError(t, err)
	require.Len(t, got.Completions, 1)
	assert.Equal(t, "calm", got.Completions[0].Note)
	assert.Equal(t, int64(25), reopened.Stats().XP)
}

func TestLoad_Malformed(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Set(context.Background(), domain.KeyHabits, "[oops"))

	svc, logs := newSvc(t, store, &clock{now: now0})
	assert.Empty(t, svc.List())
	assert.Equal(t, 3, svc.Stats().StreakFreezes)
	assert.Contains(t, logs.String(), "WARNING")
}

// ═══════════════════════════════════════════════════════════════════════════
// Completion Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLoad_ReadFailureKeepsStoredHabits(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	stored := `{"habits":[{"id":"keep","name":"Keep"}],"stats":{"xp":70}}`
	require.NoError(t, store.Set(ctx, domain.KeyHabits, stored))
	store.FailReads = errors.New("timeout")

	svc, logs := newSvc(t, store, &clock{now: now0})
	assert.Empty(t, svc.List())
	assert.Contains(t, logs.String(), "read habits")

	mustAdd(t, svc, "Fresh", domain.DifficultyEasy)

	store.FailReads = nil
	raw, ok, err := store.Get(ctx, domain.KeyHabits)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored, raw)
}

func TestToggleCompletion_OnAndOff(t *testing.T) {
	svc, _ := newSvc(t, memstore.New(), &clock{now: now0})
	h := mustAdd(t, svc, "Run", domain.DifficultyHard)
	ctx := context.Background()

	res, err := svc.ToggleCompletion(ctx, h.ID, day(0), "", "")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, int64(50), res.XPGained)
	assert.Equal(t, 1, res.Habit.Streak)
	assert.Equal(t, 1, res.Habit.BestStreak)

	res, err = svc.ToggleCompletion(ctx, h.ID, day(0), "", "")
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Zero(t, res.XPGained)
	assert.Zero(t, res.Habit.Streak)
	assert.Equal(t, 1, res.Habit.BestStreak)
	assert.Empty(t, res.Habit.Completions)

	// Legacy XP is not refunded on toggle-off.
	assert.Equal(t, int64(50), svc.Stats().XP)
	assert.Equal(t, 1, svc.Stats().TotalHabitsCompleted)
}

func TestToggleCompletion_StreakFromYesterday(t *testing.T) {
	c := &clock{now: now0}
	svc, _ := newSvc(t, memstore.New(), c)
	h := mustAdd(t, svc, "Run", domain.DifficultyEasy)
	ctx := context.Background()

	_, err := svc.ToggleCompletion(ctx, h.ID, day(0), "", "")
	require.NoError(t, err)

	c.now = now0.Add(24 * time.Hour)
	res, err := svc.ToggleCompletion(ctx, h.ID, day(1), "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Habit.Streak)

	c.now = now0.Add(3 * 24 * time.Hour)
	res, err = svc.ToggleCompletion(ctx, h.ID, day(3), "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Habit.Streak, "gap restarts the streak")
	assert.Equal(t, 2, res.Habit.BestStreak)
}

func TestToggleCompletion_PastDateKeepsStreak(t *testing.T) {
	svc, _ := newSvc(t, memstore.New(), &clock{now: now0})
	h := mustAdd(t, svc, "Run", domain.DifficultyEasy)

	res, err := svc.ToggleCompletion(context.Background(), h.ID, day(-5), "", "")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, int64(10), res.XPGained)
	assert.Zero(t, res.Habit.Streak)
}

func TestToggleCompletion_Errors(t *testing.T) {
	svc, _ := newSvc(t, nil, &clock{now: now0})
	h := mustAdd(t, svc, "Run", domain.DifficultyEasy)
	ctx := context.Background()

	_, err := svc.ToggleCompletion(ctx, "missing", day(0), "", "")
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)

	_, err = svc.ToggleCompletion(ctx, h.ID, "10/07/2025", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.ToggleCompletion(ctx, h.ID, day(0), "", "ecstatic")
	assert.ErrorIs(t, err, domain.ErrInvalidHabit)
}

func TestToggleCompletion_ForwardsToGamification(t *testing.T) {
	c := &clock{now: now0}
	rec := &recorder{}
	svc, _ := newSvc(t, memstore.New(), c, habits.WithGamification(rec))
	a := mustAdd(t, svc, "a", domain.DifficultyEasy)
	b := mustAdd(t, svc, "b", domain.DifficultyEasy)
	ctx := context.Background()

	_, err := svc.ToggleCompletion(ctx, a.ID, day(-4), "", "")
	require.NoError(t, err)
	assert.Empty(t, rec.calls, "past dates are not forwarded")

	res, err := svc.ToggleCompletion(ctx, a.ID, day(0), "", "")
	require.NoError(t, err)
	require.NotNil(t, res.Gamification)
	require.Len(t, rec.calls, 1)

	in := rec.calls[0]
	assert.Equal(t, a.ID, in.HabitID)
	assert.False(t, in.IsFirstTime)
	assert.Equal(t, 1, in.CompletedToday)
	assert.Equal(t, 2, in.TotalToday)
	assert.Equal(t, 1, in.CurrentStreak)
	require.NotNil(t, in.LastCompletedDate)
	assert.Equal(t, day(-4), in.LastCompletedDate.Format(domain.DateLayout))

	_, err = svc.ToggleCompletion(ctx, b.ID, day(0), "", "")
	require.NoError(t, err)
	require.Len(t, rec.calls, 2)
	assert.True(t, rec.calls[1].IsFirstTime)
	assert.Nil(t, rec.calls[1].LastCompletedDate)
	assert.Equal(t, 2, rec.calls[1].CompletedToday)

	_, err = svc.ToggleCompletion(ctx, b.ID, day(0), "", "")
	require.NoError(t, err)
	assert.Len(t, rec.calls, 2, "toggle-off is not forwarded")
}

func TestToggleCompletion_WithEngine(t *testing.T) {
	c := &clock{now: now0}
	store := memstore.New()
	engine := engagement.NewService(context.Background(), store,
		engagement.WithClock(c.Now),
		engagement.WithLocation(time.UTC),
		engagement.WithLogger(log.New(&bytes.Buffer{}, "", 0)),
	)
	svc, _ := newSvc(t, store, c, habits.WithGamification(engine))
	h := mustAdd(t, svc, "Only", domain.DifficultyEasy)

	res, err := svc.ToggleCompletion(context.Background(), h.ID, day(0), "", "")
	require.NoError(t, err)
	require.NotNil(t, res.Gamification)
	assert.Equal(t, domain.DayPerfect, res.Gamification.DayQuality.Quality)

	snap := engine.Snapshot()
	assert.Equal(t, res.Gamification.XPAwarded, snap.TotalXP)
	assert.Equal(t, 1, snap.Streaks.Current)
}

func TestToggleCompletion_RecheckingTodayIsNotReplayed(t *testing.T) {
	c := &clock{now: now0}
	store := memstore.New()
	quiet := log.New(&bytes.Buffer{}, "", 0)
	engine := engagement.NewService(context.Background(), store,
		engagement.WithClock(c.Now),
		engagement.WithLocation(time.UTC),
		engagement.WithLogger(quiet),
	)
	svc, _ := newSvc(t, store, c, habits.WithGamification(engine))
	h := mustAdd(t, svc, "Stretch", domain.DifficultyEasy)
	ctx := context.Background()

	_, err := svc.ToggleCompletion(ctx, h.ID, day(0), "", "")
	require.NoError(t, err)

	c.now = now0.AddDate(0, 0, 5)
	first, err := svc.ToggleCompletion(ctx, h.ID, day(5), "", "")
	require.NoError(t, err)
	require.NotNil(t, first.Gamification)
	require.NotNil(t, first.Gamification.Recovery)
	xpAfterComeback := engine.Snapshot().TotalXP

	// off, on, off, on
	for i := 0; i < 4; i++ {
		res, err := svc.ToggleCompletion(ctx, h.ID, day(5), "", "")
		require.NoError(t, err)
		assert.Nil(t, res.Gamification, "toggle %d reached the engine", i+2)
	}

	snap := engine.Snapshot()
	assert.Len(t, snap.Recoveries, 1)
	assert.Equal(t, xpAfterComeback, snap.TotalXP)

	got, err := svc.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, day(5), got.RewardedOn)

	// The marker survives a restart.
	reloaded, _ := newSvc(t, store, c, habits.WithGamification(engine))
	_, err = reloaded.ToggleCompletion(ctx, h.ID, day(5), "", "")
	require.NoError(t, err)
	res, err := reloaded.ToggleCompletion(ctx, h.ID, day(5), "", "")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Nil(t, res.Gamification)
	assert.Len(t, engine.Snapshot().Recoveries, 1)
}

func TestBadges(t *testing.T) {
	c := &clock{now: now0}
	svc, _ := newSvc(t, memstore.New(), c)
	h := mustAdd(t, svc, "Daily", domain.DifficultyHard)
	ctx := context.Background()

	res, err := svc.ToggleCompletion(ctx, h.ID, day(0), "", "")
	require.NoError(t, err)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "first_step", res.NewBadges[0].ID)
	require.NotNil(t, res.NewBadges[0].EarnedAt)

	var ids []string
	for d := 1; d <= 6; d++ {
		c.now = now0.AddDate(0, 0, d)
		res, err = svc.ToggleCompletion(ctx, h.ID, day(d), "", "")
		require.NoError(t, err)
		for _, b := range res.NewBadges {
			ids = append(ids, b.ID)
		}
	}
	assert.ElementsMatch(t, []string{"week_warrior", "perfect_week"}, ids)

	st := svc.Stats()
	assert.Equal(t, int64(350), st.XP)
	assert.Equal(t, 3, st.Level)
	assert.Equal(t, 7, st.CurrentStreak)
	assert.Equal(t, 7, st.LongestStreak)
	assert.Len(t, st.Badges, 3)
}

func TestToday(t *testing.T) {
	svc, _ := newSvc(t, nil, &clock{now: now0})
	a := mustAdd(t, svc, "a", domain.DifficultyEasy)
	mustAdd(t, svc, "b", domain.DifficultyEasy)

	_, err := svc.ToggleCompletion(context.Background(), a.ID, day(0), "", "")
	require.NoError(t, err)

	assert.Equal(t, habits.Today{Date: day(0), Completed: 1, Total: 2}, svc.Today())
}

func TestAddNote(t *testing.T) {
	svc, _ := newSvc(t, memstore.New(), &clock{now: now0})
	h := mustAdd(t, svc, "Journal", domain.DifficultyEasy)
	ctx := context.Background()

	require.NoError(t, svc.AddNote(ctx, h.ID, day(0), "nothing to annotate", ""))
	got, _ := svc.Get(h.ID)
	assert.Empty(t, got.Completions)

	_, err := svc.ToggleCompletion(ctx, h.ID, day(0), "", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddNote(ctx, h.ID, day(0), "felt <i>great</i>", domain.MoodGreat))

	got, _ = svc.Get(h.ID)
	require.Len(t, got.Completions, 1)
	assert.Equal(t, "felt great", got.Completions[0].Note)
	assert.Equal(t, domain.MoodGreat, got.Completions[0].Mood)

	assert.ErrorIs(t, svc.AddNote(ctx, "missing", day(0), "x", ""), domain.ErrHabitNotFound)
	assert.ErrorIs(t, svc.AddNote(ctx, h.ID, "yesterday", "x", ""), domain.ErrInvalidDate)
}

func TestUseStreakFreeze(t *testing.T) {
	svc, logs := newSvc(t, memstore.New(), &clock{now: now0})
	h := mustAdd(t, svc, "Run", domain.DifficultyEasy)
	ctx := context.Background()

	for want := 2; want >= 0; want-- {
		left, err := svc.UseStreakFreeze(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, want, left)
	}
	_, err := svc.UseStreakFreeze(ctx, h.ID)
	assert.ErrorIs(t, err, domain.ErrNoFreezesAvailable)
	assert.Contains(t, logs.String(), "no streak freezes left")

	_, err = svc.UseStreakFreeze(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)
}
