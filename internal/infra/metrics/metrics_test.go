package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestXPMetrics(t *testing.T) {
	XPAwarded.WithLabelValues("completion").Add(42)
	Level.Set(3)
	TotalXP.Set(310)
	LevelUps.Inc()

	names := gatheredNames(t)
	expected := []string{
		"bloom_xp_awarded_total",
		"bloom_level",
		"bloom_xp_total",
		"bloom_level_ups_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestStreakAndRecoveryMetrics(t *testing.T) {
	StreakCurrent.Set(7)
	StreakBreaks.Inc()
	FreezesUsed.Inc()
	FreezesEarned.Inc()
	Recoveries.WithLabelValues("quick_return").Inc()
	AchievementsUnlocked.WithLabelValues("bronze").Inc()

	names := gatheredNames(t)
	expected := []string{
		"bloom_streak_current_days",
		"bloom_streak_breaks_total",
		"bloom_freezes_used_total",
		"bloom_freezes_earned_total",
		"bloom_recoveries_total",
		"bloom_achievements_unlocked_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestHabitAndStoreMetrics(t *testing.T) {
	HabitCompletions.WithLabelValues("on").Inc()
	HabitsActive.Set(4)
	PersistFailures.WithLabelValues("habitbloom_gamification").Inc()
	StoreLatency.WithLabelValues("set").Observe(0.002)

	names := gatheredNames(t)
	for _, name := range []string{
		"bloom_habit_completions_total",
		"bloom_habits_active",
		"bloom_persist_failures_total",
		"bloom_store_latency_seconds",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
