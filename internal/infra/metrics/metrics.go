// Package metrics provides Prometheus metrics for Bloom.
// Counters and gauges for XP, levels, streaks, achievements, habits and persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── XP / Level ─────────────────────────────────────────────────────────────

// XPAwarded tracks XP credited by source (completion, manual).
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "xp_awarded_total",
	Help:      "Total XP credited to the gamification state.",
}, []string{"source"})

// Level tracks the current level.
var Level = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "level",
	Help:      "Current level derived from total XP.",
})

// TotalXP tracks cumulative XP.
var TotalXP = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "xp_total",
	Help:      "Cumulative XP.",
})

// LevelUps counts level transitions.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// ─── Streaks ────────────────────────────────────────────────────────────────

// StreakCurrent tracks the current streak length in days.
var StreakCurrent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "streak_current_days",
	Help:      "Current streak length in days.",
})

// StreakBreaks counts streaks reset to zero.
var StreakBreaks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "streak_breaks_total",
	Help:      "Total streak breaks.",
})

// FreezesUsed counts spent streak freezes.
var FreezesUsed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "freezes_used_total",
	Help:      "Total streak freezes spent.",
})

// FreezesEarned counts freezes credited from XP milestones.
var FreezesEarned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "freezes_earned_total",
	Help:      "Total streak freezes earned.",
})

// ─── Recovery / Achievements ────────────────────────────────────────────────

// Recoveries counts recovery events by type.
var Recoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "recoveries_total",
	Help:      "Total recovery events.",
}, []string{"type"})

// AchievementsUnlocked counts unlocks by tier.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"tier"})

// ─── Habits ─────────────────────────────────────────────────────────────────

// HabitCompletions counts completion toggles by direction (on, off).
var HabitCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "habit_completions_total",
	Help:      "Total habit completion toggles.",
}, []string{"direction"})

// HabitsActive tracks the number of habits.
var HabitsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "habits_active",
	Help:      "Number of tracked habits.",
})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistFailures counts best-effort writes that failed, by key.
var PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "persist_failures_total",
	Help:      "Total failed state writes.",
}, []string{"key"})

// StoreLatency tracks KV store operation latency.
var StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "bloom",
	Name:      "store_latency_seconds",
	Help:      "KV store operation latency in seconds.",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
}, []string{"op"})
