package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/habitbloom/bloom/internal/daemon"
	"github.com/habitbloom/bloom/internal/domain"
)

// useTempHome points every command at a fresh sqlite store.
func useTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("BLOOM_HOME", t.TempDir())
	prev := openDaemon
	openDaemon = func() (*daemon.Daemon, error) {
		cfg := daemon.DefaultConfig()
		cfg.Engine.Timezone = "UTC"
		return daemon.NewWithConfig(context.Background(), cfg)
	}
	t.Cleanup(func() { openDaemon = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	habitCategory, habitDifficulty = string(domain.CategoryCustom), string(domain.DifficultyEasy)
	habitIcon, habitColor, habitTemplate = "", "", 0
	habitDate, habitNote, habitMood = "", "", ""
	achievementsAll, resetYes = false, false
	historyKey, historyLimit = "gamification", 10

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("bloom %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestHabitLifecycle(t *testing.T) {
	useTempHome(t)

	if out := mustRun(t, "habit", "list"); !strings.Contains(out, "No habits yet") {
		t.Errorf("empty list output: %q", out)
	}

	mustRun(t, "habit", "add", "Read", "-d", "medium", "-c", "study")
	out := mustRun(t, "habit", "list")
	if !strings.Contains(out, "Read") || !strings.Contains(out, "0/1 done today") {
		t.Errorf("list output: %q", out)
	}

	out = mustRun(t, "habit", "done", "read")
	if !strings.Contains(out, "+") || !strings.Contains(out, "XP") {
		t.Errorf("done output: %q", out)
	}
	if out := mustRun(t, "habit", "list"); !strings.Contains(out, "1/1 done today") {
		t.Errorf("list after done: %q", out)
	}

	mustRun(t, "habit", "note", "Read", "--note", "chapter 3", "--mood", "good")

	out = mustRun(t, "habit", "done", "Read")
	if !strings.Contains(out, "Unchecked") {
		t.Errorf("second toggle should uncheck: %q", out)
	}

	mustRun(t, "habit", "rm", "Read")
	if _, err := run(t, "habit", "rm", "Read"); !errors.Is(err, domain.ErrHabitNotFound) {
		t.Errorf("expected ErrHabitNotFound, got %v", err)
	}
}

func TestHabitAdd_Template(t *testing.T) {
	useTempHome(t)

	mustRun(t, "habit", "add", "--template", "3")
	if out := mustRun(t, "habit", "list"); !strings.Contains(out, "Meditate") {
		t.Errorf("template habit missing: %q", out)
	}
	if _, err := run(t, "habit", "add", "--template", "99"); err == nil {
		t.Error("out-of-range template should fail")
	}
	if out := mustRun(t, "habit", "templates"); !strings.Contains(out, "Learn New Skill") {
		t.Errorf("templates output: %q", out)
	}
}

func TestHabitNote_RequiresCompletion(t *testing.T) {
	useTempHome(t)
	mustRun(t, "habit", "add", "Walk")
	if _, err := run(t, "habit", "note", "Walk", "--note", "x"); err == nil {
		t.Error("note without a completion should fail")
	}
}

func TestXPFreezeAndStatus(t *testing.T) {
	useTempHome(t)

	if _, err := run(t, "xp", "add", "ten"); !errors.Is(err, domain.ErrInvalidXP) {
		t.Errorf("expected ErrInvalidXP, got %v", err)
	}
	if _, err := run(t, "freeze", "h1"); err == nil || !strings.Contains(err.Error(), "no streak freezes") {
		t.Errorf("expected freeze exhaustion, got %v", err)
	}

	out := mustRun(t, "xp", "add", "500")
	if !strings.Contains(out, "earned 1 streak freeze") || !strings.Contains(out, "LEVEL UP") {
		t.Errorf("xp output: %q", out)
	}

	if out := mustRun(t, "freeze", "h1"); !strings.Contains(out, "protected for 2 days") {
		t.Errorf("freeze output: %q", out)
	}

	out = mustRun(t, "status")
	for _, want := range []string{"Level", "500", "Streak", "paused", "0/3 available, 1 used"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestAchievements(t *testing.T) {
	useTempHome(t)

	out := mustRun(t, "achievements")
	if !strings.Contains(out, "Achievements 0/24") {
		t.Errorf("achievements header: %q", out)
	}
	if all := mustRun(t, "achievements", "--all"); strings.Count(all, "\n") < 25 {
		t.Errorf("--all should list every achievement:\n%s", all)
	}
}

func TestResetAndHistory(t *testing.T) {
	useTempHome(t)

	mustRun(t, "xp", "add", "120")
	if _, err := run(t, "reset"); err == nil {
		t.Error("reset without --yes should fail")
	}
	mustRun(t, "reset", "--yes")
	if out := mustRun(t, "status"); !strings.Contains(out, "0/100") {
		t.Errorf("status after reset: %q", out)
	}

	out := mustRun(t, "history")
	if !strings.Contains(out, "level 2 · 120 XP") || !strings.Contains(out, "level 1 · 0 XP") {
		t.Errorf("history output:\n%s", out)
	}
	if _, err := run(t, "history", "--key", "quests"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestResolveHabit(t *testing.T) {
	list := []domain.Habit{
		{ID: "abc123", Name: "Run"},
		{ID: "abd456", Name: "Read"},
	}
	if h, err := resolveHabit(list, "abc"); err != nil || h.Name != "Run" {
		t.Errorf("prefix: %v %v", h, err)
	}
	if h, err := resolveHabit(list, "read"); err != nil || h.ID != "abd456" {
		t.Errorf("name: %v %v", h, err)
	}
	if _, err := resolveHabit(list, "ab"); err == nil {
		t.Error("ambiguous prefix should fail")
	}
	if _, err := resolveHabit(list, "zzz"); !errors.Is(err, domain.ErrHabitNotFound) {
		t.Errorf("missing: %v", err)
	}
}
