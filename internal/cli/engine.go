package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/ui"
)

func init() {
	achievementsCmd.Flags().BoolVar(&achievementsAll, "all", false, "Include locked achievements")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
	historyCmd.Flags().StringVar(&historyKey, "key", "gamification", "gamification or habits")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of snapshots to show")

	xpCmd.AddCommand(xpAddCmd)
	rootCmd.AddCommand(xpCmd, freezeCmd, achievementsCmd, resetCmd, historyCmd)
}

var (
	achievementsAll bool
	resetYes        bool
	historyKey      string
	historyLimit    int
)

var xpCmd = &cobra.Command{
	Use:   "xp",
	Short: "Inspect or grant XP",
}

var xpAddCmd = &cobra.Command{
	Use:   "add AMOUNT",
	Short: "Grant XP outside the completion flow",
	Args:  cobra.ExactArgs(1),
	RunE:  runXPAdd,
}

var freezeCmd = &cobra.Command{
	Use:   "freeze HABIT_ID",
	Short: "Spend a streak freeze to protect the current streak",
	Args:  cobra.ExactArgs(1),
	RunE:  runFreeze,
}

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"ach"},
	Short:   "List achievements",
	RunE:    runAchievements,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all gamification progress",
	RunE:  runReset,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent saved snapshots (sqlite store only)",
	RunE:  runHistory,
}

func runXPAdd(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidXP, args[0])
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	before := d.Engine.Snapshot().Level
	earned, err := d.Engine.AddXP(cmd.Context(), amount)
	if err != nil {
		return err
	}
	st := d.Engine.Snapshot()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s +%d XP · total %d · level %d\n", ui.IconBolt, amount, st.TotalXP, st.Level)
	if st.Level > before {
		fmt.Fprintf(out, "  %s %d → %d · %s\n", ui.BadgeLevelUp, before, st.Level, ui.TierText(engagement.TierForLevel(st.Level)))
	}
	if earned > 0 {
		fmt.Fprintf(out, "  %s earned %d streak freeze(s)\n", ui.IconFreeze, earned)
	}
	return nil
}

func runFreeze(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	habitID := args[0]
	if h, err := resolveHabit(d.Habits.List(), habitID); err == nil {
		habitID = h.ID
	}
	ev, err := d.Engine.UseStreakFreeze(cmd.Context(), habitID)
	if errors.Is(err, domain.ErrNoFreezesAvailable) {
		return fmt.Errorf("no streak freezes left; one is earned every %d XP", domain.XPPerFreeze)
	}
	if err != nil {
		return err
	}
	st := d.Engine.Snapshot().Streaks
	fmt.Fprintf(cmd.OutOrStdout(), "%s Streak protected for %d days (%d freezes left)\n",
		ui.IconFreeze, ev.DaysProtected, st.FreezesAvailable)
	return nil
}

func runAchievements(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	d.Engine.CheckAchievements(cmd.Context())
	st := d.Engine.Snapshot()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Heading(ui.IconTrophy, fmt.Sprintf("Achievements %d/%d", st.UnlockedCount(), len(st.Achievements))))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tTIER\tCATEGORY\tPROGRESS")
	for _, a := range st.Achievements {
		if !a.Unlocked() && !achievementsAll {
			continue
		}
		mark := ui.IconLock
		if a.Unlocked() {
			mark = ui.IconDone
		}
		progress := fmt.Sprintf("%d/%d", a.Progress, a.Total)
		if !engagement.Reachable(a.Criteria) {
			progress = ui.Muted.Render("n/a")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, a.Name, a.Tier, a.Category, progress)
	}
	return w.Flush()
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return errors.New("this discards all XP, streaks and achievements; pass --yes to confirm")
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	d.Engine.Reset(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "Gamification progress reset.")
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	key := domain.KeyGamification
	switch historyKey {
	case "gamification":
	case "habits":
		key = domain.KeyHabits
	default:
		return fmt.Errorf("unknown key %q: want gamification or habits", historyKey)
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	snaps, err := d.History(cmd.Context(), key, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WRITTEN\tSIZE\tSUMMARY")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%d B\t%s\n", s.WrittenAt.Local().Format("2006-01-02 15:04:05"), len(s.Value), summarize(key, s.Value))
	}
	return w.Flush()
}

// summarize describes a stored document in one line.
func summarize(key, raw string) string {
	if key == domain.KeyHabits {
		var data domain.HabitData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return ui.Bad.Render("unreadable")
		}
		return fmt.Sprintf("%d habits · %d XP · %d completions", len(data.Habits), data.Stats.XP, data.Stats.TotalHabitsCompleted)
	}
	var st domain.GamificationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return ui.Bad.Render("unreadable")
	}
	return fmt.Sprintf("level %d · %d XP · streak %d · %d achievements",
		engagement.LevelForXP(st.TotalXP), st.TotalXP, st.Streaks.Current, st.UnlockedCount())
}
