package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/ui"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, streak and today's progress",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	d.Engine.Reconcile(cmd.Context())
	st := d.Engine.Snapshot()
	today := d.Habits.Today()
	tier := engagement.TierForLevel(st.Level)

	var b strings.Builder
	fmt.Fprintln(&b, ui.Heading(ui.IconBloom, "Bloom"))
	fmt.Fprintln(&b, ui.LabelValue("Level", fmt.Sprintf("%d  %s · %s", st.Level, ui.TierText(tier), ui.Muted.Render(tier.Identity))))
	if st.Level >= domain.MaxLevel {
		fmt.Fprintln(&b, ui.LabelValue("XP", fmt.Sprintf("%d (max level)", st.TotalXP)))
	} else {
		pct := engagement.ProgressPct(st)
		fmt.Fprintln(&b, ui.LabelValue("XP", fmt.Sprintf("%d  %s %d/%d (%.0f%%)",
			st.TotalXP, ui.Bar(pct, 20), st.CurrentLevelXP, st.NextLevelXP, pct)))
	}

	streak := fmt.Sprintf("%s %d days (best %d)", ui.IconFlame, st.Streaks.Current, st.Streaks.Longest)
	if st.Streaks.IsPaused {
		streak += " " + ui.Warn.Render("paused")
	}
	fmt.Fprintln(&b, ui.LabelValue("Streak", streak))
	fmt.Fprintln(&b, ui.LabelValue("Freezes", fmt.Sprintf("%s %d/%d available, %d used",
		ui.IconFreeze, st.Streaks.FreezesAvailable, domain.MaxFreezes, st.Streaks.FreezesUsed)))

	dq := engagement.EvaluateDay(today.Completed, today.Total)
	fmt.Fprintln(&b, ui.LabelValue("Today", fmt.Sprintf("%d/%d habits · %s (%d%%)",
		today.Completed, today.Total, ui.QualityText(dq.Quality), dq.CompletionRate)))
	fmt.Fprintln(&b, ui.LabelValue("Achievements", fmt.Sprintf("%s %d/%d", ui.IconTrophy, st.UnlockedCount(), len(st.Achievements))))
	fmt.Fprintln(&b, ui.LabelValue("Active days", st.TotalDaysActive))

	fmt.Fprint(cmd.OutOrStdout(), ui.Panel.Render(strings.TrimRight(b.String(), "\n"))+"\n")
	return nil
}
