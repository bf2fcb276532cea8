package cli

import (
	"fmt"
	"io"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/ui"
)

// printCompletion summarizes what a completion did to the engine state.
func printCompletion(out io.Writer, r engagement.CompletionResult) {
	fmt.Fprintf(out, "  %s +%d XP (habit %d, day bonus %d) · day %s\n",
		ui.IconBolt, r.XPAwarded, r.HabitXP, r.DayQuality.BonusXP, ui.QualityText(r.DayQuality.Quality))
	if r.Recovery != nil {
		fmt.Fprintf(out, "  %s %s after %d missed days\n", ui.IconBloom, r.Recovery.Type, r.Recovery.MissedDays)
	}
	if r.StreakBroken {
		fmt.Fprintf(out, "  %s streak reset after a missed day\n", ui.Warn.Render(ui.IconWarn))
	}
	if r.FreezesEarned > 0 {
		fmt.Fprintf(out, "  %s earned %d streak freeze(s)\n", ui.IconFreeze, r.FreezesEarned)
	}
	if r.LeveledUp() {
		tier := engagement.TierForLevel(r.LevelAfter)
		fmt.Fprintf(out, "  %s %d → %d · %s\n", ui.BadgeLevelUp, r.LevelBefore, r.LevelAfter, ui.TierText(tier))
	}
	for _, a := range r.Unlocked {
		fmt.Fprintf(out, "  %s %s: %s\n", ui.IconTrophy, ui.Gold.Render(a.Name), a.Description)
	}
}
