package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/habitbloom/bloom/internal/app/habits"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/ui"
)

func init() {
	habitAddCmd.Flags().StringVarP(&habitCategory, "category", "c", string(domain.CategoryCustom), "fitness, study, wealth, mental, productivity or custom")
	habitAddCmd.Flags().StringVarP(&habitDifficulty, "difficulty", "d", string(domain.DifficultyEasy), "easy, medium or hard")
	habitAddCmd.Flags().StringVar(&habitIcon, "icon", "", "Icon name")
	habitAddCmd.Flags().StringVar(&habitColor, "color", "", "Display color")
	habitAddCmd.Flags().IntVarP(&habitTemplate, "template", "t", 0, "Create from template N (see 'bloom habit templates')")

	for _, c := range []*cobra.Command{habitDoneCmd, habitNoteCmd} {
		c.Flags().StringVar(&habitDate, "date", "", "Day as YYYY-MM-DD (default today)")
		c.Flags().StringVar(&habitNote, "note", "", "Note to attach")
		c.Flags().StringVar(&habitMood, "mood", "", "great, good, okay, bad or terrible")
	}

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitRmCmd, habitDoneCmd, habitNoteCmd, habitTemplatesCmd)
	rootCmd.AddCommand(habitCmd)
}

var (
	habitCategory   string
	habitDifficulty string
	habitIcon       string
	habitColor      string
	habitTemplate   int
	habitDate       string
	habitNote       string
	habitMood       string
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	Aliases: []string{"habits", "h"},
	Short:   "Manage habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Create a habit",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHabitAdd,
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits",
	RunE:    runHabitList,
}

var habitRmCmd = &cobra.Command{
	Use:   "rm HABIT",
	Short: "Delete a habit",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitRm,
}

var habitDoneCmd = &cobra.Command{
	Use:   "done HABIT",
	Short: "Toggle a habit's completion (today unless --date is given)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitDone,
}

var habitNoteCmd = &cobra.Command{
	Use:   "note HABIT",
	Short: "Attach a note or mood to a completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitNote,
}

var habitTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List habit templates",
	RunE:  runHabitTemplates,
}

// resolveHabit finds a habit by exact id, unique id prefix or name.
func resolveHabit(list []domain.Habit, ref string) (domain.Habit, error) {
	var matches []domain.Habit
	for _, h := range list {
		if h.ID == ref {
			return h, nil
		}
		if strings.HasPrefix(h.ID, ref) || strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Habit{}, fmt.Errorf("%w: %s", domain.ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Habit{}, fmt.Errorf("%q matches %d habits; use a longer id", ref, len(matches))
	}
}

func runHabitAdd(cmd *cobra.Command, args []string) error {
	in := habits.NewHabit{
		Category:   domain.HabitCategory(habitCategory),
		Difficulty: domain.HabitDifficulty(habitDifficulty),
		Icon:       habitIcon,
		Color:      habitColor,
	}
	if habitTemplate > 0 {
		templates := habits.Templates()
		if habitTemplate > len(templates) {
			return fmt.Errorf("template %d out of range (1-%d)", habitTemplate, len(templates))
		}
		tpl := templates[habitTemplate-1]
		in = habits.NewHabit{Name: tpl.Name, Icon: tpl.Icon, Category: tpl.Category, Difficulty: tpl.Difficulty, Color: tpl.Color}
	}
	if len(args) == 1 {
		in.Name = args[0]
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	h, err := d.Habits.Add(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s %s\n", ui.IconBloom, ui.H2.Render(h.Name), ui.Muted.Render("("+shortID(h.ID)+")"))
	return nil
}

func runHabitList(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	list := d.Habits.List()
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No habits yet. Run 'bloom habit add <name>' to get started.")
		return nil
	}

	today := d.Habits.Today()
	printHabits(out, list, today.Date)
	fmt.Fprintf(out, "\n%d/%d done today\n", today.Completed, today.Total)
	return nil
}

func printHabits(out io.Writer, list []domain.Habit, today string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDIFFICULTY\tSTREAK\tBEST\tTODAY")
	for _, h := range list {
		done := "·"
		if c, ok := h.CompletionOn(today); ok && c.Completed {
			done = ui.IconDone
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			shortID(h.ID), h.Name, h.Category, h.Difficulty, h.Streak, h.BestStreak, done)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runHabitRm(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	h, err := resolveHabit(d.Habits.List(), args[0])
	if err != nil {
		return err
	}
	if err := d.Habits.Delete(cmd.Context(), h.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", h.Name)
	return nil
}

func runHabitDone(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	h, err := resolveHabit(d.Habits.List(), args[0])
	if err != nil {
		return err
	}
	date := habitDate
	if date == "" {
		date = d.Habits.Today().Date
	}
	res, err := d.Habits.ToggleCompletion(cmd.Context(), h.ID, date, habitNote, domain.Mood(habitMood))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Completed {
		fmt.Fprintf(out, "Unchecked %s on %s (streak %d)\n", h.Name, date, res.Habit.Streak)
		return nil
	}
	fmt.Fprintf(out, "%s %s on %s · %s %d\n", ui.IconDone, ui.H2.Render(h.Name), date, ui.IconFlame, res.Habit.Streak)
	for _, b := range res.NewBadges {
		fmt.Fprintf(out, "  %s Badge earned: %s\n", ui.IconTrophy, ui.Gold.Render(b.Name))
	}
	if res.LevelUp {
		fmt.Fprintf(out, "  %s profile level %d\n", ui.BadgeLevelUp, habits.LegacyLevel(d.Habits.Stats().XP))
	}
	if g := res.Gamification; g != nil {
		printCompletion(out, *g)
	}
	return nil
}

func runHabitNote(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	h, err := resolveHabit(d.Habits.List(), args[0])
	if err != nil {
		return err
	}
	date := habitDate
	if date == "" {
		date = d.Habits.Today().Date
	}
	if _, ok := h.CompletionOn(date); !ok {
		return fmt.Errorf("%s has no completion on %s", h.Name, date)
	}
	if err := d.Habits.AddNote(cmd.Context(), h.ID, date, habitNote, domain.Mood(habitMood)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Noted %s on %s\n", h.Name, date)
	return nil
}

func runHabitTemplates(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tCATEGORY\tDIFFICULTY\tXP")
	for i, t := range habits.Templates() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", i+1, t.Name, t.Category, t.Difficulty, t.Difficulty.XP())
	}
	return w.Flush()
}
