package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/client"
	"github.com/lazypower/habitpal/internal/config"
	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/logging"
	"github.com/lazypower/habitpal/internal/model"
)

// newClient builds a server client from the environment.
func newClient() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.BaseURL(), cfg.Client.Timeout), nil
}

// --- migrate command ---

var migrateFrom string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import legacy flat-file data into the database",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir := migrateFrom
	if dir == "" {
		dir = cfg.Database.LegacyDir
	}
	if dir == "" {
		return fmt.Errorf("no legacy directory: pass --from or set HABITPAL_LEGACY_DIR")
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return importLegacy(cmd.Context(), dir, db, log.With(zap.String("cmd", "migrate")))
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's habits and the companion",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		sum, err := c.Summary(cmd.Context())
		if err != nil {
			return fmt.Errorf("is the server running? %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), sum)
		return nil
	},
}

// --- log and undo commands ---

var (
	progressDate string
	logMood      string
)

var logCmd = &cobra.Command{
	Use:   "log <habit-id>",
	Short: "Record one increment of a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mood := model.Mood(logMood)
		if mood != "" && !mood.Valid() {
			return fmt.Errorf("unknown mood %q", logMood)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.Log(cmd.Context(), args[0], progressDate, mood)
		if err != nil {
			return err
		}
		printProgress(cmd, p)
		return nil
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo <habit-id>",
	Short: "Remove one increment of a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.Undo(cmd.Context(), args[0], progressDate)
		if err != nil {
			return err
		}
		if !p.Changed {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
			return nil
		}
		printProgress(cmd, p)
		return nil
	},
}

func printProgress(cmd *cobra.Command, p client.Progress) {
	out := cmd.OutOrStdout()
	mark := " "
	if p.Progress.Completed {
		mark = "x"
	}
	fmt.Fprintf(out, "[%s] %s: %d\n", mark, p.Progress.Date, p.Progress.CurrentCount)
	if p.Stats.CurrentStreak > 0 {
		fmt.Fprintf(out, "    %d-day streak, %s completed\n", p.Stats.CurrentStreak, humanize.Comma(int64(p.Stats.TotalCompletions)))
	}
	if c := p.Companion; c != nil {
		fmt.Fprintf(out, "    %s: level %d, %d XP, health %d/%d, %s\n", c.Name, c.Level, c.XP, c.Health, c.MaxHealth, c.Mood)
	}
}

// --- habit command ---

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
}

var (
	habitTarget int
	habitColor  string
	habitIcon   string
	habitTime   string
	habitWeekly string
)

var habitAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a habit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nh := engine.NewHabit{
			Title:       strings.Join(args, " "),
			Color:       habitColor,
			Icon:        habitIcon,
			TimeOfDay:   model.TimeOfDay(habitTime),
			TargetCount: habitTarget,
		}
		if habitWeekly != "" {
			days, err := parseWeekdays(habitWeekly)
			if err != nil {
				return err
			}
			nh.Frequency = model.Frequency{Kind: model.FrequencyWeekly, Days: days}
		}
		if err := nh.Validate(); err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		h, err := c.AddHabit(cmd.Context(), nh)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", h.ID, h.Title)
		return nil
	},
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits with their IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		st, err := c.State(cmd.Context())
		if err != nil {
			return err
		}
		if len(st.Habits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No habits yet. Add one with `habitpal habit add`.")
			return nil
		}
		for _, h := range st.Habits {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s, target %d)\n", h.ID, h.Title, h.Frequency.Kind, h.TargetCount)
		}
		return nil
	},
}

// parseWeekdays parses a comma-separated list of weekday indices (0 = Sunday).
func parseWeekdays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q: want 0-6", part)
		}
		days = append(days, d)
	}
	return days, nil
}

// --- hatch command ---

var (
	hatchColor string
	hatchReset bool
)

var hatchCmd = &cobra.Command{
	Use:   "hatch <name>",
	Short: "Hatch the companion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		pet, err := c.CreateCompanion(cmd.Context(), args[0], hatchColor, hatchReset)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s hatched: level %d, health %d/%d\n", pet.Name, pet.Level, pet.Health, pet.MaxHealth)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "Legacy data directory (default $HABITPAL_LEGACY_DIR)")

	logCmd.Flags().StringVar(&progressDate, "date", "", "Day to log, YYYY-MM-DD (default today)")
	logCmd.Flags().StringVar(&logMood, "mood", "", "Override the companion's mood")
	undoCmd.Flags().StringVar(&progressDate, "date", "", "Day to undo, YYYY-MM-DD (default today)")

	habitAddCmd.Flags().IntVarP(&habitTarget, "target", "n", 1, "Increments needed per day")
	habitAddCmd.Flags().StringVar(&habitColor, "color", "", "Display color")
	habitAddCmd.Flags().StringVar(&habitIcon, "icon", "", "Display icon")
	habitAddCmd.Flags().StringVar(&habitTime, "time", "", "Time of day: morning, afternoon, evening or anytime")
	habitAddCmd.Flags().StringVar(&habitWeekly, "weekly", "", "Weekly on these weekday indices, comma separated (0 = Sunday)")
	habitCmd.AddCommand(habitAddCmd)
	habitCmd.AddCommand(habitListCmd)

	hatchCmd.Flags().StringVar(&hatchColor, "color", "", "Companion color")
	hatchCmd.Flags().BoolVar(&hatchReset, "reset", false, "Replace an existing companion")
}
