package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stellarlinkco/keepsake/internal/config"
	"github.com/stellarlinkco/keepsake/internal/daemon"
	"github.com/stellarlinkco/keepsake/internal/dateutil"
	"github.com/stellarlinkco/keepsake/internal/giftideas"
	"github.com/stellarlinkco/keepsake/internal/ics"
	"github.com/stellarlinkco/keepsake/internal/kv"
	"github.com/stellarlinkco/keepsake/internal/lifecycle"
	"github.com/stellarlinkco/keepsake/internal/logger"
	"github.com/stellarlinkco/keepsake/internal/model"
	"github.com/stellarlinkco/keepsake/internal/notify"
	"github.com/stellarlinkco/keepsake/internal/store"
)

// app bundles the pieces a one-shot CLI command needs. Commands operate
// on the same workspace the daemon uses; the daemon's nightly job picks
// up anything scheduled while it was not looking.
type app struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	store *store.Store
	coord *lifecycle.Coordinator
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.Init(cfg.Workspace, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := zl.Sugar()

	kvs, err := kv.OpenDisk(filepath.Join(cfg.Workspace, "store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	st := store.New(kvs, log)

	local := notify.NewLocal(filepath.Join(cfg.Workspace, "notifications.json"), notify.NewLogSender(log), log)
	sched := notify.NewScheduler(local, log, notify.WithHour(cfg.Notify.Hour))
	coord := lifecycle.New(st, sched, log)

	return &app{cfg: cfg, log: log, store: st, coord: coord}, nil
}

var rootCmd = &cobra.Command{
	Use:   "keepsake",
	Short: "keepsake - birthdays, anniversaries and special dates",
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an event",
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List events sorted by next occurrence",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one event in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an event (only the given flags change)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an event and cancel its notifications",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings (only the given flags change)",
	RunE:  runSettingsSet,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all events, settings and backups (or just events with --events-only)",
	RunE:  runClear,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export events as an iCalendar file",
	RunE:  runExport,
}

var giftCmd = &cobra.Command{
	Use:   "gift",
	Short: "Generate gift ideas for a person",
	RunE:  runGift,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the reminder daemon (notifications + control RPC)",
	RunE:  runDaemon,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show keepsake status",
	RunE:  runStatus,
}

var (
	addName      string
	addDay       int
	addMonth     int
	addYear      int
	addType      string
	addRelation  string
	addNotes     string
	addReminder  int
	listGrouped  bool
	editName     string
	editDay      int
	editMonth    int
	editYear     int
	editType     string
	editRelation string
	editNotes    string
	editReminder int
	setTheme     string
	setReminder  int
	setSound     bool
	clearYes     bool
	clearEvents  bool
	exportOut    string
	giftHobbies  string
	giftJob      string
	giftLikes    string
	giftTraits   string
	giftFavs     string
	giftAge      string
	giftBudget   string
)

func init() {
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "Person or event name (required)")
	addCmd.Flags().IntVarP(&addDay, "day", "d", 0, "Day of month (required)")
	addCmd.Flags().IntVarP(&addMonth, "month", "m", 0, "Month 1-12 (required)")
	addCmd.Flags().IntVarP(&addYear, "year", "y", 0, "Year of origin (optional)")
	addCmd.Flags().StringVarP(&addType, "type", "t", "birthday", "Event type: birthday, anniversary, other")
	addCmd.Flags().StringVarP(&addRelation, "relation", "r", "other", "Relation: family, friends, work, other")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
	addCmd.Flags().IntVar(&addReminder, "reminder", -1, "Days of early notice (default from settings)")

	listCmd.Flags().BoolVarP(&listGrouped, "grouped", "g", false, "Group by period (today, this week, this month, later, past)")

	editCmd.Flags().StringVarP(&editName, "name", "n", "", "New name")
	editCmd.Flags().IntVarP(&editDay, "day", "d", 0, "New day")
	editCmd.Flags().IntVarP(&editMonth, "month", "m", 0, "New month")
	editCmd.Flags().IntVarP(&editYear, "year", "y", 0, "New year (0 clears the year)")
	editCmd.Flags().StringVarP(&editType, "type", "t", "", "New type")
	editCmd.Flags().StringVarP(&editRelation, "relation", "r", "", "New relation")
	editCmd.Flags().StringVar(&editNotes, "notes", "", "New notes")
	editCmd.Flags().IntVar(&editReminder, "reminder", 0, "New days of early notice")

	settingsSetCmd.Flags().StringVar(&setTheme, "theme", "", "UI theme: dark or light")
	settingsSetCmd.Flags().IntVar(&setReminder, "reminder-days", 0, "Default days of early notice")
	settingsSetCmd.Flags().BoolVar(&setSound, "sound", true, "Play a sound with notifications")
	settingsCmd.AddCommand(settingsSetCmd)

	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Skip the confirmation prompt")
	clearCmd.Flags().BoolVar(&clearEvents, "events-only", false, "Delete only the events, keep settings")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default stdout)")

	giftCmd.Flags().StringVar(&giftHobbies, "hobbies", "", "Their hobbies")
	giftCmd.Flags().StringVar(&giftJob, "occupation", "", "Their occupation")
	giftCmd.Flags().StringVar(&giftLikes, "interests", "", "Their interests")
	giftCmd.Flags().StringVar(&giftTraits, "personality", "", "Their personality")
	giftCmd.Flags().StringVar(&giftFavs, "favorites", "", "Their favorite things")
	giftCmd.Flags().StringVar(&giftAge, "age", "", "Their age")
	giftCmd.Flags().StringVar(&giftBudget, "budget", "", "Your budget")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, removeCmd, settingsCmd, clearCmd, exportCmd, giftCmd, daemonCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ev, errs, err := a.coord.Create(context.Background(), lifecycle.CreateInput{
		Name:         addName,
		Day:          addDay,
		Month:        addMonth,
		Year:         addYear,
		Type:         addType,
		Relation:     addRelation,
		Notes:        addNotes,
		ReminderDays: addReminder,
	})
	if err != nil {
		return err
	}
	if !errs.OK() {
		printValidation(errs)
		return fmt.Errorf("invalid event")
	}

	fmt.Printf("Added %s (%s)\n", ev.Name, ev.ID)
	fmt.Printf("  %s — %s\n", dateutil.FormatEventDate(ev.Day, ev.Month, ev.Year),
		dateutil.FormatDaysRemaining(dateutil.DaysUntil(ev.Day, ev.Month, ev.Year)))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	events := a.coord.Events()
	if len(events) == 0 {
		fmt.Println("No events yet. Add one with 'keepsake add'.")
		return nil
	}

	if listGrouped {
		groups := dateutil.GroupByPeriod(events)
		printGroup("Today", groups.Today)
		printGroup("This week", groups.ThisWeek)
		printGroup("This month", groups.ThisMonth)
		printGroup("Later", groups.Later)
		printGroup("Past", groups.Past)
		return nil
	}

	for _, ev := range dateutil.SortByNextOccurrence(events) {
		printEvent(ev)
	}
	return nil
}

func printGroup(title string, events []model.Event) {
	if len(events) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, ev := range events {
		printEvent(ev)
	}
	fmt.Println()
}

func printEvent(ev model.Event) {
	days := dateutil.DaysUntil(ev.Day, ev.Month, ev.Year)
	line := fmt.Sprintf("  %-20s %s  %s", ev.Name,
		dateutil.FormatEventDate(ev.Day, ev.Month, ev.Year),
		dateutil.FormatDaysRemaining(days))
	if ev.Type == model.TypeBirthday {
		if age, ok := dateutil.UpcomingAge(ev.Day, ev.Month, ev.Year); ok {
			line += fmt.Sprintf("  (turns %d)", age)
		}
	}
	fmt.Printf("%s  [%s]\n", line, ev.ID)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	for _, ev := range a.coord.Events() {
		if ev.ID != args[0] {
			continue
		}
		days := dateutil.DaysUntil(ev.Day, ev.Month, ev.Year)
		fmt.Printf("%s\n", ev.Name)
		fmt.Printf("  Type:      %s (%s)\n", ev.Type, ev.Relation)
		fmt.Printf("  Date:      %s\n", dateutil.FormatEventDate(ev.Day, ev.Month, ev.Year))
		fmt.Printf("  When:      %s\n", dateutil.FormatDaysRemaining(days))
		if age, ok := dateutil.Age(ev.Day, ev.Month, ev.Year); ok && ev.Type == model.TypeBirthday {
			upcoming, _ := dateutil.UpcomingAge(ev.Day, ev.Month, ev.Year)
			fmt.Printf("  Age:       %d (turning %d)\n", age, upcoming)
		}
		fmt.Printf("  Reminder:  %d days before\n", ev.ReminderDays)
		if ev.Notes != "" {
			fmt.Printf("  Notes:     %s\n", ev.Notes)
		}
		fmt.Printf("  Pending notifications: %d\n", len(ev.NotificationIDs))
		return nil
	}
	fmt.Printf("No event with id %s\n", args[0])
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	// Only flags the user actually passed become part of the patch, so
	// everything else keeps its stored value.
	var patch model.Patch
	if cmd.Flags().Changed("name") {
		patch.Name = &editName
	}
	if cmd.Flags().Changed("day") {
		patch.Day = &editDay
	}
	if cmd.Flags().Changed("month") {
		patch.Month = &editMonth
	}
	if cmd.Flags().Changed("year") {
		patch.Year = &editYear
	}
	if cmd.Flags().Changed("type") {
		patch.Type = &editType
	}
	if cmd.Flags().Changed("relation") {
		patch.Relation = &editRelation
	}
	if cmd.Flags().Changed("notes") {
		patch.Notes = &editNotes
	}
	if cmd.Flags().Changed("reminder") {
		patch.ReminderDays = &editReminder
	}

	events, errs, err := a.coord.Update(context.Background(), args[0], patch)
	if err != nil {
		return err
	}
	if !errs.OK() {
		printValidation(errs)
		return fmt.Errorf("invalid event")
	}

	for _, ev := range events {
		if ev.ID == args[0] {
			fmt.Printf("Updated %s\n", ev.Name)
			printEvent(ev)
			return nil
		}
	}
	fmt.Printf("No event with id %s\n", args[0])
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	before := len(a.coord.Events())
	events := a.coord.Delete(context.Background(), args[0])
	if len(events) == before {
		fmt.Printf("No event with id %s\n", args[0])
		return nil
	}
	fmt.Println("Removed.")
	return nil
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	s := a.store.LoadSettings()
	fmt.Printf("Theme:          %s\n", s.Theme)
	fmt.Printf("Reminder days:  %d\n", s.DefaultReminderDays)
	fmt.Printf("Sound:          %v\n", s.NotificationSound)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var patch model.SettingsPatch
	if cmd.Flags().Changed("theme") {
		patch.Theme = &setTheme
	}
	if cmd.Flags().Changed("reminder-days") {
		patch.DefaultReminderDays = &setReminder
	}
	if cmd.Flags().Changed("sound") {
		patch.NotificationSound = &setSound
	}

	s, ok := a.store.UpdateSettings(patch)
	if !ok {
		return fmt.Errorf("settings could not be saved")
	}
	fmt.Printf("Theme: %s, reminder days: %d, sound: %v\n", s.Theme, s.DefaultReminderDays, s.NotificationSound)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	warning := "This deletes every event, your settings and all backups."
	if clearEvents {
		warning = "This deletes every event and its backup; settings are kept."
	}
	if !clearYes {
		fmt.Printf("%s Type 'yes' to continue: ", warning)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if clearEvents {
		if !a.coord.ClearEvents(context.Background()) {
			return fmt.Errorf("clear failed")
		}
		fmt.Println("Events cleared.")
		return nil
	}
	if !a.coord.ClearAll(context.Background()) {
		return fmt.Errorf("clear failed")
	}
	fmt.Println("All data cleared.")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	events := a.coord.Events()
	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	if err := ics.Export(out, events); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if exportOut != "" {
		fmt.Printf("Exported %d events to %s\n", len(events), exportOut)
	}
	return nil
}

func runGift(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if a.cfg.Provider.APIKey == "" {
		return fmt.Errorf("API key not set. Set KEEPSAKE_PROVIDER_APIKEY or ANTHROPIC_API_KEY")
	}

	gen := giftideas.NewAnthropicGenerator(a.cfg.Provider.APIKey, a.cfg.Provider.Model)
	svc := giftideas.NewService(gen, a.log)

	fmt.Println("Thinking...")
	suggestions, fail := svc.Generate(context.Background(), giftideas.Person{
		Hobbies:     giftHobbies,
		Occupation:  giftJob,
		Interests:   giftLikes,
		Personality: giftTraits,
		Favorites:   giftFavs,
		Age:         giftAge,
		Budget:      giftBudget,
	})
	if fail != nil {
		return fmt.Errorf("%s", fail.Message)
	}

	for i, s := range suggestions {
		fmt.Printf("%d. %s\n", i+1, s.Name)
		if s.Description != "" {
			fmt.Printf("   %s\n", s.Description)
		}
	}
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.Init(cfg.Workspace, cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := zl.Sugar()
	defer zl.Sync()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	return d.Run(context.Background())
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Workspace: %s\n", cfg.Workspace)
	fmt.Printf("RPC: ws://%s\n", cfg.RPCAddr())
	fmt.Printf("Notify hour: %02d:00\n", cfg.Notify.Hour)
	if cfg.Notify.TelegramToken != "" {
		fmt.Println("Delivery: telegram")
	} else {
		fmt.Println("Delivery: log")
	}
	if cfg.Provider.APIKey != "" && len(cfg.Provider.APIKey) > 8 {
		masked := cfg.Provider.APIKey[:4] + "..." + cfg.Provider.APIKey[len(cfg.Provider.APIKey)-4:]
		fmt.Printf("API Key: %s\n", masked)
	} else if cfg.Provider.APIKey != "" {
		fmt.Println("API Key: set")
	} else {
		fmt.Println("API Key: not set")
	}

	a, err := newApp()
	if err != nil {
		return nil
	}
	events, settings := a.store.AllData()
	fmt.Printf("Events: %d\n", len(events))
	fmt.Printf("Settings: theme=%s reminder-days=%d sound=%v\n",
		settings.Theme, settings.DefaultReminderDays, settings.NotificationSound)
	if sorted := dateutil.SortByNextOccurrence(events); len(sorted) > 0 {
		next := sorted[0]
		fmt.Printf("Next: %s, %s\n", next.Name,
			dateutil.FormatDaysRemaining(dateutil.DaysUntil(next.Day, next.Month, next.Year)))
	}
	return nil
}

func printValidation(errs map[string]string) {
	for field, msg := range errs {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}
