// Package cmd implements the CLI command structure for the checklist bot.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/nibzard/checklist-go/internal/commands"
	"github.com/nibzard/checklist-go/internal/config"
	"github.com/nibzard/checklist-go/internal/discord"
	"github.com/nibzard/checklist-go/internal/hooks"
	"github.com/nibzard/checklist-go/internal/httpapi"
	"github.com/nibzard/checklist-go/internal/logging"
	"github.com/nibzard/checklist-go/internal/metrics"
	"github.com/nibzard/checklist-go/internal/reminder"
	"github.com/nibzard/checklist-go/internal/todo"
	"github.com/nibzard/checklist-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// Run executes the checklist CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checklist", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// If no args or first arg is a flag, use "run" as default
	subcommand := "run"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "run":
		return runCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "ls":
		return lsCommand(cfg, remainingArgs)
	case "repair":
		return repairCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newLogger builds the process logger. When a log directory is configured,
// output is also written to a per-run file there.
func newLogger(cfg *config.Config) (*log.Logger, func() error, error) {
	opts := logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Timestamps: cfg.LogTimestamps,
		Caller:     cfg.LogCaller,
		Prefix:     "checklist",
	}
	if cfg.LogDir == "" {
		return logging.New(os.Stderr, opts), func() error { return nil }, nil
	}

	runLog, err := logging.NewRunLogger(cfg.LogDir)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(io.MultiWriter(os.Stderr, runLog.Writer()), opts)
	logger.Info("writing run log", "path", runLog.LogPath)
	return logger, runLog.Close, nil
}

// runCommand starts the bot, the reminder scanner and, when configured,
// the HTTP API. It returns when ctx is cancelled or a component fails.
func runCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("checklist run", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Run without connecting to Discord; reminders are logged")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !*dryRun {
		if err := cfg.RequireToken(); err != nil {
			return err
		}
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer closeLog()

	store, err := todo.Load(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("loading checklist file: %w", err)
	}
	for _, user := range store.Users() {
		if n := store.Quarantined(user); n > 0 {
			logger.Warn("invalid entries hidden until repaired", "user", user, "count", n)
		}
	}
	logger.Info("checklist loaded", "path", store.Path(), "users", len(store.Users()))

	var rec metrics.Recorder = metrics.Nop{}
	var reg *prometheus.Registry
	if cfg.HTTPAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec = metrics.NewPromMetrics(reg)
	}

	service := commands.New(store,
		commands.WithLogger(logger.With("component", "commands")),
		commands.WithMetrics(rec),
	)

	var notifiers reminder.Multi
	var bot *discord.Bot
	if *dryRun {
		notifiers = append(notifiers, reminder.LogNotifier{Logger: logger.With("component", "dry-run")})
	} else {
		bot, err = discord.New(service, discord.Options{
			Token:   cfg.Token,
			GuildID: cfg.GuildID,
			Logger:  logger.With("component", "discord"),
		})
		if err != nil {
			return err
		}
		notifiers = append(notifiers, bot.Notifier())
	}
	if cfg.NotifyHook != "" {
		notifiers = append(notifiers, hooks.NewNotifier(cfg.NotifyHook))
	}

	scanner := reminder.New(store, notifiers,
		reminder.WithInterval(cfg.ScanInterval()),
		reminder.WithLookahead(cfg.Lookahead()),
		reminder.WithWorkers(cfg.NotifyWorkers),
		reminder.WithTimeout(cfg.NotifyTimeout()),
		reminder.WithLogger(logger.With("component", "reminder")),
		reminder.WithMetrics(rec),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scanner.Run(ctx) })
	if bot != nil {
		g.Go(func() error { return bot.Run(ctx) })
	}
	if cfg.HTTPAddr != "" {
		api := httpapi.New(store, httpapi.Options{
			Addr:     cfg.HTTPAddr,
			Logger:   logger.With("component", "http"),
			Metrics:  rec,
			Gatherer: reg,
		})
		g.Go(func() error { return api.Run(ctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return err
	}
	return err
}

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("checklist tui", flag.ContinueOnError)
	user := fs.String("user", "", "User id to show (default: first user)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return ui.RunTUI(ctx, cfg.DataFile, *user)
}

// lsCommand prints checklists in display order.
func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("checklist ls", flag.ContinueOnError)
	user := fs.String("user", "", "Only list this user's checklist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	store, err := todo.Load(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("loading checklist file: %w", err)
	}

	users := store.Users()
	if *user != "" {
		users = []string{*user}
	}
	if len(users) == 0 {
		fmt.Fprintln(stdout, "No checklists found.")
		return nil
	}

	for _, id := range users {
		entries := todo.Sorted(store.Tasks(id))
		fmt.Fprintf(stdout, "%s (%d):\n", id, len(entries))
		if len(entries) == 0 {
			fmt.Fprintln(stdout, "  No tasks.")
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "  %s\n", commands.FormatEntry(e))
		}
		if n := store.Quarantined(id); n > 0 {
			fmt.Fprintf(stdout, "  ⚠️  %d invalid entries (run 'checklist repair -user %s')\n", n, id)
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

// repairCommand drops invalid entries for one user or all users.
func repairCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("checklist repair", flag.ContinueOnError)
	user := fs.String("user", "", "Repair this user's checklist")
	all := fs.Bool("all", false, "Repair every checklist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*user == "") == !*all {
		return fmt.Errorf("specify exactly one of -user or -all")
	}

	store, err := todo.Load(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("loading checklist file: %w", err)
	}

	users := []string{*user}
	if *all {
		users = store.Users()
	}
	total := 0
	for _, id := range users {
		removed, err := store.Repair(id)
		if err != nil {
			return fmt.Errorf("repairing %s: %w", id, err)
		}
		if removed > 0 {
			fmt.Fprintf(stdout, "🧹 %s: removed %d invalid entries\n", id, removed)
		}
		total += removed
	}
	fmt.Fprintf(stdout, "Removed %d invalid entries in total.\n", total)
	return nil
}

// doctorCommand checks config, token, hook and checklist file validity.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("checklist doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := stdout
	fmt.Fprintln(w, "Checklist Doctor")
	fmt.Fprintln(w, "================")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config:")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  ✅ Scan every %s, look ahead %s, %d workers\n", cfg.ScanInterval(), cfg.Lookahead(), cfg.NotifyWorkers)
	}
	if err := cfg.RequireToken(); err != nil {
		fmt.Fprintln(w, "  ❌ DISCORD_TOKEN is not set")
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ Discord token set")
	}
	if cfg.NotifyHook != "" {
		if path, err := exec.LookPath(cfg.NotifyHook); err != nil {
			fmt.Fprintf(w, "  ❌ Notify hook: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(w, "  ✅ Notify hook: %s\n", path)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Checklist file: %s\n", cfg.DataFile)
	info, err := os.Stat(cfg.DataFile)
	switch {
	case err != nil && os.IsNotExist(err):
		fmt.Fprintln(w, "  ⚠️  Not found (will be created on first change)")
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	case info.IsDir():
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		allOK = false
	default:
		result, err := todo.ValidateFile(cfg.DataFile)
		if err != nil {
			fmt.Fprintf(w, "  ❌ %v\n", err)
			allOK = false
			break
		}
		fmt.Fprintf(w, "  Users: %d  Tasks: %d  Invalid: %d\n", result.Users, result.Tasks, result.Quarantined)
		if result.Valid {
			fmt.Fprintln(w, "  ✅ Valid")
		} else {
			fmt.Fprintln(w, "  ❌ Validation failed:")
			for _, e := range result.Errors {
				fmt.Fprintf(w, "     - %v\n", e)
			}
			fmt.Fprintln(w, "  Run 'checklist repair -all' to drop invalid entries.")
			allOK = false
		}
		if *verbose {
			fmt.Fprintf(w, "  Size: %d bytes, modified %s\n", info.Size(), info.ModTime().Format(todo.DueLayout))
		}
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("checklist config", flag.ContinueOnError)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	cfg := cws.Config
	values := map[string]any{
		"data_file":              cfg.DataFile,
		"guild_id":               cfg.GuildID,
		"scan_interval_seconds":  cfg.ScanIntervalSeconds,
		"lookahead_minutes":      cfg.LookaheadMinutes,
		"notify_workers":         cfg.NotifyWorkers,
		"notify_timeout_seconds": cfg.NotifyTimeoutSeconds,
		"notify_hook":            cfg.NotifyHook,
		"http_addr":              cfg.HTTPAddr,
		"log_level":              cfg.LogLevel,
		"log_format":             cfg.LogFormat,
		"log_timestamps":         cfg.LogTimestamps,
		"log_caller":             cfg.LogCaller,
		"log_dir":                cfg.LogDir,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, f := range cws.Files {
		fmt.Fprintf(stdout, "# read %s\n", f)
	}
	for _, k := range keys {
		fmt.Fprintf(stdout, "%-24s = %-40v # %s\n", k, fmt.Sprintf("%q", fmt.Sprint(values[k])), cws.Sources[k])
	}
	token := "(unset)"
	if cfg.Token != "" {
		token = "(set)"
	}
	fmt.Fprintf(stdout, "%-24s   %s\n", "# discord token", token)
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "checklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Checklist - a personal to-do list bot for Discord")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  checklist [options] [command] [command options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run           Run the bot and reminder scanner (default command)")
	fmt.Fprintln(w, "  tui           Browse and edit a checklist in the terminal")
	fmt.Fprintln(w, "  ls            Print checklists")
	fmt.Fprintln(w, "  repair        Remove invalid entries from the checklist file")
	fmt.Fprintln(w, "  doctor        Check config, token and checklist file validity")
	fmt.Fprintln(w, "  config        Show effective configuration")
	fmt.Fprintln(w, "  version       Show version information")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run Options:")
	fmt.Fprintln(w, "  -dry-run")
	fmt.Fprintln(w, "        Run without connecting to Discord; reminders are logged")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui / Ls Options:")
	fmt.Fprintln(w, "  -user string")
	fmt.Fprintln(w, "        User id to show")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Repair Options:")
	fmt.Fprintln(w, "  -user string")
	fmt.Fprintln(w, "        Repair this user's checklist")
	fmt.Fprintln(w, "  -all")
	fmt.Fprintln(w, "        Repair every checklist")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config Options:")
	fmt.Fprintln(w, "  -example")
	fmt.Fprintln(w, "        Print an example config file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DISCORD_TOKEN              Bot token (required for run)")
	fmt.Fprintln(w, "  CHECKLIST_<KEY>            Override any config key, e.g. CHECKLIST_DATA_FILE")
}
