package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"parking-finder/config"
	"parking-finder/metrics"
	"parking-finder/models"
	"parking-finder/notifier"
	"parking-finder/scheduler"
	"parking-finder/scraper"
	"parking-finder/scraper/stangastaden"
	"parking-finder/services"
	"parking-finder/storage"
	"parking-finder/utils"
)

const exitInterrupted = 130

func main() {
	os.Exit(run(os.Args))
}

// run executes the command line and maps its outcome to an exit status.
func run(args []string) int {
	err := newApp().Run(args)
	if err == nil {
		return 0
	}

	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		if msg := exit.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return exit.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

// newApp creates the CLI application. Area codes are positional arguments;
// flags given on the command line win over the environment.
func newApp() *cli.App {
	return &cli.App{
		Name:            "parking-finder",
		Usage:           "Report new and removed parking spaces at Stångåstaden",
		ArgsUsage:       "[AREA,AREA,...]",
		Flags:           appFlags(),
		HideHelpCommand: true,
		ExitErrHandler:  func(*cli.Context, error) {},
		Action:          action,
	}
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "Cron expression repeating the run until interrupted",
			EnvVars: []string{"SCHEDULE"},
		},
		&cli.StringFlag{
			Name:    "state-file",
			Usage:   "Path of the JSON file holding the previous snapshot",
			EnvVars: []string{"STATE_FILE"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error, critical",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "Listen address of /metrics in watch mode (e.g., :9090)",
			EnvVars: []string{"METRICS_ADDR"},
		},
	}
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("schedule") {
		cfg.Schedule = c.String("schedule")
	}
	if c.IsSet("state-file") {
		cfg.StateFile = c.String("state-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
}

func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return cli.Exit("", code)
}

func action(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	applyFlags(c, cfg)

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if !cfg.DotEnvLoaded {
		logger.Debug("no .env file found, falling back to system env vars")
	}
	if cfg.Overlay != "" {
		logger.Debug("applied config overlay '%s'", cfg.Overlay)
	}

	var sched *scheduler.Scheduler
	if cfg.Schedule != "" {
		if sched, err = scheduler.New(cfg.Schedule, logger); err != nil {
			logger.Error("%v", err)
			return exitStatus(1)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := c.Args().Slice()
	if len(args) > 0 {
		logger.Info("given area codes: %v", args)
	} else {
		logger.Info("no area codes provided")
	}
	codes, invalid := cfg.Areas.Parse(args)
	logger.Debug("parsed area codes into segments: %v", codes)
	if len(invalid) > 0 {
		fmt.Printf("invalid area code '%s'\n", strings.Join(invalid, ", "))
		fmt.Println("valid area codes:")
		cfg.Areas.Fprint(os.Stdout, nil)
		return exitStatus(1)
	}

	fmt.Println("Will search for parking spaces in the following areas:")
	cfg.Areas.Fprint(os.Stdout, codes)

	store := openStore(ctx, cfg, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing stores: %v", err)
		}
	}()

	m := &monitor{
		cfg:    cfg,
		logger: logger,
		store:  store,
		source: stangastaden.New(stangastaden.Options{
			Areas:       codes,
			ChromeBin:   cfg.ChromeBin,
			PageTimeout: time.Duration(cfg.PageTimeout) * time.Second,
			RateLimitMs: cfg.RateLimitMs,
			MaxRetries:  cfg.MaxRetries,
		}, logger),
		dispatcher: newDispatcher(cfg, logger),
		composer:   services.NewComposer(glyphs(cfg)),
		report:     services.NewReportService(logger, os.Stdout),
		metrics:    metrics.NewRegistry(),
	}

	if sched == nil {
		return exitStatus(m.cycle(ctx))
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics endpoint: %v", err)
			}
		}()
	}
	sched.Run(ctx, func(ctx context.Context) {
		m.cycle(ctx)
	})
	return exitStatus(exitInterrupted)
}

// monitor performs one scrape, diff, notify and save cycle.
type monitor struct {
	cfg        *config.Config
	logger     *utils.Logger
	store      storage.SnapshotStore
	source     scraper.Source
	dispatcher *notifier.Dispatcher
	composer   *services.Composer
	report     *services.ReportService
	metrics    *metrics.Registry
}

// cycle returns the process exit status for a single run. A failed or
// interrupted scrape leaves the stored snapshot untouched.
func (m *monitor) cycle(ctx context.Context) int {
	previous := m.store.Load(ctx)

	current, err := m.source.Scrape(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Warn("interrupted, previous state kept")
			m.metrics.ObserveCycle(metrics.ResultInterrupted)
			return exitInterrupted
		}
		m.logger.Error("%v", err)
		m.metrics.ObserveCycle(metrics.ResultFailed)
		return 1
	}

	m.report.PrintTable(current)

	diff := services.Diff(previous, current)
	m.metrics.ObserveSnapshot(len(current), len(diff.Added), len(diff.Removed))
	m.notify(ctx, diff)

	m.report.Print(m.report.Generate(current, diff))

	if err := m.store.Save(ctx, current); err != nil {
		m.logger.Error("error saving parking state: %v", err)
	}
	m.metrics.ObserveCycle(metrics.ResultOK)
	return 0
}

// notify composes the diff, splits it to the channel budget and hands the
// chunks to every configured channel.
func (m *monitor) notify(ctx context.Context, diff models.Diff) {
	message, ok := m.composer.Compose(diff)
	if !ok {
		m.logger.Info("no changes in the availability of parkings, no message sent")
		return
	}
	m.logger.Debug("constructed message '%s'", message)

	if m.dispatcher.Len() == 0 {
		m.logger.Warn("no notification channel configured, message not sent")
		return
	}

	chunks := services.SplitUTF8Smart(message, m.cfg.MaxMessageBytes, m.cfg.CompletionToken)
	if m.logger.DebugEnabled() {
		for i, chunk := range chunks {
			m.logger.Debug("split message into part %d/%d (%d bytes)", i+1, len(chunks), len(chunk))
		}
	}
	for _, res := range m.dispatcher.Dispatch(ctx, chunks) {
		m.metrics.ObserveDelivery(res.Channel, res.Sent, res.Failed)
	}
}

// openStore returns the JSON state file mirrored to the optional CSV export
// and Postgres table. Mirrors that cannot be opened are skipped.
func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) storage.SnapshotStore {
	primary := storage.NewJSONStore(cfg.StateFile, logger)
	mirrored := &storage.Mirrored{Primary: primary}

	if cfg.CSVOutputPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Error("failed to create CSV writer: %v", err)
		} else {
			mirrored.Mirrors = append(mirrored.Mirrors, csvWriter)
		}
	}

	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL, continuing without it: %v", err)
		} else {
			mirrored.Mirrors = append(mirrored.Mirrors, pg)
		}
	}

	return mirrored
}

func newDispatcher(cfg *config.Config, logger *utils.Logger) *notifier.Dispatcher {
	var channels []notifier.Notifier
	if cfg.WhatsAppEnabled() {
		channels = append(channels, notifier.NewWhatsApp(
			cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.WhatsAppFrom, cfg.WhatsAppTo, logger))
	}
	if cfg.TelegramEnabled() {
		tg, err := notifier.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Error("%v", err)
		} else {
			channels = append(channels, tg)
		}
	}

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	return notifier.NewDispatcher(logger, retry, cfg.RateLimitMs, channels...)
}

// glyphs returns the default kind decorations with the configured ones
// layered on top.
func glyphs(cfg *config.Config) map[string]string {
	g := maps.Clone(services.DefaultGlyphs)
	maps.Copy(g, cfg.Glyphs)
	return g
}
