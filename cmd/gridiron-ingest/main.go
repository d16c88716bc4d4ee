// Command gridiron-ingest processes or queues game clip files from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/config"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/ingest"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/logger"
	"github.com/fortuna/gridiron/internal/publisher"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/memstore"
	"github.com/fortuna/gridiron/internal/store/repository"
)

const (
	appName    = "gridiron-ingest"
	appVersion = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Process or queue game clip files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitLogger(logLevel, true)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(processCmd(), enqueueCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	})
	return cmd
}

func processCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process a game file now and print the summary",
		Long: `Process reads a game clip file, runs it through the stat pipeline and
prints the processing summary as JSON.

With --dry-run the game is processed against an empty in-memory store and
nothing is written to Postgres or Redis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return process(cmd.Context(), args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Process against an in-memory store")
	return cmd
}

func enqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <file>",
		Short: "Queue a game file for the service's worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue(cmd.Context(), args[0])
		},
	}
}

func process(ctx context.Context, path string, dryRun bool) error {
	log := logger.WithService(appName)

	payload, err := readPayload(path)
	if err != nil {
		return err
	}

	var svc *ingest.Service
	if dryRun {
		svc = ingest.NewService(engine.New(engine.Config{}, log), memstore.New(), cache.NewLocalLocker(), log)
	} else {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		db, err := store.NewDatabase(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return err
		}
		rc, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()

		eng := engine.New(engine.Config{Analyzer: cfg.AnalyzerOptions(), Workers: cfg.PlayerWorkers}, log)
		svc = ingest.NewService(eng, repository.New(db), cache.NewRedisLocker(rc.Client(), cfg.GameLockTTL), log,
			ingest.WithPublisher(publisher.NewRedisStreamPublisher(rc.Client(), cfg.StreamName, log)))
	}

	summary, err := svc.ProcessGame(ctx, payload, &consoleObserver{log: log})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func enqueue(ctx context.Context, path string) error {
	log := logger.WithService(appName)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := store.NewDatabase(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	// Enqueue only writes the job row; the service's worker runs it.
	job, err := jobs.NewService(jobs.NewRepository(db), nil, cfg.JobPollInterval, log).Enqueue(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Printf("queued job %s for game %s\n", job.JobID, job.GameKey)
	return nil
}

func readPayload(path string) (*clip.GamePayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return clip.Decode(f)
}

type consoleObserver struct {
	log *logrus.Entry
}

func (c *consoleObserver) OnProgress(message string, current, total int) {
	c.log.Debugf("[%d/%d] %s", current, total, message)
}

func (c *consoleObserver) OnPlayerFailed(key roster.Key, err error) {
	c.log.WithError(err).Warnf("player %s failed", key)
}
