// cmd/scraper/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github-scraper/internal/config"
	custom_errors "github-scraper/internal/errors"
	"github-scraper/internal/github"
	"github-scraper/internal/scraper"
	"github-scraper/internal/store"
)

var (
	sinceID     int64
	numUsers    int
	reposPerUsr int
	autoRetry   bool
)

var rootCmd = &cobra.Command{
	Use:   "scraper [usernames...]",
	Short: "Scrapes GitHub user and repository data",
	Long: `Scrapes public GitHub user and repository metadata into the database.

With positional usernames, each named user and their repositories are
scraped. Without them, a consecutive range of users is scraped starting
after --since.`,
	Args:         cobra.ArbitraryArgs,
	RunE:         runScrape,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().Int64Var(&sinceID, "since", 0, "starting user id for range scraping")
	rootCmd.Flags().IntVar(&numUsers, "users", 0, "number of users to scrape, 0 means all")
	rootCmd.Flags().IntVar(&reposPerUsr, "repositories", 0, "number of repositories per user to scrape, 0 means all")
	rootCmd.Flags().BoolVar(&autoRetry, "retry", false, "wait out the rate limit reset and continue scraping")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	// Initialize structured logger
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()

	ghClient := github.NewClient(cfg.GithubToken, logger)
	sc := scraper.NewScraper(ghClient, store.New(dbpool), logger, cfg.UsersPageSize, cfg.ReposPageSize)

	var prog scraper.Progress
	if len(args) > 0 {
		logger.Info("Scraping individual users", "count", len(args))
		prog, err = scrapeIndividuals(ctx, sc, logger, args)
	} else {
		logger.Info("Scraping a range of users")
		prog, err = scrapeRange(ctx, sc, logger)
	}
	if err != nil {
		return err
	}

	cmd.Printf("users added: %d, repositories added: %d\n", prog.UsersAdded, prog.ReposAdded)
	return nil
}

// scrapeIndividuals scrapes the named users, waiting out rate limit resets
// and re-invoking the scrape when --retry is set. Named-user scraping has no
// cursor; re-invocation repeats the whole list, which the insert-if-absent
// store makes harmless.
func scrapeIndividuals(ctx context.Context, sc *scraper.Scraper, logger *slog.Logger, usernames []string) (scraper.Progress, error) {
	var total scraper.Progress
	for {
		prog, err := sc.ScrapeIndividualUsers(ctx, usernames, reposPerUsr)
		total = total.Add(prog)
		if err == nil {
			return total, nil
		}

		var throttled *custom_errors.ThrottledError
		if !errors.As(err, &throttled) {
			return total, err
		}
		if !autoRetry {
			logger.Warn("GitHub rate limit was exceeded. Try again later.")
			return total, nil
		}

		logger.Warn("GitHub rate limit exceeded. Retrying after reset", "wait", throttled.RetryAfter.String())
		if err := sleepUntilReset(ctx, throttled.RetryAfter); err != nil {
			return total, err
		}
	}
}

// scrapeRange scrapes a range of users, resuming from the throttle signal's
// cursor with the remaining count after each rate limit reset.
func scrapeRange(ctx context.Context, sc *scraper.Scraper, logger *slog.Logger) (scraper.Progress, error) {
	since := sinceID
	remaining := numUsers

	var total scraper.Progress
	for {
		prog, err := sc.ScrapeUsers(ctx, since, remaining, reposPerUsr)
		total = total.Add(prog)
		if err == nil {
			return total, nil
		}

		var throttled *custom_errors.ThrottledError
		if !errors.As(err, &throttled) {
			return total, err
		}
		if !autoRetry {
			logger.Warn("GitHub rate limit was exceeded. Try again later.")
			return total, nil
		}

		logger.Warn("GitHub rate limit exceeded. Continuing after reset",
			"wait", throttled.RetryAfter.String(), "last_id", throttled.LastID, "users_processed", prog.UsersProcessed)
		if err := sleepUntilReset(ctx, throttled.RetryAfter); err != nil {
			return total, err
		}

		if throttled.Resumable {
			since = throttled.LastID
		}
		if remaining > 0 {
			remaining -= prog.UsersProcessed
			if remaining <= 0 {
				return total, nil
			}
		}
		logger.Info("Rate limit reset elapsed. Picking up where we left off", "since", since, "remaining_users", remaining)
	}
}

// sleepUntilReset blocks for the signaled wait, aborting when the
// command's context is cancelled.
func sleepUntilReset(ctx context.Context, wait time.Duration) error {
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
