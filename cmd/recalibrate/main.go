// recalibrate audits the match score distribution against the target bands
// and remaps legacy inflated scores onto the compressed scale. Dry-run by
// default; pass --apply to write the remapped scores.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ugobe007/hotmatch/internal/audit"
	"github.com/ugobe007/hotmatch/internal/config"
	"github.com/ugobe007/hotmatch/internal/observability"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/internal/scoring"
	"github.com/ugobe007/hotmatch/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	apply := flag.Bool("apply", false, "write the remapped scores (default: dry run)")
	auditOnly := flag.Bool("audit-only", false, "report the distribution and skip the remap")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	if err := database.VerifySchema(ctx, db, []string{"matches", "calibration_runs"}); err != nil {
		logger.Error("Schema verification failed", "error", err)

		return exitFailure
	}

	matchesRepo := repository.NewMatchesRepository(db)
	runsRepo := repository.NewRunsRepository(db)

	auditor := audit.NewAuditor(matchesRepo, runsRepo, scoring.PolicyVersion, logger)

	report, err := auditor.Audit(ctx)
	if err != nil {
		logger.Error("Audit failed", "error", err)

		return exitFailure
	}

	fmt.Printf("Total matches: %d\n", report.Total)
	for _, b := range report.Bands {
		fmt.Printf("  %2d-%2d: %7d  share %5.1f%%  target %5.1f%%  drift %+5.1f%%\n",
			b.Band.Lo, b.Band.Hi, b.Count, b.Share*100, b.Band.TargetShare*100, b.Drift*100)
	}

	if *auditOnly {
		return exitSuccess
	}

	remap, err := auditor.Remap(ctx, *apply)
	if err != nil {
		logger.Error("Remap failed", "error", err)

		return exitFailure
	}

	if len(remap.Changes) == 0 {
		fmt.Println("No legacy scores to remap.")

		return exitSuccess
	}

	verb := "Would remap"
	if remap.Applied {
		verb = "Remapped"
	}

	fmt.Printf("%s %d legacy score(s).\n", verb, len(remap.Changes))
	for _, ch := range remap.Changes {
		fmt.Printf("  %s: %d -> %d\n", ch.MatchID, ch.OldScore, ch.NewScore)
	}

	if !remap.Applied {
		fmt.Println("Dry run; pass --apply to write these changes.")
	}

	return exitSuccess
}
