// Command backfill normalizes valuation records imported from the legacy
// system: rewrites legacy state labels to their current names and initializes
// the version counter on rows that predate versioning.
// Usage: go run ./cmd/backfill
package main

import (
	"context"
	"fmt"
	"log"

	"propval/internal/config"
	"propval/internal/domain"
	"propval/internal/repository/postgres"
)

// Legacy exports used these labels before the state names settled.
var legacyStates = map[string]domain.RecordState{
	"inprogress":  domain.StateOnProgress,
	"in-progress": domain.StateOnProgress,
	"approve":     domain.StateApproved,
	"reject":      domain.StateRejected,
	"re-work":     domain.StateRework,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	for variant, table := range domain.VariantTables {
		fixedStates := 0
		for legacy, current := range legacyStates {
			res, err := db.ExecContext(ctx,
				fmt.Sprintf(`UPDATE %s SET state = $1 WHERE state = $2`, table),
				current, legacy)
			if err != nil {
				return fmt.Errorf("normalizing %q states in %s: %w", legacy, table, err)
			}
			n, _ := res.RowsAffected()
			fixedStates += int(n)
		}

		res, err := db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET version = 1 WHERE version IS NULL OR version < 1`, table))
		if err != nil {
			return fmt.Errorf("initializing versions in %s: %w", table, err)
		}
		fixedVersions, _ := res.RowsAffected()

		log.Printf("%s: normalized %d states, initialized %d version counters", variant, fixedStates, fixedVersions)
	}

	log.Println("backfill complete")
	return nil
}
