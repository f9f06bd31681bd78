package seed

import (
	"context"
	"fmt"

	"github.com/Simplici0/cleanquote/internal/db"
	"github.com/Simplici0/cleanquote/internal/rates"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, database *db.DB) (Stats, error) {
	stats := Stats{}

	if err := ensureRateConfig(ctx, database, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensureRateConfig(ctx context.Context, database *db.DB, stats *Stats) error {
	inserted, err := rates.NewStore(database).Ensure(ctx)
	if err != nil {
		return fmt.Errorf("seed rate config: %w", err)
	}
	if inserted {
		stats.Inserts++
	}
	return nil
}
