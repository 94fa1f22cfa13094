package database

import (
	"context"

	"ai-image-decoder/internal/metrics"
)

// CalculateStats counts the rows of the library tables.
func (d *Database) CalculateStats(ctx context.Context) (LibraryStats, error) {
	done := observeQuery("stats")
	var err error
	defer func() { done(err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := LibraryStats{Tags: map[string]int{}}

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM images", &stats.Images},
		{"SELECT COUNT(*) FROM prompts", &stats.Prompts},
		{"SELECT COUNT(*) FROM extracted_fields", &stats.Fields},
		{"SELECT COUNT(*) FROM collections", &stats.Collections},
	}

	for _, q := range queries {
		if err = d.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return stats, err
		}
	}

	rows, err := d.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM tags GROUP BY category")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var n int
		if err = rows.Scan(&cat, &n); err != nil {
			return stats, err
		}
		stats.Tags[cat] = n
	}
	err = rows.Err()
	return stats, err
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	d.UpdateDBMetrics()

	stats, err := d.CalculateStats(context.Background())
	if err != nil {
		log.Warn("Failed to calculate library stats: %v", err)
	}
	return metrics.Stats{
		Images:      stats.Images,
		Prompts:     stats.Prompts,
		Collections: stats.Collections,
		Tags:        stats.Tags,
	}
}
