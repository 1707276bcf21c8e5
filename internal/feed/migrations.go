package feed

import (
	"database/sql"

	"github.com/HerbHall/qualitywatch/pkg/plugin"
)

// Timestamps are stored as unix seconds so the same schema runs on sqlite
// and postgres.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create feed tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS feed_points (
						source TEXT NOT NULL,
						protocol TEXT NOT NULL,
						chain TEXT NOT NULL,
						apy DOUBLE PRECISION NOT NULL,
						tvl DOUBLE PRECISION NOT NULL,
						observed_at BIGINT NOT NULL,
						ingested_at BIGINT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_feed_points_source_time ON feed_points(source, observed_at)`,
					`CREATE INDEX IF NOT EXISTS idx_feed_points_key_time ON feed_points(protocol, chain, observed_at)`,

					`CREATE TABLE IF NOT EXISTS feed_expected_keys (
						protocol TEXT NOT NULL,
						chain TEXT NOT NULL,
						PRIMARY KEY (protocol, chain)
					)`,

					`CREATE TABLE IF NOT EXISTS feed_probes (
						id TEXT PRIMARY KEY,
						injected_at BIGINT NOT NULL,
						observed_at BIGINT
					)`,
					`CREATE INDEX IF NOT EXISTS idx_feed_probes_injected ON feed_probes(injected_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
