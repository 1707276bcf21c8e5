package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/qualitywatch/internal/store"
	"github.com/HerbHall/qualitywatch/pkg/models"
)

// FeedStore provides database access for ingested points, the expected-key
// manifest and latency probes.
type FeedStore struct {
	db     *sql.DB
	driver string
}

// NewFeedStore creates a FeedStore. driver selects the placeholder style.
func NewFeedStore(db *sql.DB, driver string) *FeedStore {
	return &FeedStore{db: db, driver: driver}
}

func (s *FeedStore) q(query string) string {
	return store.Rebind(s.driver, query)
}

// -- Points --

// InsertPoints stores a batch of points in one transaction.
func (s *FeedStore) InsertPoints(ctx context.Context, points []models.DataPoint, ingestedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert points: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO feed_points (source, protocol, chain, apy, tvl, observed_at, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert points: %w", err)
	}
	defer stmt.Close()

	for i := range points {
		p := &points[i]
		if _, err := stmt.ExecContext(ctx,
			p.Source, p.Protocol, p.Chain, p.APY, p.TVL,
			p.Timestamp.Unix(), ingestedAt.Unix(),
		); err != nil {
			return fmt.Errorf("insert point %s: %w", p.Key(), err)
		}
	}
	return tx.Commit()
}

// LatestBySource returns the newest observation per series from one source
// observed at or after since.
func (s *FeedStore) LatestBySource(ctx context.Context, source string, since time.Time) (map[models.SeriesKey]models.Observation, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT protocol, chain, apy, tvl, observed_at
		FROM feed_points
		WHERE source = ? AND observed_at >= ?
		ORDER BY observed_at ASC`),
		source, since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query latest by source: %w", err)
	}
	defer rows.Close()

	out := make(map[models.SeriesKey]models.Observation)
	for rows.Next() {
		var k models.SeriesKey
		var obs models.Observation
		var at int64
		if err := rows.Scan(&k.Protocol, &k.Chain, &obs.APY, &obs.TVL, &at); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		obs.Timestamp = time.Unix(at, 0).UTC()
		out[k] = obs
	}
	return out, rows.Err()
}

// Latest returns the newest point per (series, source) observed at or after since.
func (s *FeedStore) Latest(ctx context.Context, since time.Time) ([]models.DataPoint, error) {
	points, err := s.History(ctx, since)
	if err != nil {
		return nil, err
	}
	type seriesSource struct {
		key    models.SeriesKey
		source string
	}
	idx := make(map[seriesSource]int)
	var out []models.DataPoint
	for _, p := range points {
		k := seriesSource{p.Key(), p.Source}
		if i, ok := idx[k]; ok {
			out[i] = p
			continue
		}
		idx[k] = len(out)
		out = append(out, p)
	}
	return out, nil
}

// History returns every point observed at or after since, ordered by
// series, source and time.
func (s *FeedStore) History(ctx context.Context, since time.Time) ([]models.DataPoint, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT source, protocol, chain, apy, tvl, observed_at
		FROM feed_points
		WHERE observed_at >= ?
		ORDER BY protocol, chain, source, observed_at`),
		since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.DataPoint
	for rows.Next() {
		var p models.DataPoint
		var at int64
		if err := rows.Scan(&p.Source, &p.Protocol, &p.Chain, &p.APY, &p.TVL, &at); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p.Timestamp = time.Unix(at, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// -- Expected keys --

// ReplaceExpected swaps the expected-key manifest atomically.
func (s *FeedStore) ReplaceExpected(ctx context.Context, keys []models.SeriesKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace expected: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_expected_keys`); err != nil {
		return fmt.Errorf("clear expected keys: %w", err)
	}
	seen := make(map[models.SeriesKey]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO feed_expected_keys (protocol, chain) VALUES (?, ?)`),
			k.Protocol, k.Chain); err != nil {
			return fmt.Errorf("insert expected key %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// ExpectedKeys returns the manifest ordered by protocol and chain.
func (s *FeedStore) ExpectedKeys(ctx context.Context) ([]models.SeriesKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT protocol, chain FROM feed_expected_keys ORDER BY protocol, chain`)
	if err != nil {
		return nil, fmt.Errorf("query expected keys: %w", err)
	}
	defer rows.Close()

	var out []models.SeriesKey
	for rows.Next() {
		var k models.SeriesKey
		if err := rows.Scan(&k.Protocol, &k.Chain); err != nil {
			return nil, fmt.Errorf("scan expected key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// -- Probes --

// InsertProbe records an injected probe.
func (s *FeedStore) InsertProbe(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO feed_probes (id, injected_at) VALUES (?, ?)`), id, at.Unix())
	if err != nil {
		return fmt.Errorf("insert probe: %w", err)
	}
	return nil
}

// MarkProbeObserved stamps a probe as seen downstream. Returns false when
// the probe is unknown. Marking twice keeps the first observation.
func (s *FeedStore) MarkProbeObserved(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE feed_probes SET observed_at = ?
		WHERE id = ? AND observed_at IS NULL`),
		at.Unix(), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark probe observed: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	_, found, err := s.ProbeObservedAt(ctx, id)
	return found, err
}

// ProbeObservedAt returns when a probe was observed. The time is nil while
// the probe is in flight. found is false for unknown probes.
func (s *FeedStore) ProbeObservedAt(ctx context.Context, id string) (observed *time.Time, found bool, err error) {
	var at sql.NullInt64
	err = s.db.QueryRowContext(ctx, s.q(`SELECT observed_at FROM feed_probes WHERE id = ?`), id).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get probe: %w", err)
	}
	if !at.Valid {
		return nil, true, nil
	}
	t := time.Unix(at.Int64, 0).UTC()
	return &t, true, nil
}

// -- Maintenance --

// PurgeBefore deletes points observed and probes injected before cutoff.
func (s *FeedStore) PurgeBefore(ctx context.Context, cutoff time.Time) (points, probes int64, err error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM feed_points WHERE observed_at < ?`), cutoff.Unix())
	if err != nil {
		return 0, 0, fmt.Errorf("purge points: %w", err)
	}
	points, _ = res.RowsAffected()

	res, err = s.db.ExecContext(ctx, s.q(`DELETE FROM feed_probes WHERE injected_at < ?`), cutoff.Unix())
	if err != nil {
		return points, 0, fmt.Errorf("purge probes: %w", err)
	}
	probes, _ = res.RowsAffected()
	return points, probes, nil
}
