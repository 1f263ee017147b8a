package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pable/go-raid-metrics/internal/model"
)

// ErrNoEvents is returned when a view's selection matches no raid events.
var ErrNoEvents = errors.New("no raid events")

// ImportBatch describes one ingested export file.
type ImportBatch struct {
	ID         string
	Source     string
	Format     string
	ImportedAt time.Time
	Records    int // rows read from the file
	Inserted   int // rows that were new
}

const eventColumns = `id, upstream_id, guild, season, display_name, user_id, name,
	encounter_id, encounter_index, tier, set_index, rarity,
	damage_type, damage_dealt, remaining_hp, enemy_hp, enemy_hp_left,
	loop_index, started_on, completed_on, timestamp`

// eventKey identifies a row of one export up to its occurrence: identical
// rows in the same export (two crashes by one player on one boss) are told
// apart by counting them.
type eventKey struct {
	guild, season, upstreamID, player, userID, name, damageType, timestamp string
	loop, tier, set, encounterID, encounterIndex                           int
	damage, remaining                                                      float64
}

func keyOf(r *model.RaidEventRecord) eventKey {
	return eventKey{
		guild: r.Guild, season: r.Season, upstreamID: r.UpstreamID,
		player: r.DisplayName, userID: r.UserID, name: r.Name,
		damageType: r.DamageType, timestamp: r.Timestamp,
		loop: r.LoopIndex, tier: r.Tier, set: r.Set,
		encounterID: r.EncounterID, encounterIndex: r.EncounterIndex,
		damage: r.DamageDealt, remaining: r.RemainingHP,
	}
}

// InsertRaidEvents stores a batch of records in one transaction. Rows that
// already exist are skipped. Returns the number of new rows.
func (db *DB) InsertRaidEvents(ctx context.Context, batch *ImportBatch, records []model.RaidEventRecord) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	batch.Records = len(records)
	if batch.ImportedAt.IsZero() {
		batch.ImportedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_batches(id, source, format, imported_at, records)
		VALUES (?, ?, ?, ?, ?)`,
		batch.ID, batch.Source, batch.Format, batch.ImportedAt.Format(time.RFC3339), batch.Records)
	if err != nil {
		return 0, fmt.Errorf("insert import batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO raid_events(
			import_batch, upstream_id, occurrence, guild, season, display_name, user_id, name,
			encounter_id, encounter_index, tier, set_index, rarity,
			damage_type, damage_dealt, remaining_hp, enemy_hp, enemy_hp_left,
			loop_index, started_on, completed_on, timestamp
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	seen := make(map[eventKey]int, len(records))
	for i, r := range records {
		k := keyOf(&r)
		occurrence := seen[k]
		seen[k]++
		res, err := stmt.ExecContext(ctx,
			batch.ID, r.UpstreamID, occurrence, r.Guild, r.Season, r.DisplayName, r.UserID, r.Name,
			r.EncounterID, r.EncounterIndex, r.Tier, r.Set, r.Rarity,
			r.DamageType, r.DamageDealt, r.RemainingHP, r.EnemyHP, r.EnemyHPLeft,
			r.LoopIndex, r.StartedOn, r.CompletedOn, r.Timestamp,
		)
		if err != nil {
			return 0, fmt.Errorf("insert raid event %d (%s): %w", i, r.DisplayName, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE import_batches SET inserted = ? WHERE id = ?`, inserted, batch.ID); err != nil {
		return 0, fmt.Errorf("update import batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	batch.Inserted = inserted
	db.logger.Debug().Str("batch", batch.ID).Int("records", batch.Records).Int("inserted", inserted).Msg("raid events stored")
	return inserted, nil
}

// FetchRaidEvents returns every record matching f, in insertion order.
func (db *DB) FetchRaidEvents(ctx context.Context, f Filter) ([]model.RaidEventRecord, error) {
	where, args := f.where()
	rows, err := db.conn.QueryContext(ctx, "SELECT "+eventColumns+" FROM raid_events"+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("query raid events: %w", err)
	}
	defer rows.Close()

	var out []model.RaidEventRecord
	for rows.Next() {
		var r model.RaidEventRecord
		if err := rows.Scan(
			&r.ID, &r.UpstreamID, &r.Guild, &r.Season, &r.DisplayName, &r.UserID, &r.Name,
			&r.EncounterID, &r.EncounterIndex, &r.Tier, &r.Set, &r.Rarity,
			&r.DamageType, &r.DamageDealt, &r.RemainingHP, &r.EnemyHP, &r.EnemyHPLeft,
			&r.LoopIndex, &r.StartedOn, &r.CompletedOn, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan raid event: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raid events: %w", err)
	}
	db.logger.Debug().Str("filter", f.CacheKey()).Int("rows", len(out)).Msg("raid events fetched")
	return out, nil
}

// ListSeasons returns one summary per season, most recent first.
func (db *DB) ListSeasons(ctx context.Context) ([]model.SeasonSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT season,
		       COUNT(DISTINCT guild),
		       COUNT(DISTINCT display_name),
		       COUNT(*),
		       COUNT(DISTINCT loop_index)
		FROM raid_events
		GROUP BY season`)
	if err != nil {
		return nil, fmt.Errorf("query seasons: %w", err)
	}
	defer rows.Close()

	var out []model.SeasonSummary
	for rows.Next() {
		var s model.SeasonSummary
		if err := rows.Scan(&s.Season, &s.Guilds, &s.Players, &s.Events, &s.Loops); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return model.CompareSeasons(out[i].Season, out[j].Season) > 0
	})
	return out, nil
}

// ListGuilds returns one summary per guild active in season (all seasons when
// empty), ordered by season then guild.
func (db *DB) ListGuilds(ctx context.Context, season string) ([]model.GuildSummary, error) {
	where, args := Filter{Season: season}.where()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT guild, season,
		       COUNT(DISTINCT display_name),
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN damage_dealt > 0 THEN damage_dealt ELSE 0 END), 0)
		FROM raid_events`+where+`
		GROUP BY guild, season`, args...)
	if err != nil {
		return nil, fmt.Errorf("query guilds: %w", err)
	}
	defer rows.Close()

	var out []model.GuildSummary
	for rows.Next() {
		var g model.GuildSummary
		if err := rows.Scan(&g.Guild, &g.Season, &g.Players, &g.Events, &g.Damage); err != nil {
			return nil, fmt.Errorf("scan guild: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if c := model.CompareSeasons(out[i].Season, out[j].Season); c != 0 {
			return c > 0
		}
		return out[i].Guild < out[j].Guild
	})
	return out, nil
}

// ListImports returns every import batch, newest first.
func (db *DB) ListImports(ctx context.Context) ([]ImportBatch, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source, format, imported_at, records, inserted
		FROM import_batches
		ORDER BY imported_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var out []ImportBatch
	for rows.Next() {
		var b ImportBatch
		var at string
		if err := rows.Scan(&b.ID, &b.Source, &b.Format, &at, &b.Records, &b.Inserted); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		b.ImportedAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Overview is a whole-database summary.
type Overview struct {
	Events     int
	Guilds     int
	Seasons    int
	Players    int
	Imports    int
	LastImport string
}

// GetOverview counts what the database holds.
func (db *DB) GetOverview(ctx context.Context) (Overview, error) {
	var o Overview
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT guild), COUNT(DISTINCT season), COUNT(DISTINCT display_name)
		FROM raid_events`).Scan(&o.Events, &o.Guilds, &o.Seasons, &o.Players)
	if err != nil {
		return o, fmt.Errorf("count raid events: %w", err)
	}
	var last sql.NullString
	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*), MAX(imported_at) FROM import_batches`).Scan(&o.Imports, &last)
	if err != nil {
		return o, fmt.Errorf("count imports: %w", err)
	}
	o.LastImport = last.String
	return o, nil
}

// DeleteSeason removes every event of guild in season (every guild when
// guild is empty) and returns the number of rows removed.
func (db *DB) DeleteSeason(ctx context.Context, guild, season string) (int64, error) {
	if season == "" {
		return 0, errors.New("delete season: season is required")
	}
	where, args := Filter{Guild: guild, Season: season}.where()
	res, err := db.conn.ExecContext(ctx, "DELETE FROM raid_events"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete season: %w", err)
	}
	return res.RowsAffected()
}

// QueryRaw runs an arbitrary query and returns column names and rows rendered
// as strings. NULLs render as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.2f", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
