package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lombahub/lomba-events/internal/record"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	url  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id   TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id               TEXT PRIMARY KEY,
	stable_key       TEXT NOT NULL UNIQUE,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	poster_url       TEXT NOT NULL DEFAULT '',
	registration_url TEXT NOT NULL DEFAULT '',
	organizer        TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	participant      TEXT NOT NULL DEFAULT '',
	source_name      TEXT NOT NULL DEFAULT '',
	price_min        INTEGER,
	price_max        INTEGER,
	deadline         TIMESTAMP,
	event_start      TIMESTAMP,
	event_end        TIMESTAMP,
	first_seen       TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS event_categories (
	event_id    TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	category_id TEXT NOT NULL REFERENCES categories(id),
	PRIMARY KEY (event_id, category_id)
);

CREATE INDEX IF NOT EXISTS idx_events_deadline ON events(deadline);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreateSource returns the id of the named source, inserting it on
// first sight.
func (s *Store) GetOrCreateSource(ctx context.Context, name, url string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM sources WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up source %q: %w", name, err)
	}

	id = uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (id, name, url) VALUES (?, ?, ?)`, id, name, url); err != nil {
		return "", fmt.Errorf("inserting source %q: %w", name, err)
	}
	return id, nil
}

// SeedCategories inserts any taxonomy entries not yet present. Existing
// slugs are left untouched.
func (s *Store) SeedCategories(ctx context.Context, taxonomy record.Taxonomy) error {
	for _, cat := range taxonomy {
		id := cat.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO categories (id, slug, name) VALUES (?, ?, ?)
			 ON CONFLICT(slug) DO NOTHING`, id, cat.Slug, cat.Name)
		if err != nil {
			return fmt.Errorf("seeding category %q: %w", cat.Slug, err)
		}
	}
	return nil
}

// Categories returns the full taxonomy ordered by slug.
func (s *Store) Categories(ctx context.Context) (record.Taxonomy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, name FROM categories ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var taxonomy record.Taxonomy
	for rows.Next() {
		var cat record.Category
		if err := rows.Scan(&cat.ID, &cat.Slug, &cat.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		taxonomy = append(taxonomy, cat)
	}
	return taxonomy, rows.Err()
}

// UpsertEvent inserts the event or, when its stable key already exists,
// updates the existing row in place. Category links are replaced to
// match the event's current set. The returned id is the row id, new or
// existing. FirstSeen is preserved on update.
func (s *Store) UpsertEvent(ctx context.Context, ev record.CanonicalEvent) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM events WHERE stable_key = ?`, ev.StableKey).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (
				id, stable_key, title, description, url, poster_url,
				registration_url, organizer, location, participant, source_name,
				price_min, price_max, deadline, event_start, event_end, first_seen
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, ev.StableKey, ev.Title, ev.Description, ev.URL, ev.PosterURL,
			ev.RegistrationURL, ev.Organizer, ev.Location, ev.Participant, ev.SourceName,
			ev.Price.Min, ev.Price.Max,
			ev.Dates.Deadline, ev.Dates.EventStart, ev.Dates.EventEnd, ev.FirstSeen)
		if err != nil {
			return "", fmt.Errorf("inserting event: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("looking up event: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE events SET
				title = ?, description = ?, url = ?, poster_url = ?,
				registration_url = ?, organizer = ?, location = ?, participant = ?,
				source_name = ?, price_min = ?, price_max = ?,
				deadline = ?, event_start = ?, event_end = ?
			WHERE id = ?`,
			ev.Title, ev.Description, ev.URL, ev.PosterURL,
			ev.RegistrationURL, ev.Organizer, ev.Location, ev.Participant,
			ev.SourceName, ev.Price.Min, ev.Price.Max,
			ev.Dates.Deadline, ev.Dates.EventStart, ev.Dates.EventEnd, id)
		if err != nil {
			return "", fmt.Errorf("updating event: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM event_categories WHERE event_id = ?`, id); err != nil {
		return "", fmt.Errorf("clearing category links: %w", err)
	}
	for _, catID := range ev.CategoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_categories (event_id, category_id) VALUES (?, ?)`,
			id, catID); err != nil {
			return "", fmt.Errorf("linking category %q: %w", catID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing upsert: %w", err)
	}
	return id, nil
}

// DeleteExpired removes events whose deadline has passed and returns
// how many rows were deleted. Events without a deadline are kept.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE deadline IS NOT NULL AND deadline < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired events: %w", err)
	}
	return res.RowsAffected()
}

// ListEvents returns all events ordered by deadline, soonest first.
// Events without a deadline sort last.
func (s *Store) ListEvents(ctx context.Context) ([]record.CanonicalEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectEventSQL+
		` ORDER BY deadline IS NULL, deadline, title`)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []record.CanonicalEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if err := s.loadCategories(ctx, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// GetEvent returns one event by row id.
func (s *Store) GetEvent(ctx context.Context, id string) (record.CanonicalEvent, error) {
	row := s.db.QueryRowContext(ctx, selectEventSQL+` WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.CanonicalEvent{}, ErrNotFound
	}
	if err != nil {
		return record.CanonicalEvent{}, err
	}
	if err := s.loadCategories(ctx, &ev); err != nil {
		return record.CanonicalEvent{}, err
	}
	return ev, nil
}

const selectEventSQL = `
	SELECT id, stable_key, title, description, url, poster_url,
	       registration_url, organizer, location, participant, source_name,
	       price_min, price_max, deadline, event_start, event_end, first_seen
	FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (record.CanonicalEvent, error) {
	var ev record.CanonicalEvent
	err := row.Scan(
		&ev.ID, &ev.StableKey, &ev.Title, &ev.Description, &ev.URL, &ev.PosterURL,
		&ev.RegistrationURL, &ev.Organizer, &ev.Location, &ev.Participant, &ev.SourceName,
		&ev.Price.Min, &ev.Price.Max,
		&ev.Dates.Deadline, &ev.Dates.EventStart, &ev.Dates.EventEnd, &ev.FirstSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, err
		}
		return ev, fmt.Errorf("scanning event: %w", err)
	}
	return ev, nil
}

func (s *Store) loadCategories(ctx context.Context, ev *record.CanonicalEvent) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ec.category_id
		FROM event_categories ec
		JOIN categories c ON c.id = ec.category_id
		WHERE ec.event_id = ?
		ORDER BY c.slug`, ev.ID)
	if err != nil {
		return fmt.Errorf("loading category links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var catID string
		if err := rows.Scan(&catID); err != nil {
			return fmt.Errorf("scanning category link: %w", err)
		}
		ev.CategoryIDs = append(ev.CategoryIDs, catID)
	}
	return rows.Err()
}
