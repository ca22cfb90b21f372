package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/signal-scout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS discovery_queries (
	id            TEXT PRIMARY KEY,
	cache_key     TEXT NOT NULL UNIQUE,
	query         TEXT NOT NULL,
	contact_count INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS discovery_results (
	id       TEXT PRIMARY KEY,
	query_id TEXT NOT NULL REFERENCES discovery_queries(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	company  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS discovery_contacts (
	id          TEXT PRIMARY KEY,
	result_id   TEXT NOT NULL REFERENCES discovery_results(id) ON DELETE CASCADE,
	full_name   TEXT,
	first_name  TEXT,
	title       TEXT,
	email       TEXT,
	profile_url TEXT,
	seniority   TEXT,
	source      TEXT
);

CREATE INDEX IF NOT EXISTS idx_discovery_queries_expires_at ON discovery_queries(expires_at);
CREATE INDEX IF NOT EXISTS idx_discovery_results_query_id ON discovery_results(query_id);
CREATE INDEX IF NOT EXISTS idx_discovery_contacts_result_id ON discovery_contacts(result_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedDiscovery(ctx context.Context, key string, wantContacts bool) (*CachedDiscovery, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, created_at, expires_at FROM discovery_queries
		 WHERE cache_key = ? AND expires_at > datetime('now')
		   AND (? = 0 OR contact_count > 0)`,
		key, boolToInt(wantContacts),
	)

	var queryID string
	cd := CachedDiscovery{Key: key}
	err := row.Scan(&queryID, &cd.Query, &cd.CreatedAt, &cd.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached discovery")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.company, c.id, c.full_name, c.first_name, c.title, c.email, c.profile_url, c.seniority, c.source
		 FROM discovery_results r
		 LEFT JOIN discovery_contacts c ON c.result_id = r.id
		 WHERE r.query_id = ?
		 ORDER BY r.position`,
		queryID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached results")
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		cd.Results = append(cd.Results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: cached results iterate")
	}
	return &cd, nil
}

func (s *SQLiteStore) SetCachedDiscovery(ctx context.Context, key, query string, results []model.Result, ttl time.Duration) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM discovery_queries WHERE cache_key = ?`, key); err != nil {
		return eris.Wrap(err, "sqlite: evict previous entry")
	}

	queryID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO discovery_queries (id, cache_key, query, contact_count, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		queryID, key, query, contactCount(results), now, now.Add(ttl),
	); err != nil {
		return eris.Wrap(err, "sqlite: insert query")
	}

	for i, r := range results {
		companyJSON, err := json.Marshal(r.Company)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal company")
		}
		resultID := uuid.New().String()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO discovery_results (id, query_id, position, company) VALUES (?, ?, ?, ?)`,
			resultID, queryID, i, string(companyJSON),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert result")
		}
		if r.Contact == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO discovery_contacts (id, result_id, full_name, first_name, title, email, profile_url, seniority, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), resultID,
			r.Contact.FullName, r.Contact.FirstName, r.Contact.Title, r.Contact.Email,
			r.Contact.ProfileURL, string(r.Contact.Seniority), r.Contact.Source,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert contact")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM discovery_queries WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func contactCount(results []model.Result) int {
	var n int
	for _, r := range results {
		if r.Contact != nil {
			n++
		}
	}
	return n
}

type scannable interface {
	Scan(dest ...any) error
}

// scanResult reads one result row from the results/contacts join. A NULL
// contact id means no contact was cached for that company.
func scanResult(row scannable) (*model.Result, error) {
	var r model.Result
	var companyJSON string
	var contactID, fullName, firstName, title, email, profileURL, seniority, source sql.NullString

	err := row.Scan(&companyJSON, &contactID, &fullName, &firstName, &title, &email, &profileURL, &seniority, &source)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan result")
	}

	if err := json.Unmarshal([]byte(companyJSON), &r.Company); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal company")
	}
	if contactID.Valid {
		r.Contact = &model.EnrichedContact{
			FullName:   fullName.String,
			FirstName:  firstName.String,
			Title:      title.String,
			Email:      email.String,
			ProfileURL: profileURL.String,
			Seniority:  model.Seniority(seniority.String),
			Source:     source.String,
		}
	}
	return &r, nil
}
