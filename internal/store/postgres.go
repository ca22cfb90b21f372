package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/signal-scout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache paths.
var preparedStatements = map[string]string{
	"get_query":      `SELECT id, query, created_at, expires_at FROM discovery_queries WHERE cache_key = $1 AND expires_at > now() AND ($2 = false OR contact_count > 0)`,
	"get_results":    `SELECT r.company, c.id, c.full_name, c.first_name, c.title, c.email, c.profile_url, c.seniority, c.source FROM discovery_results r LEFT JOIN discovery_contacts c ON c.result_id = r.id WHERE r.query_id = $1 ORDER BY r.position`,
	"evict_query":    `DELETE FROM discovery_queries WHERE cache_key = $1`,
	"insert_query":   `INSERT INTO discovery_queries (id, cache_key, query, contact_count, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"insert_result":  `INSERT INTO discovery_results (id, query_id, position, company) VALUES ($1, $2, $3, $4)`,
	"insert_contact": `INSERT INTO discovery_contacts (id, result_id, full_name, first_name, title, email, profile_url, seniority, source) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"delete_expired": `DELETE FROM discovery_queries WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS discovery_queries (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	cache_key     TEXT NOT NULL UNIQUE,
	query         TEXT NOT NULL,
	contact_count INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS discovery_results (
	id       TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query_id TEXT NOT NULL REFERENCES discovery_queries(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	company  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS discovery_contacts (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCachedDiscovery(ctx context.Context, key string, wantContacts bool) (*CachedDiscovery, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query, created_at, expires_at FROM discovery_queries
		 WHERE cache_key = $1 AND expires_at > now() AND ($2 = false OR contact_count > 0)`,
		key, wantContacts,
	)

	var queryID string
	cd := CachedDiscovery{Key: key}
	err := row.Scan(&queryID, &cd.Query, &cd.CreatedAt, &cd.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached discovery")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT r.company, c.id, c.full_name, c.first_name, c.title, c.email, c.profile_url, c.seniority, c.source
		 FROM discovery_results r
		 LEFT JOIN discovery_contacts c ON c.result_id = r.id
		 WHERE r.query_id = $1
		 ORDER BY r.position`,
		queryID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached results")
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanPgResult(rows)
		if err != nil {
			return nil, err
		}
		cd.Results = append(cd.Results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: cached results iterate")
	}
	return &cd, nil
}

func (s *PostgresStore) SetCachedDiscovery(ctx context.Context, key, query string, results []model.Result, ttl time.Duration) error {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM discovery_queries WHERE cache_key = $1`, key); err != nil {
		return eris.Wrap(err, "postgres: evict previous entry")
	}

	queryID := uuid.New().String()
	if _, err := tx.Exec(ctx,
		`INSERT INTO discovery_queries (id, cache_key, query, contact_count, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		queryID, key, query, contactCount(results), now, now.Add(ttl),
	); err != nil {
		return eris.Wrap(err, "postgres: insert query")
	}

	for i, r := range results {
		companyJSON, err := json.Marshal(r.Company)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal company")
		}
		resultID := uuid.New().String()
		if _, err := tx.Exec(ctx,
			`INSERT INTO discovery_results (id, query_id, position, company) VALUES ($1, $2, $3, $4)`,
			resultID, queryID, i, companyJSON,
		); err != nil {
			return eris.Wrap(err, "postgres: insert result")
		}
		if r.Contact == nil {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO discovery_contacts (id, result_id, full_name, first_name, title, email, profile_url, seniority, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New().String(), resultID,
			r.Contact.FullName, r.Contact.FirstName, r.Contact.Title, r.Contact.Email,
			r.Contact.ProfileURL, string(r.Contact.Seniority), r.Contact.Source,
		); err != nil {
			return eris.Wrap(err, "postgres: insert contact")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM discovery_queries WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

// scanPgResult mirrors scanResult for pgx rows; company arrives as JSONB
// bytes instead of a string.
func scanPgResult(rows pgx.Rows) (*model.Result, error) {
	var r model.Result
	var companyJSON []byte
	var contactID, fullName, firstName, title, email, profileURL, seniority, source *string

	err := rows.Scan(&companyJSON, &contactID, &fullName, &firstName, &title, &email, &profileURL, &seniority, &source)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan result")
	}

	if err := json.Unmarshal(companyJSON, &r.Company); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal company")
	}
	if contactID != nil {
		r.Contact = &model.EnrichedContact{
			FullName:   deref(fullName),
			FirstName:  deref(firstName),
			Title:      deref(title),
			Email:      deref(email),
			ProfileURL: deref(profileURL),
			Seniority:  model.Seniority(deref(seniority)),
			Source:     deref(source),
		}
	}
	return &r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
