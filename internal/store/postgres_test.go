package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCachedDiscovery_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, query, created_at, expires_at FROM discovery_queries`).
		WithArgs("somekey", false).
		WillReturnError(pgx.ErrNoRows)

	cd, err := s.GetCachedDiscovery(context.Background(), "somekey", false)
	require.NoError(t, err)
	assert.Nil(t, cd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedDiscovery_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, query, created_at, expires_at FROM discovery_queries`).
		WithArgs("somekey", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "query", "created_at", "expires_at"}).
			AddRow("q-1", "fintech companies", now, now.Add(time.Hour)))

	contactID := "c-1"
	name := "Pat Doe"
	mock.ExpectQuery(`SELECT r\.company, c\.id`).
		WithArgs("q-1").
		WillReturnRows(pgxmock.NewRows([]string{"company", "id", "full_name", "first_name", "title", "email", "profile_url", "seniority", "source"}).
			AddRow([]byte(`{"company_name":"Acme","company_domain":"acme.com","opportunity_score":45}`),
				&contactID, &name, nil, nil, nil, nil, nil, nil).
			AddRow([]byte(`{"company_name":"BigCo","company_domain":"bigco.io"}`),
				nil, nil, nil, nil, nil, nil, nil, nil))

	cd, err := s.GetCachedDiscovery(context.Background(), "somekey", true)
	require.NoError(t, err)
	require.NotNil(t, cd)
	assert.Equal(t, "fintech companies", cd.Query)
	require.Len(t, cd.Results, 2)
	require.NotNil(t, cd.Results[0].Contact)
	assert.Equal(t, "Pat Doe", cd.Results[0].Contact.FullName)
	assert.Nil(t, cd.Results[1].Contact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedDiscovery(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM discovery_queries WHERE cache_key`).
		WithArgs("somekey").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO discovery_queries`).
		WithArgs(pgxmock.AnyArg(), "somekey", "fintech companies hiring", 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Two results, one contact.
	mock.ExpectExec(`INSERT INTO discovery_results`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO discovery_contacts`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "Pat Doe", "Pat", "CEO", "pat@acme.com", "", "c_suite", "apollo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO discovery_results`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SetCachedDiscovery(context.Background(), "somekey", "fintech companies hiring", sampleResults(), time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM discovery_queries WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
