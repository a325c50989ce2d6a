package postgres

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/migrations"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "negotiations_pkey"}, apperr.KindConflict},
		{"other server error", &pgconn.PgError{Code: "42P01"}, apperr.KindUnknown},
		{"network failure", errors.New("dial tcp: connection refused"), apperr.KindStorageUnavailable},
		{"deadline", context.DeadlineExceeded, apperr.KindStorageUnavailable},
		{"already classified", apperr.NotFound("asset", "a-1"), apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.kind, apperr.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.NoError(t, classify(nil))
}

func TestClassifyCreate_DuplicateNamesEntity(t *testing.T) {
	err := classifyCreate("negotiation", "n-1", &pgconn.PgError{Code: "23505"})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, "negotiation", appErr.Entity)
	assert.Equal(t, "n-1", appErr.ID)
}

func TestClassifyCreate_SecondaryConstraint(t *testing.T) {
	pkey := classifyCreate("participant", "p-1", &pgconn.PgError{Code: "23505", ConstraintName: "participants_pkey"})
	did := classifyCreate("participant", "p-1", &pgconn.PgError{Code: "23505", ConstraintName: "participants_did_key"})

	assert.EqualError(t, pkey, "participant p-1 already exists")
	assert.True(t, apperr.IsKind(did, apperr.KindConflict))
	assert.Contains(t, did.Error(), "participants_did_key")
}

func TestMigrationFiles_Ordered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_more.sql":  {Data: []byte("SELECT 2")},
		"001_init.sql":  {Data: []byte("SELECT 1")},
		"README.md":     {Data: []byte("docs")},
		"archive/x.sql": {Data: []byte("SELECT 3")},
	}

	files, err := MigrationFiles(fsys)

	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, files)
}

func TestMigrationFiles_Embedded(t *testing.T) {
	files, err := MigrationFiles(migrations.Files)

	require.NoError(t, err)
	assert.Contains(t, files, "001_init.sql")
	assert.Contains(t, files, "002_agreements_negotiation_unique.sql")
}
