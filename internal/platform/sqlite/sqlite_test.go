package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'downloads'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_CreatesDirAndIsReopenable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "b3_data", "downloads.db")

	db, err := Open(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(dsn)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
