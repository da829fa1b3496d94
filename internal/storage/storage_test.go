package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techinsight/techinsight-be/internal/config"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "storage.db"),
	})
	require.NoError(t, err)
	defer store.Close(ctx)

	require.NoError(t, store.Ping(ctx))
	accounts, err := store.Accounts().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Database{Driver: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}
