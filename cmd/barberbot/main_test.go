package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barberbot/internal/access"
	"barberbot/internal/config"
	"barberbot/internal/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "barberbot dev")
	assert.Contains(t, out, "commit: none")
}

func TestParseCmd(t *testing.T) {
	out, err := run(t, "parse", "--ref", "2025-08-24T10:37:15-03:00", "mañana", "14hs")
	require.NoError(t, err)
	assert.Contains(t, out, "canonical: 2025-08-25T14:00:00-03:00")
	assert.Contains(t, out, "display:   lun 25/08/2025 14:00")
	assert.Contains(t, out, "día:       1")

	out, err = run(t, "parse", "--ref", "2025-08-24T10:37:15-03:00", "qué precios tienen")
	require.NoError(t, err)
	assert.Contains(t, out, "sin coincidencia")

	_, err = run(t, "parse", "--ref", "ayer", "14hs")
	assert.Error(t, err)
}

func TestArchiveCmds(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dsn := filepath.Join(dir, "sessions.db")
	t.Setenv("SESSION_STORE", config.StoreSQLite)
	t.Setenv("SESSION_DB_PATH", dsn)

	out, err := run(t, "archive", "+54 9 11 2857-1905")
	require.NoError(t, err)
	assert.Contains(t, out, "5491128571905 archivado")

	store, err := session.NewSQLiteStore(dsn)
	require.NoError(t, err)
	st, err := store.Get(context.Background(), "5491128571905")
	require.NoError(t, err)
	assert.True(t, access.IsArchived(st))
	require.NoError(t, store.Close())

	out, err = run(t, "unarchive", "5491128571905")
	require.NoError(t, err)
	assert.Contains(t, out, "desarchivado")

	_, err = run(t, "archive", "abc")
	assert.Error(t, err)
}

func TestArchiveCmdsRejectMemoryStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_STORE", config.StoreMemory)

	out, err := run(t, "archive", "5491128571905")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no persiste")
	assert.NotContains(t, out, "archivado")

	_, err = run(t, "unarchive", "5491128571905")
	assert.Error(t, err)
}

func TestOpenStoreRejectsUnknownKind(t *testing.T) {
	_, err := openStore(context.Background(), &config.Config{SessionStore: "mongo"})
	assert.Error(t, err)
}
