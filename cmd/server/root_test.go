package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "", "hash-password", "--cost", "4", "s3cret")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret")))

	out, err = run(t, "from-stdin\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = run(t, "", "hash-password")
	require.Error(t, err)
}

func TestMigrateRewritesLegacyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"menu":[{"id":"m1","name":"Soup","price":4}]}`), 0o600))
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))

	out, err := run(t, "", "migrate", "--env-file", filepath.Join(dir, "missing.env"), "--state-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var state models.State
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, models.SchemaVersion, state.Version)
	require.Len(t, state.Menu, 1)
	assert.Equal(t, "Soup", state.Menu[0].Name)
	assert.NotNil(t, state.Orders)
}
