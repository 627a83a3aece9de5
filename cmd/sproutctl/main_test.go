package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// useTempStore points the CLI at a fresh sqlite file.
func useTempStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sprout.db")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("STORE_PATH", path)
	t.Setenv("STORE_SECRET", "")
	t.Setenv("MISSION_CATALOG_FILE", "")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd, closeEnv := newRootCmd()
	defer func() { assert.NoError(t, closeEnv()) }()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMissionsRotateThenKeys(t *testing.T) {
	useTempStore(t)

	out, err := run(t, "missions", "rotate")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "next rotation in")
	assert.Equal(t, 3+2, len(strings.Split(strings.TrimSpace(out), "\n")), "header, three missions, countdown")

	out, err = run(t, "store", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "active_missions")
	assert.Contains(t, out, "missions_last_rotate")
}

func TestSessionStatus(t *testing.T) {
	useTempStore(t)

	out, err := run(t, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status: unauthenticated")

	// Seed credentials the way the server's login would.
	cfg, err := config.Load()
	require.NoError(t, err)
	store, err := kvstore.Open(cfg)
	require.NoError(t, err)
	creds := credentials.NewRepository(store)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-9",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, creds.SetToken(ctx, token))
	require.NoError(t, creds.SetVerify(ctx, "v"))
	require.NoError(t, creds.SetIP(ctx, "10.0.0.1"))
	require.NoError(t, store.Close())

	out, err = run(t, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status: authenticated")
	assert.Contains(t, out, "subject: user-9")

	out, err = run(t, "session", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")

	out, err = run(t, "store", "keys")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestStoreClearNeedsConfirmation(t *testing.T) {
	useTempStore(t)

	_, err := run(t, "missions", "rotate")
	require.NoError(t, err)

	_, err = run(t, "store", "clear")
	assert.ErrorContains(t, err, "--yes")

	out, err := run(t, "store", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "store cleared")

	out, err = run(t, "store", "keys")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestUnknownBackendFailsFast(t *testing.T) {
	t.Setenv("STORE_BACKEND", "floppy")
	_, err := run(t, "store", "keys")
	assert.Error(t, err)
}
