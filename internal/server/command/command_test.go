package command

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitsync/internal/server/handlers"
	"github.com/iudanet/fitsync/pkg/api"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// writeConfig создает конфиг сервера во временном каталоге
func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	content := "jwt_secret: " + testSecret + "\n" +
		"db_path: " + filepath.Join(dir, "server.db") + "\n" +
		"token_ttl: 2h\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := Execute(context.Background(), &out, args, "test")
	return out.String(), err
}

func TestToken_IssuesValidToken(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "token", "--config", cfgPath, "--user", "alice")
	require.NoError(t, err)

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "alice", resp.UserID)
	assert.Equal(t, int64((2 * time.Hour).Seconds()), resp.ExpiresIn)

	claims, err := handlers.ValidateAccessToken(handlers.JWTConfig{Secret: []byte(testSecret)}, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
}

func TestToken_CustomTTL(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "token", "-c", cfgPath, "-u", "alice", "--ttl", "10m")
	require.NoError(t, err)

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(600), resp.ExpiresIn)
}

func TestToken_Errors(t *testing.T) {
	cfgPath := writeConfig(t)

	_, err := run(t, "token", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "user" not set`)

	_, err = run(t, "token", "--config", cfgPath, "--user", "bad/name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user")

	_, err = run(t, "token", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--user", "alice")
	require.Error(t, err)
}

func TestUsers(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "users", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No users yet.")

	_, err = run(t, "token", "--config", cfgPath, "--user", "bob")
	require.NoError(t, err)
	_, err = run(t, "token", "--config", cfgPath, "--user", "alice")
	require.NoError(t, err)

	out, err = run(t, "users", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "LAST SYNC")
	assert.Contains(t, out, "never")

	aliceAt := bytes.Index([]byte(out), []byte("alice"))
	bobAt := bytes.Index([]byte(out), []byte("bob"))
	require.Positive(t, aliceAt)
	require.Positive(t, bobAt)
	assert.Less(t, aliceAt, bobAt, "users are listed by id")
}

func TestServe_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt_secret: short\n"), 0o600))

	_, err := run(t, "serve", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret must be at least 32 characters")
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
