package folder

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/client/remote/codec"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/crypto"
)

func createTestStore(t *testing.T, opts codec.Options) *Store {
	t.Helper()

	c, err := codec.New(opts)
	require.NoError(t, err)

	s, err := New("usb", filepath.Join(t.TempDir(), "remote"), c, nil)
	require.NoError(t, err)
	return s
}

func TestStore_ReadMissingCollection(t *testing.T) {
	s := createTestStore(t, codec.Options{})

	items, err := s.ReadRemote(context.Background(), "activities")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, codec.Options{Compression: codec.CompressionSnappy})

	items := []json.RawMessage{
		json.RawMessage(`{"id":"a","version":1}`),
		json.RawMessage(`{"id":"b","version":2}`),
	}
	require.NoError(t, s.WriteRemote(ctx, "activities", items))

	got, err := s.ReadRemote(ctx, "activities")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"id":"b","version":2}`, string(got[1]))

	info, err := os.Stat(filepath.Join(s.Dir(), "activities.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Временные файлы не остаются в каталоге
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_OverwriteReplacesCollection(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, codec.Options{})

	require.NoError(t, s.WriteRemote(ctx, "activities", []json.RawMessage{json.RawMessage(`{"id":"a"}`)}))
	require.NoError(t, s.WriteRemote(ctx, "activities", []json.RawMessage{}))

	got, err := s.ReadRemote(ctx, "activities")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, codec.Options{
		Passphrase: "correct horse battery",
		KDF:        crypto.KDFParams{Time: 1, Memory: 1024, Threads: 1},
	})

	require.NoError(t, s.WriteRemote(ctx, "activities", []json.RawMessage{json.RawMessage(`{"id":"a","title":"Secret ride"}`)}))

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "activities.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Secret ride")

	// Без пароля тот же каталог не читается
	plain, err := codec.New(codec.Options{})
	require.NoError(t, err)
	other, err := New("usb", s.Dir(), plain, nil)
	require.NoError(t, err)

	_, err = other.ReadRemote(ctx, "activities")
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrRemoteIO))
	assert.True(t, errors.Is(err, codec.ErrPassphraseRequired))
}

func TestStore_CorruptedBlob(t *testing.T) {
	s := createTestStore(t, codec.Options{})
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "activities.json"), []byte("not a blob"), 0o600))

	_, err := s.ReadRemote(context.Background(), "activities")
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrRemoteIO))
}

func TestStore_InvalidCollectionName(t *testing.T) {
	s := createTestStore(t, codec.Options{})

	_, err := s.ReadRemote(context.Background(), "../escape")
	assert.Error(t, err)
	assert.Error(t, s.WriteRemote(context.Background(), "a/b", nil))
}

func TestStore_Manifest(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, codec.Options{})

	m, err := s.RemoteManifest(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, s.UpdateManifest(ctx, remote.Manifest{
		Collections:   []remote.CollectionSummary{{Collection: "activities", ContentHash: "sha256-01", Count: 3}},
		AggregateHash: "sha256-02",
	}))

	m, err = s.RemoteManifest(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "sha256-01", m.Hash("activities"))

	// Битый manifest игнорируется
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), manifestFile), []byte("{"), 0o600))
	m, err = s.RemoteManifest(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestFactory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "share")

	store, err := Factory(context.Background(), config.BackendConfig{
		Name:        "share",
		Kind:        Kind,
		Path:        dir,
		Compression: codec.CompressionSnappy,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "share", store.Name())
	assert.DirExists(t, dir)

	_, err = Factory(context.Background(), config.BackendConfig{Name: "bad", Kind: Kind}, nil)
	assert.Error(t, err)

	_, err = Factory(context.Background(), config.BackendConfig{Name: "weak", Kind: Kind, Path: dir, Passphrase: "short"}, nil)
	assert.Error(t, err)
}
