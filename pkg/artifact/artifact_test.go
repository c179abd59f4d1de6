package artifact

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

func TestArtifactHashDependsOnlyOnItsThreeInputs(t *testing.T) {
	h1, err := ArtifactHash("policyhash1", CodeVersion, "sig1")
	require.NoError(t, err)
	h2, err := ArtifactHash("policyhash1", CodeVersion, "sig1")
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	h3, err := ArtifactHash("policyhash2", CodeVersion, "sig1")
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestStoreExistsFalseUntilManifestSaved(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.False(t, store.Exists("abc123"))

	m := &Manifest{DatasetID: "ds1", CreatedAt: time.Now(), Policy: policy.Default(), Seed: 1}
	require.NoError(t, store.SaveManifest("abc123", m))
	require.True(t, store.Exists("abc123"))

	loaded, err := store.GetManifest("abc123")
	require.NoError(t, err)
	require.Equal(t, "ds1", loaded.DatasetID)
}

func TestStoreGetManifestMissingReturnsNilNil(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	m, err := store.GetManifest("nope")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestStoreListAndDeleteArtifacts(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveManifest("h1", &Manifest{DatasetID: "a"}))
	require.NoError(t, store.SaveManifest("h2", &Manifest{DatasetID: "b"}))

	hashes, err := store.ListArtifacts()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"h1", "h2"}, hashes)

	require.NoError(t, store.DeleteArtifact("h1"))
	require.False(t, store.Exists("h1"))
}

func TestWriteShardRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shard-00000.jsonl")

	docs := []document.Document{
		{ID: "1", Text: "hello"},
		{ID: "2", Text: "world"},
	}

	entry, err := WriteShard(path, docs)
	require.NoError(t, err)
	require.Equal(t, 2, entry.DocCount)
	require.NotEmpty(t, entry.Checksum)

	entry2, err := WriteShard(path, docs)
	require.NoError(t, err)
	require.Equal(t, entry.Checksum, entry2.Checksum, "identical content must hash identically")
}
