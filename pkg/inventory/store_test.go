package inventory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	watcherrors "github.com/jaydeluca/collector-watcher/pkg/errors"
	"github.com/jaydeluca/collector-watcher/pkg/version"
)

func testInventory(distribution string, v version.Version, names ...string) *Inventory {
	inv := New(distribution, v, "opentelemetry-collector-contrib")
	for _, name := range names {
		inv.Components[component.TypeReceiver] = append(inv.Components[component.TypeReceiver],
			component.Record{
				Name:          name,
				Type:          strings.TrimSuffix(name, "receiver"),
				Class:         component.TypeReceiver,
				Distributions: []string{distribution},
				Stability:     map[string]component.StabilityLevel{"traces": component.StabilityAlpha},
			})
	}
	return inv
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	inv := testInventory("contrib", version.New(0, 112, 0), "otlpreceiver", "zipkinreceiver")

	written, err := store.Write(inv)
	require.NoError(t, err)
	assert.True(t, written)

	loaded, err := store.Load("contrib", version.New(0, 112, 0))
	require.NoError(t, err)

	assert.Equal(t, "contrib", loaded.Distribution)
	assert.Equal(t, "opentelemetry-collector-contrib", loaded.Repository)

	records := loaded.Records(component.TypeReceiver)
	require.Len(t, records, 2)
	assert.Equal(t, "otlpreceiver", records[0].Name)
	assert.Equal(t, component.StabilityAlpha, records[0].Stability["traces"])
	assert.Equal(t, []string{"contrib"}, records[0].Distributions)
}

func TestWriteDeterministicAcrossDiscoveryOrder(t *testing.T) {
	a := testInventory("contrib", version.New(0, 112, 0), "zipkinreceiver", "otlpreceiver", "jaegerreceiver")
	b := testInventory("contrib", version.New(0, 112, 0), "jaegerreceiver", "zipkinreceiver", "otlpreceiver")

	dataA, err := a.marshalType(component.TypeReceiver)
	require.NoError(t, err)
	dataB, err := b.marshalType(component.TypeReceiver)
	require.NoError(t, err)

	assert.Equal(t, dataA, dataB, "serialization must not depend on discovery order")
}

func TestWriteReleaseImmutability(t *testing.T) {
	store := NewStore(t.TempDir())
	v := version.New(0, 112, 0)

	written, err := store.Write(testInventory("contrib", v, "otlpreceiver"))
	require.NoError(t, err)
	assert.True(t, written)

	// Identical content is a no-op.
	written, err = store.Write(testInventory("contrib", v, "otlpreceiver"))
	require.NoError(t, err)
	assert.False(t, written)

	// Different content is a conflict.
	_, err = store.Write(testInventory("contrib", v, "otlpreceiver", "newreceiver"))
	require.Error(t, err)
	assert.True(t, watcherrors.IsCode(err, watcherrors.ErrCodeImmutableConflict))

	// The stored release is untouched.
	loaded, err := store.Load("contrib", v)
	require.NoError(t, err)
	assert.Len(t, loaded.Records(component.TypeReceiver), 1)
}

func TestWriteSnapshotReplacement(t *testing.T) {
	store := NewStore(t.TempDir())

	release := version.New(0, 112, 0)
	_, err := store.Write(testInventory("contrib", release, "otlpreceiver"))
	require.NoError(t, err)

	oldSnapshot := version.Version{Major: 0, Minor: 113, Snapshot: true}
	_, err = store.Write(testInventory("contrib", oldSnapshot, "otlpreceiver"))
	require.NoError(t, err)

	newSnapshot := version.Version{Major: 0, Minor: 114, Snapshot: true}
	_, err = store.Write(testInventory("contrib", newSnapshot, "otlpreceiver", "newreceiver"))
	require.NoError(t, err)

	assert.False(t, store.VersionExists("contrib", oldSnapshot), "old snapshot must be replaced")
	assert.True(t, store.VersionExists("contrib", newSnapshot))
	assert.True(t, store.VersionExists("contrib", release), "releases must be untouched")
}

func TestSnapshotReplacementLeavesOtherDistributionsAlone(t *testing.T) {
	store := NewStore(t.TempDir())

	coreSnapshot := version.Version{Major: 0, Minor: 113, Snapshot: true}
	_, err := store.Write(testInventory("core", coreSnapshot, "otlpreceiver"))
	require.NoError(t, err)

	contribSnapshot := version.Version{Major: 0, Minor: 114, Snapshot: true}
	_, err = store.Write(testInventory("contrib", contribSnapshot, "otlpreceiver"))
	require.NoError(t, err)

	assert.True(t, store.VersionExists("core", coreSnapshot))
}

func TestLoadMissingVersion(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("contrib", version.New(0, 112, 0))
	require.Error(t, err)
	assert.True(t, watcherrors.IsCode(err, watcherrors.ErrCodeNotFound))
}

func TestLoadBestAvailable(t *testing.T) {
	store := NewStore(t.TempDir())
	for _, v := range []version.Version{
		version.New(0, 110, 0),
		version.New(0, 112, 0),
		version.New(0, 114, 0),
	} {
		_, err := store.Write(testInventory("contrib", v, "otlpreceiver"))
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		target   version.Version
		expected version.Version
	}{
		{name: "exact match", target: version.New(0, 112, 0), expected: version.New(0, 112, 0)},
		{name: "falls back to newest not newer than target", target: version.New(0, 113, 0), expected: version.New(0, 112, 0)},
		{name: "all stored newer falls back to oldest", target: version.New(0, 100, 0), expected: version.New(0, 110, 0)},
		{name: "target past everything", target: version.New(1, 0, 0), expected: version.New(0, 114, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, loaded, err := store.LoadBestAvailable("contrib", tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loaded)
			assert.Equal(t, tt.expected, inv.Version)
		})
	}
}

func TestLoadBestAvailableEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	_, _, err := store.LoadBestAvailable("contrib", version.New(0, 112, 0))
	require.Error(t, err)
	assert.True(t, watcherrors.IsCode(err, watcherrors.ErrCodeNotFound))
}

func TestListVersions(t *testing.T) {
	store := NewStore(t.TempDir())
	snapshot := version.Version{Major: 0, Minor: 113, Snapshot: true}
	for _, v := range []version.Version{version.New(0, 110, 0), snapshot, version.New(0, 112, 0)} {
		_, err := store.Write(testInventory("contrib", v, "otlpreceiver"))
		require.NoError(t, err)
	}

	// An unrelated directory must be ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root, "contrib", "notes"), 0o755))

	versions := store.ListVersions("contrib")
	require.Len(t, versions, 3)
	assert.Equal(t, snapshot, versions[0])
	assert.Equal(t, version.New(0, 112, 0), versions[1])
	assert.Equal(t, version.New(0, 110, 0), versions[2])
}

func TestWriteLeavesNoStagingBehind(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Write(testInventory("contrib", version.New(0, 112, 0), "otlpreceiver"))
	require.NoError(t, err)

	entries, err := os.ReadDir(store.Root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".staging-"),
			"staging directory %s left behind", entry.Name())
	}
}

func TestWriteProducesExpectedLayout(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Write(testInventory("contrib", version.New(0, 112, 0), "otlpreceiver"))
	require.NoError(t, err)

	for _, ct := range component.Types {
		path := filepath.Join(store.Root, "contrib", "v0.112.0", string(ct)+".yaml")
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, "expected %s", path)
	}

	data, err := os.ReadFile(filepath.Join(store.Root, "contrib", "v0.112.0", "receiver.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "distribution: contrib")
	assert.Contains(t, content, "version: v0.112.0")
	assert.Contains(t, content, "component_type: receiver")
	assert.Contains(t, content, "name: otlpreceiver")
}

func TestWritePublishesWorldReadableDirectory(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Write(testInventory("contrib", version.New(0, 112, 0), "otlpreceiver"))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(store.Root, "contrib", "v0.112.0"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm(),
		"published version directory must be readable by other users")
}
