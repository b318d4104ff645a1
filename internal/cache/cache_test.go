package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	store.Put("finsight:test:key", []byte("payload"))

	got, ok := store.Get("finsight:test:key", time.Hour)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), got)
}

func TestGetMissOnUnknownKey(t *testing.T) {
	store := openTestStore(t)

	_, ok := store.Get("finsight:absent", time.Hour)
	require.False(t, ok)
}

func TestGetExpiresByReadSideTTL(t *testing.T) {
	store := openTestStore(t)

	written := time.Now().Add(-2 * time.Hour)
	store.putAt("finsight:old", []byte("stale"), written)

	_, ok := store.Get("finsight:old", time.Hour)
	require.False(t, ok)

	// The same entry is fresh under a longer window.
	got, ok := store.Get("finsight:old", 3*time.Hour)
	require.True(t, ok)
	require.Equal(t, []byte("stale"), got)
}

func TestPutReplacesAtomically(t *testing.T) {
	store := openTestStore(t)

	store.Put("finsight:key", []byte("v1"))
	store.Put("finsight:key", []byte("v2"))

	got, ok := store.Get("finsight:key", time.Hour)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), got)
}

func TestNilStoreIsDisabledCache(t *testing.T) {
	var store *Store

	store.Put("finsight:key", []byte("payload"))
	_, ok := store.Get("finsight:key", time.Hour)
	require.False(t, ok)
	require.NoError(t, store.Close())
}

func TestGetRejectsNonPositiveTTL(t *testing.T) {
	store := openTestStore(t)
	store.Put("finsight:key", []byte("payload"))

	_, ok := store.Get("finsight:key", 0)
	require.False(t, ok)
}

func TestOnDiskPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	store.Put("finsight:disk", []byte("payload"))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get("finsight:disk", time.Hour)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), got)
}

func TestPutStampsWithInjectedClock(t *testing.T) {
	store := openTestStore(t)
	store.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	store.Put("finsight:backdated", []byte("payload"))
	store.now = time.Now

	_, ok := store.Get("finsight:backdated", time.Hour)
	require.False(t, ok)

	got, ok := store.Get("finsight:backdated", 3*time.Hour)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), got)
}
