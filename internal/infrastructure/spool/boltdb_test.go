package spool

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "spool.db"), "spool")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func doc(sourceEntryID string) json.RawMessage {
	payload, _ := json.Marshal(map[string]interface{}{
		"confirmationDate": "2020-03-14",
		"caseReference": map[string]interface{}{
			"sourceId":      "source-1",
			"sourceEntryId": sourceEntryID,
		},
	})
	return payload
}

func TestEnqueuePreservesArrivalOrder(t *testing.T) {
	store := newStore(t)
	base := time.Now()

	for i, entry := range []string{"first", "second", "third"} {
		require.NoError(t, store.Enqueue(Record{
			SourceID:   "source-1",
			Doc:        doc(entry),
			ReceivedAt: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	records, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, entry := range []string{"first", "second", "third"} {
		assert.Contains(t, string(records[i].Doc), entry)
	}
}

func TestGetBatchDoesNotConsume(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("a")}))
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("b")}))

	records, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestRemove(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("a")}))
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("b")}))

	records, err := store.GetBatch(10)
	require.NoError(t, err)
	require.NoError(t, store.Remove(records[0]))

	remaining, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Contains(t, string(remaining[0].Doc), "b")
}

func TestRemoveFallsBackToIDLookup(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("a")}))

	records, err := store.GetBatch(10)
	require.NoError(t, err)

	// A record round-tripped through JSON loses its bucket key.
	require.NoError(t, store.Remove(Record{ID: records[0].ID}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeueMovesRecordToBack(t *testing.T) {
	store := newStore(t)
	base := time.Now().Add(-time.Minute)
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("a"), ReceivedAt: base}))
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("b"), ReceivedAt: base.Add(time.Second)}))

	records, err := store.GetBatch(10)
	require.NoError(t, err)

	first := records[0]
	require.NoError(t, store.Remove(first))
	first.Retries++
	require.NoError(t, store.Requeue(first))

	records, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, string(records[0].Doc), "b")
	assert.Contains(t, string(records[1].Doc), "a")
	assert.Equal(t, 1, records[1].Retries)
}

func TestCleanupDropsOldRecords(t *testing.T) {
	store := newStore(t)
	now := time.Now()
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("old"), ReceivedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Record{SourceID: "source-1", Doc: doc("fresh"), ReceivedAt: now}))

	require.NoError(t, store.Cleanup(now.Add(-24*time.Hour)))

	records, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, string(records[0].Doc), "fresh")
}

func TestClosedStoreErrors(t *testing.T) {
	var store *Store
	require.Error(t, store.Enqueue(Record{}))

	_, err := store.GetBatch(10)
	require.Error(t, err)

	_, err = store.Size()
	require.Error(t, err)
}
