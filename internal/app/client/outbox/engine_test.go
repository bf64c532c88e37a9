package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakeRequester struct {
	mu       sync.Mutex
	replayed []Entry
	respond  func(entry Entry) (json.RawMessage, error)
}

func (f *fakeRequester) Replay(_ context.Context, entry Entry) (json.RawMessage, error) {
	f.mu.Lock()
	f.replayed = append(f.replayed, entry)
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(entry)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeRequester) calls() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.replayed...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) record(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeNotifier) Success(msg string) { f.record("success: " + msg) }
func (f *fakeNotifier) Error(msg string)   { f.record("error: " + msg) }
func (f *fakeNotifier) Info(msg string)    { f.record("info: " + msg) }

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, requester *fakeRequester) (*Engine, *Store, *Table, *Monitor, *fakeNotifier) {
	t.Helper()

	store := newTestStore(t)
	table := newTestTable(t)
	monitor := NewMonitor(true)
	notifier := &fakeNotifier{}
	engine := NewEngine(store, table, monitor, requester, notifier, discardLogger())

	return engine, store, table, monitor, notifier
}

func enqueueJSON(t *testing.T, store *Store, id, method, path, body string, createdAt int64) Entry {
	t.Helper()

	entry := Entry{
		ID:             id,
		IdempotencyKey: NewIdempotencyKey(),
		Method:         method,
		Path:           path,
		BodyKind:       BodyJSON,
		JSONBody:       json.RawMessage(body),
		CreatedAt:      createdAt,
	}
	require.NoError(t, store.Enqueue(entry))
	return entry
}

func TestEngineDrainFIFO(t *testing.T) {
	requester := &fakeRequester{}
	engine, store, _, _, notifier := newTestEngine(t, requester)

	enqueueJSON(t, store, "q1", "POST", "/tasks", `{"name":"first"}`, 1000)
	enqueueJSON(t, store, "q2", "POST", "/tasks", `{"name":"second"}`, 2000)
	enqueueJSON(t, store, "q3", "PATCH", "/tasks/t_1", `{"status":"done"}`, 3000)

	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.Applied)
	assert.Empty(t, result.Err)

	calls := requester.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "q1", calls[0].ID)
	assert.Equal(t, "q2", calls[1].ID)
	assert.Equal(t, "q3", calls[2].ID)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, engine.PendingCount())
	assert.Contains(t, notifier.all(), "success: synced 3 offline operations")
}

func TestEngineDrainRemapsCreatedIDs(t *testing.T) {
	requester := &fakeRequester{
		respond: func(entry Entry) (json.RawMessage, error) {
			if entry.Method == "POST" {
				return json.RawMessage(`{"id":"t_500"}`), nil
			}
			return json.RawMessage(`{}`), nil
		},
	}
	engine, store, table, _, _ := newTestEngine(t, requester)

	enqueueJSON(t, store, "q1", "POST", "/tasks", `{"name":"pour slab"}`, 1000)
	enqueueJSON(t, store, "q2", "PATCH", "/tasks/offline-q1", `{"status":"done"}`, 2000)

	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)

	realID, ok := table.Get("q1")
	require.True(t, ok)
	assert.Equal(t, "t_500", realID)

	calls := requester.calls()
	require.Len(t, calls, 2)
	// The dependent entry must have been replayed with the real id.
	assert.Equal(t, "/tasks/t_500", calls[1].Path)
}

func TestEngineDrainUnresolvedBlocksAndResumes(t *testing.T) {
	requester := &fakeRequester{}
	engine, store, table, _, _ := newTestEngine(t, requester)

	enqueueJSON(t, store, "q2", "POST", "/photos", `{"taskId":"offline-q1"}`, 1000)
	enqueueJSON(t, store, "q3", "POST", "/tasks", `{"name":"after"}`, 2000)

	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, unresolvedReferenceMsg, result.Err)
	assert.Equal(t, unresolvedReferenceMsg, engine.LastSyncError())
	// Nothing behind the blocked entry is attempted.
	assert.Empty(t, requester.calls())
	assert.Equal(t, 2, engine.PendingCount())

	// Once the creating mutation's mapping exists the queue drains.
	require.NoError(t, table.Set("q1", "t_500"))

	result, err = engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Empty(t, engine.LastSyncError())
}

func TestEngineDrainStopsOnServerRejection(t *testing.T) {
	requester := &fakeRequester{
		respond: func(entry Entry) (json.RawMessage, error) {
			if entry.ID == "q1" {
				return nil, &APIError{Status: 422, Code: "VALIDATION", Message: "name is required"}
			}
			return json.RawMessage(`{}`), nil
		},
	}
	engine, store, _, _, notifier := newTestEngine(t, requester)

	first := enqueueJSON(t, store, "q1", "POST", "/tasks", `{}`, 1000)
	enqueueJSON(t, store, "q2", "POST", "/tasks", `{"name":"ok"}`, 2000)

	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Applied)
	assert.NotEmpty(t, result.Err)

	// Only the failing entry was attempted.
	require.Len(t, requester.calls(), 1)

	entries, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].RetryCount)
	assert.NotEmpty(t, entries[0].LastError)
	// Retry bookkeeping never rotates the idempotency key.
	assert.Equal(t, first.IdempotencyKey, entries[0].IdempotencyKey)

	messages := notifier.all()
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "sync paused")
}

func TestEngineDrainConnectivityLoss(t *testing.T) {
	requester := &fakeRequester{
		respond: func(Entry) (json.RawMessage, error) {
			return nil, &ConnectivityError{Err: fmt.Errorf("connection refused")}
		},
	}
	engine, store, _, monitor, _ := newTestEngine(t, requester)

	enqueueJSON(t, store, "q1", "POST", "/tasks", `{"name":"first"}`, 1000)

	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Applied)
	assert.False(t, monitor.Online())

	// A connectivity failure is not the entry's fault: no retry count.
	entries, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].RetryCount)
}

func TestEngineDrainOfflineNoop(t *testing.T) {
	requester := &fakeRequester{}
	engine, store, _, monitor, _ := newTestEngine(t, requester)

	enqueueJSON(t, store, "q1", "POST", "/tasks", `{"name":"first"}`, 1000)
	monitor.SetOnline(false)

	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, requester.calls())
}

func TestEngineDrainSingleFlight(t *testing.T) {
	release := make(chan struct{})
	requester := &fakeRequester{
		respond: func(Entry) (json.RawMessage, error) {
			<-release
			return json.RawMessage(`{}`), nil
		},
	}
	engine, store, _, _, _ := newTestEngine(t, requester)

	enqueueJSON(t, store, "q1", "POST", "/tasks", `{"name":"first"}`, 1000)

	done := make(chan *DrainResult, 1)
	go func() {
		result, _ := engine.Drain(context.Background())
		done <- result
	}()

	require.Eventually(t, engine.IsSyncing, time.Second, 5*time.Millisecond)

	// A second caller joins nothing: the cycle in flight wins.
	result, err := engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)

	close(release)
	first := <-done
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Applied)
	assert.False(t, engine.IsSyncing())
}

func TestExtractAssignedID(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "string id", data: `{"id":"t_500"}`, want: "t_500"},
		{name: "mongo style", data: `{"_id":"64ff00aa"}`, want: "64ff00aa"},
		{name: "numeric id", data: `{"id":42}`, want: "42"},
		{name: "no id", data: `{"name":"x"}`, want: ""},
		{name: "not an object", data: `[1,2]`, want: ""},
		{name: "empty", data: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAssignedID(json.RawMessage(tt.data)))
		})
	}
}
