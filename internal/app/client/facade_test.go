package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"sitekeeper/internal/app/client/config"
	"sitekeeper/internal/app/client/outbox"
	"sitekeeper/internal/app/client/transport"
)

type facadeFixture struct {
	facade  *Facade
	store   *outbox.Store
	monitor *outbox.Monitor
}

func newFacadeFixture(t *testing.T, handler http.Handler, online bool) *facadeFixture {
	t.Helper()

	address := "127.0.0.1:1" // nothing listens here
	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		address = strings.TrimPrefix(server.URL, "http://")
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tc := transport.New(&config.Config{ServerAddress: address}, log)

	store, err := outbox.NewStore(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	monitor := outbox.NewMonitor(online)
	cache := NewCache(store.DB(), time.Hour)

	facade := NewFacade(tc, store, nil, monitor, cache, nil, log)
	facade.SetScope("foreman")

	return &facadeFixture{facade: facade, store: store, monitor: monitor}
}

func TestFacadeOfflinePostQueues(t *testing.T) {
	fx := newFacadeFixture(t, nil, false)

	result, err := fx.facade.Post(context.Background(), "/tasks", map[string]string{"name": "pour slab"})
	require.NoError(t, err)
	require.NotNil(t, result.Queued)
	assert.Nil(t, result.Data)

	assert.NotEmpty(t, result.Queued.QueueID)
	assert.NotEmpty(t, result.Queued.IdempotencyKey)
	// Creates get a placeholder id usable in later offline mutations.
	assert.Equal(t, "offline-"+result.Queued.QueueID, result.Queued.PendingID)

	entries, err := fx.store.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, http.MethodPost, entries[0].Method)
	assert.Equal(t, "/tasks", entries[0].Path)
	assert.Equal(t, outbox.BodyJSON, entries[0].BodyKind)
	assert.JSONEq(t, `{"name":"pour slab"}`, string(entries[0].JSONBody))
}

func TestFacadeOfflineDeleteQueuesWithoutBody(t *testing.T) {
	fx := newFacadeFixture(t, nil, false)

	result, err := fx.facade.Delete(context.Background(), "/photos/p_1")
	require.NoError(t, err)
	require.NotNil(t, result.Queued)
	// Only creates carry a pending id.
	assert.Empty(t, result.Queued.PendingID)

	entries, err := fx.store.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, outbox.BodyNone, entries[0].BodyKind)
}

func TestFacadeOfflineRejectsNonQueueable(t *testing.T) {
	fx := newFacadeFixture(t, nil, false)

	_, err := fx.facade.Post(context.Background(), "/reports", map[string]string{"x": "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotQueueable)

	_, err = fx.facade.Post(context.Background(), "/auth/login", map[string]string{"login": "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotQueueable)

	count, cerr := fx.store.Count()
	require.NoError(t, cerr)
	assert.Equal(t, 0, count)
}

func TestFacadeConnectivityFailureFallsBackToQueue(t *testing.T) {
	// Online per the monitor, but the server is unreachable.
	fx := newFacadeFixture(t, nil, true)

	result, err := fx.facade.Post(context.Background(), "/tasks", map[string]string{"name": "x"})
	require.NoError(t, err)
	require.NotNil(t, result.Queued)

	// The failed live attempt downgrades reachability.
	assert.False(t, fx.monitor.Online())

	// The queued entry keeps the key of the failed live attempt, so a
	// delivery that did reach the server cannot be applied twice.
	entries, lerr := fx.store.ListAll()
	require.NoError(t, lerr)
	require.Len(t, entries, 1)
	assert.Equal(t, result.Queued.IdempotencyKey, entries[0].IdempotencyKey)
}

func TestFacadeConnectivityFailureNonQueueableErrors(t *testing.T) {
	fx := newFacadeFixture(t, nil, true)

	_, err := fx.facade.Post(context.Background(), "/auth/login", map[string]string{"login": "a"})
	require.Error(t, err)
	assert.True(t, outbox.IsConnectivityError(err))
	assert.False(t, fx.monitor.Online())
}

func TestFacadeLivePostPassesThrough(t *testing.T) {
	fx := newFacadeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		w.Write([]byte(`{"success":true,"data":{"id":"t_500"}}`))
	}), true)

	result, err := fx.facade.Post(context.Background(), "/tasks", map[string]string{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, result.Queued)
	assert.JSONEq(t, `{"id":"t_500"}`, string(result.Data))

	count, err := fx.store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFacadeGetCachesAndServesOffline(t *testing.T) {
	payload := `[{"id":"t_500","name":"pour slab"}]`
	fx := newFacadeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":` + payload + `}`))
	}), true)

	data, err := fx.facade.Get(context.Background(), "/tasks")
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(data))

	fx.monitor.SetOnline(false)

	data, err = fx.facade.Get(context.Background(), "/tasks")
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(data))
}

func TestFacadeOfflineGetMissFails(t *testing.T) {
	fx := newFacadeFixture(t, nil, false)

	_, err := fx.facade.Get(context.Background(), "/tasks")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoOfflineData)
}

func TestFacadeOfflineUploadQueuesFormFields(t *testing.T) {
	fx := newFacadeFixture(t, nil, false)

	photo := []byte{0xFF, 0xD8, 0x01}
	fields := []outbox.FormField{
		{Key: "taskId", Kind: outbox.FieldText, Value: "offline-q1"},
		{Key: "photo", Kind: outbox.FieldFile, FileName: "wall.jpg", Data: photo},
	}

	result, err := fx.facade.Upload(context.Background(), "/photos", fields)
	require.NoError(t, err)
	require.NotNil(t, result.Queued)
	assert.NotEmpty(t, result.Queued.PendingID)

	entries, err := fx.store.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, outbox.BodyForm, entries[0].BodyKind)
	require.Len(t, entries[0].FormFields, 2)
	assert.Equal(t, photo, entries[0].FormFields[1].Data)
}

func TestFacadeLiveAPIErrorIsNotQueued(t *testing.T) {
	fx := newFacadeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"error":{"code":"VALIDATION","message":"name is required"}}`))
	}), true)

	_, err := fx.facade.Post(context.Background(), "/tasks", map[string]string{})
	require.Error(t, err)

	var apiErr *outbox.APIError
	require.ErrorAs(t, err, &apiErr)

	// Server rejections are surfaced, never silently queued.
	count, cerr := fx.store.Count()
	require.NoError(t, cerr)
	assert.Equal(t, 0, count)
	assert.True(t, fx.monitor.Online())
}
