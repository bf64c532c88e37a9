package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"sitekeeper/internal/app/client/outbox"
	"sitekeeper/internal/app/client/transport"
)

var (
	// ErrNotQueueable means a mutation cannot be performed offline:
	// the caller gets a hard error instead of a silent drop.
	ErrNotQueueable = errors.New("operation is not available offline")

	// ErrNoOfflineData means a GET had no fresh cached response to
	// serve while offline.
	ErrNoOfflineData = errors.New("no offline data available")
)

// Result is the outcome of a mutating facade call: live response data,
// or a queued acknowledgement when the mutation was stored for later
// replay.
type Result struct {
	Data   json.RawMessage
	Queued *outbox.QueuedResult
}

// Facade is the single entry point for API calls. Per call it decides
// whether to go live, queue for the outbox, or serve from the read
// cache.
type Facade struct {
	transport *transport.Client
	store     *outbox.Store
	engine    *outbox.Engine
	monitor   *outbox.Monitor
	cache     *Cache
	notifier  outbox.Notifier
	log       *slog.Logger
	scope     string
}

// NewFacade wires the facade. store, engine and cache may be nil when
// local storage is unavailable; the facade then degrades to live-only
// operation.
func NewFacade(t *transport.Client, store *outbox.Store, engine *outbox.Engine, monitor *outbox.Monitor, cache *Cache, notifier outbox.Notifier, log *slog.Logger) *Facade {
	return &Facade{
		transport: t,
		store:     store,
		engine:    engine,
		monitor:   monitor,
		cache:     cache,
		notifier:  notifier,
		log:       log.With(slog.String("component", "api_facade")),
	}
}

// SetScope sets the acting identity that keys the read cache.
func (f *Facade) SetScope(scope string) {
	f.scope = scope
}

// Get executes a read. Offline, a fresh cached response is served;
// otherwise the call fails with ErrNoOfflineData.
func (f *Facade) Get(ctx context.Context, path string) (json.RawMessage, error) {
	path = outbox.NormalizePath(path)

	if !f.monitor.Online() {
		return f.cachedGet(path)
	}

	data, err := f.transport.DoJSON(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		if outbox.IsConnectivityError(err) {
			f.monitor.SetOnline(false)
			return f.cachedGet(path)
		}
		return nil, err
	}

	if f.cache != nil {
		if cerr := f.cache.Put(f.scope, path, data); cerr != nil {
			f.log.Warn("failed to cache response", "path", path, "error", cerr)
		}
	}

	return data, nil
}

func (f *Facade) cachedGet(path string) (json.RawMessage, error) {
	if f.cache == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOfflineData, path)
	}

	data, hit, err := f.cache.Get(f.scope, path)
	if err != nil {
		f.log.Warn("cache lookup failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrNoOfflineData, path)
	}
	if !hit {
		return nil, fmt.Errorf("%w: %s", ErrNoOfflineData, path)
	}

	return data, nil
}

func (f *Facade) Post(ctx context.Context, path string, body any) (Result, error) {
	return f.mutate(ctx, http.MethodPost, path, body)
}

func (f *Facade) Put(ctx context.Context, path string, body any) (Result, error) {
	return f.mutate(ctx, http.MethodPut, path, body)
}

func (f *Facade) Patch(ctx context.Context, path string, body any) (Result, error) {
	return f.mutate(ctx, http.MethodPatch, path, body)
}

func (f *Facade) Delete(ctx context.Context, path string) (Result, error) {
	return f.mutate(ctx, http.MethodDelete, path, nil)
}

func (f *Facade) mutate(ctx context.Context, method, path string, body any) (Result, error) {
	path = outbox.NormalizePath(path)
	canQueue := f.store != nil && outbox.CanQueue(method, path)

	if !f.monitor.Online() {
		if !canQueue {
			return Result{}, fmt.Errorf("%w: %s %s", ErrNotQueueable, method, path)
		}
		return f.enqueueJSON(method, path, body, outbox.NewIdempotencyKey())
	}

	idempotencyKey := ""
	if canQueue {
		idempotencyKey = outbox.NewIdempotencyKey()
	}

	data, err := f.transport.DoJSON(ctx, method, path, body, idempotencyKey)
	if err != nil {
		if outbox.IsConnectivityError(err) {
			f.monitor.SetOnline(false)
			if canQueue {
				return f.enqueueJSON(method, path, body, idempotencyKey)
			}
		}
		return Result{}, err
	}

	return Result{Data: data}, nil
}

// Upload executes a multipart mutation (e.g. a photo with its task
// reference), queueing it like any other eligible mutation when the
// network is down.
func (f *Facade) Upload(ctx context.Context, path string, fields []outbox.FormField) (Result, error) {
	path = outbox.NormalizePath(path)
	canQueue := f.store != nil && outbox.CanQueue(http.MethodPost, path)

	if !f.monitor.Online() {
		if !canQueue {
			return Result{}, fmt.Errorf("%w: POST %s", ErrNotQueueable, path)
		}
		return f.enqueueForm(http.MethodPost, path, fields, outbox.NewIdempotencyKey())
	}

	idempotencyKey := ""
	if canQueue {
		idempotencyKey = outbox.NewIdempotencyKey()
	}

	data, err := f.transport.DoForm(ctx, http.MethodPost, path, fields, idempotencyKey)
	if err != nil {
		if outbox.IsConnectivityError(err) {
			f.monitor.SetOnline(false)
			if canQueue {
				return f.enqueueForm(http.MethodPost, path, fields, idempotencyKey)
			}
		}
		return Result{}, err
	}

	return Result{Data: data}, nil
}

func (f *Facade) enqueueJSON(method, path string, body any, idempotencyKey string) (Result, error) {
	entry := outbox.Entry{
		ID:             outbox.NewQueueID(),
		IdempotencyKey: idempotencyKey,
		Method:         method,
		Path:           path,
		BodyKind:       outbox.BodyNone,
		CreatedAt:      time.Now().UnixMilli(),
	}

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("failed to serialize body for queueing: %w", err)
		}
		entry.BodyKind = outbox.BodyJSON
		entry.JSONBody = jsonBody
	}

	return f.enqueue(entry)
}

func (f *Facade) enqueueForm(method, path string, fields []outbox.FormField, idempotencyKey string) (Result, error) {
	entry := outbox.Entry{
		ID:             outbox.NewQueueID(),
		IdempotencyKey: idempotencyKey,
		Method:         method,
		Path:           path,
		BodyKind:       outbox.BodyForm,
		FormFields:     fields,
		CreatedAt:      time.Now().UnixMilli(),
	}

	return f.enqueue(entry)
}

func (f *Facade) enqueue(entry outbox.Entry) (Result, error) {
	if err := f.store.Enqueue(entry); err != nil {
		return Result{}, err
	}
	if f.engine != nil {
		f.engine.RefreshPending()
	}

	f.log.Info("mutation queued for replay",
		"queue_id", entry.ID,
		"method", entry.Method,
		"path", entry.Path,
	)
	if f.notifier != nil {
		f.notifier.Info("offline: operation saved and will sync automatically")
	}

	queued := &outbox.QueuedResult{
		QueueID:        entry.ID,
		QueuedAt:       entry.CreatedAt,
		Method:         entry.Method,
		Path:           entry.Path,
		IdempotencyKey: entry.IdempotencyKey,
	}
	if entry.Method == http.MethodPost {
		queued.PendingID = outbox.PendingID(entry.ID).String()
	}

	return Result{Queued: queued}, nil
}
