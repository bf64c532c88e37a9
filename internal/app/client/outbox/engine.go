package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/exp/slog"
)

// Requester replays a queued entry against the server, attaching the
// entry's idempotency key. Implemented by the HTTP transport.
type Requester interface {
	Replay(ctx context.Context, entry Entry) (json.RawMessage, error)
}

// Notifier surfaces drain-cycle outcomes to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// DrainResult summarizes one drain cycle.
type DrainResult struct {
	Applied int
	Err     string
}

const unresolvedReferenceMsg = "waiting on a prior offline operation"

// Engine drains the outbox when the network is reachable. Entries are
// replayed strictly in creation order, one at a time; the remap table
// is consulted before and updated after every replay. A failed entry
// blocks everything behind it so that create-before-reference ordering
// is never violated.
type Engine struct {
	store     *Store
	remap     *Table
	monitor   *Monitor
	requester Requester
	notifier  Notifier
	log       *slog.Logger

	mu            sync.RWMutex
	isSyncing     bool
	pendingCount  int
	lastSyncError string
}

func NewEngine(store *Store, remap *Table, monitor *Monitor, requester Requester, notifier Notifier, log *slog.Logger) *Engine {
	engine := &Engine{
		store:     store,
		remap:     remap,
		monitor:   monitor,
		requester: requester,
		notifier:  notifier,
		log:       log.With(slog.String("component", "outbox_engine")),
	}

	monitor.OnTransition(func(online bool) {
		if online {
			go func() {
				if _, err := engine.Drain(context.Background()); err != nil {
					engine.log.Error("drain after reconnect failed", "error", err)
				}
			}()
		}
	})

	return engine
}

// Start refreshes the pending counter and, when entries are already
// waiting and the network is reachable, kicks off an initial drain.
func (e *Engine) Start(ctx context.Context) {
	e.RefreshPending()

	if e.monitor.Online() && e.PendingCount() > 0 {
		go func() {
			if _, err := e.Drain(ctx); err != nil {
				e.log.Error("initial drain failed", "error", err)
			}
		}()
	}
}

// Drain runs one cycle over a snapshot of the queue. A cycle already
// in progress or an offline network makes the call a no-op. The cycle
// never panics or returns mid-queue inconsistencies: every failure is
// classified and terminates the cycle cleanly.
func (e *Engine) Drain(ctx context.Context) (*DrainResult, error) {
	e.mu.Lock()
	if e.isSyncing || !e.monitor.Online() {
		e.mu.Unlock()
		return nil, nil
	}
	e.isSyncing = true
	e.lastSyncError = ""
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.isSyncing = false
		e.mu.Unlock()
	}()

	result := &DrainResult{}

	entries, err := e.store.ListAll()
	if err != nil {
		result.Err = err.Error()
		e.finishCycle(result)
		return result, fmt.Errorf("failed to snapshot outbox: %w", err)
	}

	e.log.Debug("drain cycle started", "pending", len(entries))

	for _, entry := range entries {
		// The monitor may have flipped offline since the snapshot.
		if !e.monitor.Online() {
			break
		}

		rewritten, unresolved, err := RemapReferences(entry, e.remap)
		if err != nil {
			result.Err = err.Error()
			break
		}
		if unresolved != nil {
			// Skipping ahead would risk out-of-order application:
			// later entries may depend on this one's predecessor too.
			e.log.Debug("entry blocked on unresolved reference",
				"entry_id", entry.ID,
				"pending_id", unresolved.String(),
			)
			result.Err = unresolvedReferenceMsg
			break
		}

		data, err := e.requester.Replay(ctx, rewritten)
		if err != nil {
			if IsConnectivityError(err) {
				// Not a failure of the entry: it was never tried from
				// the server's point of view. Retried in full on the
				// next online transition.
				e.log.Info("connectivity lost during drain", "entry_id", entry.ID)
				e.monitor.SetOnline(false)
				break
			}

			entry.RetryCount++
			entry.LastError = err.Error()
			if uerr := e.store.Update(entry); uerr != nil {
				e.log.Error("failed to record replay failure", "entry_id", entry.ID, "error", uerr)
			}
			e.log.Warn("replay rejected by server",
				"entry_id", entry.ID,
				"retry_count", entry.RetryCount,
				"error", err,
			)
			result.Err = err.Error()
			break
		}

		if entry.Method == http.MethodPost {
			if realID := extractAssignedID(data); realID != "" {
				if err := e.remap.Set(PendingID(entry.ID), realID); err != nil {
					e.log.Error("failed to record id mapping", "entry_id", entry.ID, "error", err)
				}
			}
		}

		if err := e.store.Remove(entry.ID); err != nil {
			result.Err = err.Error()
			break
		}
		result.Applied++
	}

	e.finishCycle(result)
	return result, nil
}

func (e *Engine) finishCycle(result *DrainResult) {
	e.RefreshPending()

	e.mu.Lock()
	e.lastSyncError = result.Err
	e.mu.Unlock()

	e.log.Debug("drain cycle finished", "applied", result.Applied, "error", result.Err)

	if e.notifier == nil {
		return
	}
	if result.Applied > 0 {
		e.notifier.Success(fmt.Sprintf("synced %d offline operations", result.Applied))
	}
	if result.Err != "" {
		e.notifier.Error("sync paused: " + result.Err)
	}
}

// RefreshPending recomputes the observable pending counter from the
// store.
func (e *Engine) RefreshPending() {
	count, err := e.store.Count()
	if err != nil {
		e.log.Error("failed to count pending entries", "error", err)
		return
	}

	e.mu.Lock()
	e.pendingCount = count
	e.mu.Unlock()
}

// PendingCount returns the number of queued mutations.
func (e *Engine) PendingCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pendingCount
}

// IsSyncing reports whether a drain cycle is in progress.
func (e *Engine) IsSyncing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isSyncing
}

// LastSyncError returns the terminal error of the most recent cycle,
// empty when clean.
func (e *Engine) LastSyncError() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSyncError
}

// extractAssignedID pulls the server-assigned id out of a create
// response. Every create endpoint exposes the new id in a predictable
// field per the API contract.
func extractAssignedID(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}

	raw, ok := payload["id"]
	if !ok {
		raw, ok = payload["_id"]
	}
	if !ok {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var numeric int64
	if err := json.Unmarshal(raw, &numeric); err == nil {
		return strconv.FormatInt(numeric, 10)
	}
	return ""
}
