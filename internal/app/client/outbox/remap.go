package outbox

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// referenceKeys are the body fields that may point at another
// resource and therefore can carry a pending offline id.
var referenceKeys = map[string]bool{
	"taskId":   true,
	"zoneId":   true,
	"parentId": true,
}

// Table persists the mapping from pending offline ids to the real ids
// the server assigned once the creating mutation was replayed. The
// mapping grows monotonically and is never pruned; it lives next to
// the application preferences, outside the queue store's transactions.
type Table struct {
	mu   sync.RWMutex
	path string
	ids  map[string]string
}

// OpenTable loads the persisted mapping document, starting empty when
// none exists yet.
func OpenTable(path string) (*Table, error) {
	table := &Table{
		path: path,
		ids:  make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return table, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read remap table: %w", err)
	}

	if err := json.Unmarshal(data, &table.ids); err != nil {
		return nil, fmt.Errorf("failed to parse remap table: %w", err)
	}

	return table, nil
}

// Get returns the server-assigned id recorded for a pending id.
func (t *Table) Get(id PendingID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	realID, ok := t.ids[string(id)]
	return realID, ok
}

// Set records a newly learned id correspondence and persists the
// document.
func (t *Table) Set(id PendingID, realID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ids[string(id)] = realID

	data, err := json.MarshalIndent(t.ids, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize remap table: %w", err)
	}

	if err := os.WriteFile(t.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write remap table: %w", err)
	}

	return nil
}

// Len returns the number of recorded correspondences.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.ids)
}

// RemapReferences rewrites every resolved pending id found in the
// entry's path, JSON body and multipart text fields into the real id
// recorded in the table. The input entry is never mutated. When a
// pending id has no recorded mapping yet, the original entry is
// returned together with the first unresolved id: the entry is not
// replayable this pass.
func RemapReferences(entry Entry, table *Table) (Entry, *PendingID, error) {
	rewritten := entry.Clone()

	// A single trailing id segment may reference an offline-created
	// resource, e.g. PATCH /tasks/offline-<id>.
	path, query, hasQuery := strings.Cut(rewritten.Path, "?")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		if pending, ok := ParsePendingID(path[idx+1:]); ok {
			realID, found := table.Get(pending)
			if !found {
				return entry, &pending, nil
			}
			path = path[:idx+1] + realID
			rewritten.Path = path
			if hasQuery {
				rewritten.Path += "?" + query
			}
		}
	}

	if rewritten.BodyKind == BodyJSON && len(rewritten.JSONBody) > 0 {
		var body any
		if err := json.Unmarshal(rewritten.JSONBody, &body); err != nil {
			return entry, nil, fmt.Errorf("failed to parse queued body: %w", err)
		}

		changed, unresolved := remapValue(body, table)
		if unresolved != nil {
			return entry, unresolved, nil
		}
		if changed {
			data, err := json.Marshal(body)
			if err != nil {
				return entry, nil, fmt.Errorf("failed to serialize remapped body: %w", err)
			}
			rewritten.JSONBody = data
		}
	}

	if rewritten.BodyKind == BodyForm {
		for i, field := range rewritten.FormFields {
			if field.Kind != FieldText || !referenceKeys[field.Key] {
				continue
			}
			pending, ok := ParsePendingID(field.Value)
			if !ok {
				continue
			}
			realID, found := table.Get(pending)
			if !found {
				return entry, &pending, nil
			}
			rewritten.FormFields[i].Value = realID
		}
	}

	return rewritten, nil, nil
}

// remapValue walks a decoded JSON value in place, substituting real
// ids for resolved pending ids under known reference keys.
func remapValue(value any, table *Table) (bool, *PendingID) {
	switch v := value.(type) {
	case map[string]any:
		changed := false
		for key, nested := range v {
			if str, ok := nested.(string); ok && referenceKeys[key] {
				pending, isPending := ParsePendingID(str)
				if !isPending {
					continue
				}
				realID, found := table.Get(pending)
				if !found {
					return false, &pending
				}
				v[key] = realID
				changed = true
				continue
			}
			nestedChanged, unresolved := remapValue(nested, table)
			if unresolved != nil {
				return false, unresolved
			}
			changed = changed || nestedChanged
		}
		return changed, nil
	case []any:
		changed := false
		for _, item := range v {
			itemChanged, unresolved := remapValue(item, table)
			if unresolved != nil {
				return false, unresolved
			}
			changed = changed || itemChanged
		}
		return changed, nil
	default:
		return false, nil
	}
}
