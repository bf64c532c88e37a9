package outbox

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BodyKind discriminates the payload representation of a queued request.
type BodyKind string

const (
	BodyNone BodyKind = "none"
	BodyJSON BodyKind = "json"
	BodyForm BodyKind = "form"
)

// FieldKind discriminates text and file multipart fields.
type FieldKind string

const (
	FieldText FieldKind = "text"
	FieldFile FieldKind = "file"
)

// FormField is one multipart field of a queued request. File fields
// retain the raw bytes and the original filename so the request body
// can be reconstructed exactly on replay.
type FormField struct {
	Key      string    `json:"key"`
	Kind     FieldKind `json:"kind"`
	Value    string    `json:"value,omitempty"`
	FileName string    `json:"fileName,omitempty"`
	Data     []byte    `json:"data,omitempty"`
}

// Entry is one pending mutation awaiting replay. Entries are treated
// as immutable value objects: remapping produces a rewritten copy and
// only the sync engine updates RetryCount and LastError.
type Entry struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	BodyKind       BodyKind        `json:"bodyKind"`
	JSONBody       json.RawMessage `json:"jsonBody,omitempty"`
	FormFields     []FormField     `json:"formFields,omitempty"`
	CreatedAt      int64           `json:"createdAt"`
	RetryCount     int             `json:"retryCount"`
	LastError      string          `json:"lastError,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	clone := e
	if e.JSONBody != nil {
		clone.JSONBody = append(json.RawMessage(nil), e.JSONBody...)
	}
	if e.FormFields != nil {
		clone.FormFields = make([]FormField, len(e.FormFields))
		for i, field := range e.FormFields {
			clone.FormFields[i] = field
			if field.Data != nil {
				clone.FormFields[i].Data = append([]byte(nil), field.Data...)
			}
		}
	}
	return clone
}

// QueuedResult acknowledges a mutation that was stored for later
// replay instead of being executed live.
type QueuedResult struct {
	QueueID        string `json:"queueId"`
	PendingID      string `json:"pendingId,omitempty"`
	QueuedAt       int64  `json:"queuedAt"`
	Method         string `json:"method"`
	Path           string `json:"path"`
	IdempotencyKey string `json:"idempotencyKey"`
}

const pendingPrefix = "offline-"

// PendingID is a placeholder identifier for a resource created while
// offline, before the server has assigned a real id. The value is the
// queue entry id of the creating mutation; the wire form is
// "offline-<queueEntryID>".
type PendingID string

func (p PendingID) String() string {
	return pendingPrefix + string(p)
}

// ParsePendingID reports whether s has the pending-id wire shape and
// returns the parsed id if so.
func ParsePendingID(s string) (PendingID, bool) {
	rest, ok := strings.CutPrefix(s, pendingPrefix)
	if !ok || rest == "" {
		return "", false
	}
	return PendingID(rest), true
}

// NewQueueID generates a locally unique, roughly monotonic queue
// entry id.
func NewQueueID() string {
	return fmt.Sprintf("%d-%08x", time.Now().UnixMilli(), rand.Uint32())
}

// NewIdempotencyKey generates the deduplication token attached to
// every replay attempt of one logical mutation. The key is generated
// once at enqueue time and never regenerated on retry.
func NewIdempotencyKey() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// Time plus pseudo-random fallback when the entropy source fails.
		return "idem-" + NewQueueID()
	}
	return id.String()
}
