package devserver

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Store is the in-memory state of the development stub: good enough
// to exercise the client's outbox end to end, not a real backend.
type Store struct {
	mu     sync.Mutex
	nextID int

	Tasks  map[string]*Task
	Photos map[string]*Photo
	Zones  map[string]*Zone

	tokens map[string]string // token -> login

	// idempotency maps a seen X-Idempotency-Key to the response data
	// of the first delivery, so replays do not create duplicates.
	idempotency map[string]json.RawMessage
}

type Task struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	ZoneID string `json:"zoneId,omitempty"`
}

type Photo struct {
	ID       string `json:"id"`
	TaskID   string `json:"taskId"`
	FileName string `json:"fileName"`
	Size     int    `json:"size"`
	Caption  string `json:"caption,omitempty"`
}

type Zone struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

func NewStore() *Store {
	return &Store{
		Tasks:       make(map[string]*Task),
		Photos:      make(map[string]*Photo),
		Zones:       make(map[string]*Zone),
		tokens:      make(map[string]string),
		idempotency: make(map[string]json.RawMessage),
	}
}

func (s *Store) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s_%d", prefix, s.nextID+499)
}

// Replayed returns the stored response for an already-seen
// idempotency key.
func (s *Store) Replayed(key string) (json.RawMessage, bool) {
	if key == "" {
		return nil, false
	}
	data, ok := s.idempotency[key]
	return data, ok
}

// RememberReplay stores the response produced for an idempotency key.
func (s *Store) RememberReplay(key string, data json.RawMessage) {
	if key == "" {
		return
	}
	s.idempotency[key] = data
}

// IssueToken registers a bearer token for a login.
func (s *Store) IssueToken(token, login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = login
}

// ValidToken reports whether a bearer token was issued by this stub.
func (s *Store) ValidToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

// Lock serializes handler access to the maps.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the handler lock.
func (s *Store) Unlock() { s.mu.Unlock() }
