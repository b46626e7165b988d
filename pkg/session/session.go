package session

import (
	"encoding/json"
	"maps"
)

// Session is the per-request key-value state addressed by a cookie.
// A Session is not safe for concurrent use; it lives for one request.
type Session struct {
	id   string
	data map[string]any
}

// New returns a session with the given id and a copy of data.
func New(id string, data map[string]any) *Session {
	s := &Session{id: id, data: make(map[string]any, len(data))}
	maps.Copy(s.data, data)
	return s
}

// ID returns the session id. Cookie-only sessions have an empty id.
func (s *Session) ID() string {
	return s.id
}

// Get returns the raw value stored under key, or nil.
func (s *Session) Get(key string) any {
	return s.data[key]
}

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.data[key] = value
}

// Unset removes key.
func (s *Session) Unset(key string) {
	delete(s.data, key)
}

// Data returns a copy of the session values.
func (s *Session) Data() map[string]any {
	return maps.Clone(s.data)
}

func (s *Session) marshal() ([]byte, error) {
	return json.Marshal(s.data)
}

func unmarshalData(raw []byte) (map[string]any, error) {
	data := make(map[string]any)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}
