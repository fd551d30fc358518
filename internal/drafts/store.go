package drafts

import (
	"errors"
	"strconv"
)

// Store is the key-value cache behind session drafts.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

var errNotConfigured = errors.New("draft store not configured")

// Scoped prefixes every key with a namespace so several users can share one
// backing store without seeing each other's drafts.
type Scoped struct {
	base   Store
	prefix string
}

// ForParticipant scopes a store to one participant.
func ForParticipant(base Store, participantID int) *Scoped {
	return &Scoped{base: base, prefix: "participant:" + strconv.Itoa(participantID) + ":"}
}

func (s *Scoped) Get(key string) ([]byte, bool, error) {
	if s == nil || s.base == nil {
		return nil, false, errNotConfigured
	}
	return s.base.Get(s.prefix + key)
}

func (s *Scoped) Set(key string, value []byte) error {
	if s == nil || s.base == nil {
		return errNotConfigured
	}
	return s.base.Set(s.prefix+key, value)
}

func (s *Scoped) Remove(key string) error {
	if s == nil || s.base == nil {
		return errNotConfigured
	}
	return s.base.Remove(s.prefix + key)
}
