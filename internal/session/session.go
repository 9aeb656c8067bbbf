// Package session persists the login token, the selected store, and the
// operator toggles across restarts. Single writer, last write wins.
package session

import (
	"github.com/cockroachdb/pebble"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const (
	keyToken       = "session/token"
	keyStore       = "session/selected_store"
	keySound       = "pref/sound"
	keyAutoApprove = "pref/auto_approve"
)

// Store is the on-disk session state.
type Store struct {
	db *pebble.DB
	lg *zap.Logger
}

func Open(lg *zap.Logger, dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open session store")
	}
	return &Store{db: db, lg: lg.Named("session")}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "close session store")
	}
	return nil
}

func (s *Store) get(key string) string {
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			s.lg.Warn("Session read failed", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	out := string(value)
	_ = closer.Close()
	return out
}

func (s *Store) set(key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (s *Store) Token() string             { return s.get(keyToken) }
func (s *Store) SetToken(tok string) error { return s.set(keyToken, tok) }
func (s *Store) ClearToken() error         { return s.delete(keyToken) }

func (s *Store) SelectedStore() string          { return s.get(keyStore) }
func (s *Store) SetSelectedStore(id string) error { return s.set(keyStore, id) }

// SoundEnabled defaults to true until the operator turns it off.
func (s *Store) SoundEnabled() bool {
	return s.get(keySound) != "false"
}

func (s *Store) SetSoundEnabled(on bool) error {
	return s.set(keySound, boolValue(on))
}

// AutoApprove defaults to false; approving orders unattended is opt-in.
func (s *Store) AutoApprove() bool {
	return s.get(keyAutoApprove) == "true"
}

func (s *Store) SetAutoApprove(on bool) error {
	return s.set(keyAutoApprove, boolValue(on))
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
