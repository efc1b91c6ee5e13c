//go:generate go run go.uber.org/mock/mockgen -source=state.go -destination=../mocks/mock_state_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"pajal/domain"
	"pajal/errors"
)

const (
	CollectionClasses       = "classes"
	CollectionNotifications = "notifications"
	CollectionUsers         = "users"
	CollectionPreferences   = "preferences"
	CollectionLoginHistory  = "login_history"
	CollectionPictures      = "pictures"
)

const (
	classesVersion = 2
	usersVersion   = 2
	defaultVersion = 1
)

// State is the whole persisted snapshot of the core.
type State struct {
	Classes       []domain.ClassSession
	Notifications []domain.Notification
	Users         []domain.UserAccount
	Preferences   map[string]domain.Preferences
	LoginHistory  []string
}

// Empty reports whether nothing was ever stored.
func (s State) Empty() bool {
	return len(s.Users) == 0 && len(s.Classes) == 0
}

type IStateRepository interface {
	LoadState() (State, error)
	SaveState(state State) error
	SavePicture(userID string, data []byte) error
	LoadPicture(userID string) ([]byte, error)
}

// envelope tags every stored collection with its schema version.
type envelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

type StateRepository struct {
	store IStore
	log   *slog.Logger
}

func NewStateRepository(store IStore, log *slog.Logger) *StateRepository {
	return &StateRepository{store: store, log: log}
}

// LoadState reads every collection and upgrades legacy shapes. Upgraded
// collections are written back once so the migration does not run again.
func (r *StateRepository) LoadState() (State, error) {
	var state State
	upgraded := false

	env, err := r.read(Key{Collection: CollectionClasses})
	if err != nil {
		return State{}, err
	}
	if env != nil {
		classes, migrated, err := decodeClasses(*env)
		if err != nil {
			return State{}, fmt.Errorf("decoding classes: %w", err)
		}
		state.Classes, upgraded = classes, upgraded || migrated
	}

	env, err = r.read(Key{Collection: CollectionUsers})
	if err != nil {
		return State{}, err
	}
	if env != nil {
		users, migrated, err := decodeUsers(*env)
		if err != nil {
			return State{}, fmt.Errorf("decoding users: %w", err)
		}
		state.Users, upgraded = users, upgraded || migrated
	}

	if err = r.readItems(Key{Collection: CollectionNotifications}, &state.Notifications); err != nil {
		return State{}, err
	}
	if err = r.readItems(Key{Collection: CollectionLoginHistory}, &state.LoginHistory); err != nil {
		return State{}, err
	}

	state.Preferences = make(map[string]domain.Preferences)
	raw, err := r.store.Scan(CollectionPreferences)
	if err != nil {
		return State{}, fmt.Errorf("scanning preferences: %w", err)
	}
	for owner, value := range raw {
		var prefEnv envelope
		var prefs domain.Preferences
		if err = json.Unmarshal(value, &prefEnv); err != nil {
			return State{}, fmt.Errorf("decoding preferences of %s: %w", owner, err)
		}
		if err = json.Unmarshal(prefEnv.Items, &prefs); err != nil {
			return State{}, fmt.Errorf("decoding preferences of %s: %w", owner, err)
		}
		prefs.UserID = owner
		state.Preferences[owner] = prefs
	}

	if upgraded {
		r.log.Info("Legacy state upgraded, writing it back", "classes", len(state.Classes), "users", len(state.Users))
		if err = r.SaveState(state); err != nil {
			return State{}, fmt.Errorf("writing upgraded state: %w", err)
		}
	}
	return state, nil
}

// SaveState writes whole-collection snapshots. Last writer wins. Stored
// preferences of users missing from the snapshot are removed.
func (r *StateRepository) SaveState(state State) error {
	if err := r.write(Key{Collection: CollectionClasses}, classesVersion, nonNil(state.Classes)); err != nil {
		return err
	}
	if err := r.write(Key{Collection: CollectionUsers}, usersVersion, nonNil(state.Users)); err != nil {
		return err
	}
	if err := r.write(Key{Collection: CollectionNotifications}, defaultVersion, nonNil(state.Notifications)); err != nil {
		return err
	}
	if err := r.write(Key{Collection: CollectionLoginHistory}, defaultVersion, nonNil(state.LoginHistory)); err != nil {
		return err
	}
	for owner, prefs := range state.Preferences {
		if err := r.write(Key{Collection: CollectionPreferences, Owner: owner}, defaultVersion, prefs); err != nil {
			return err
		}
	}
	stored, err := r.store.Scan(CollectionPreferences)
	if err != nil {
		return fmt.Errorf("scanning preferences: %w", err)
	}
	for owner := range stored {
		if _, kept := state.Preferences[owner]; kept {
			continue
		}
		key := Key{Collection: CollectionPreferences, Owner: owner}
		if err = r.store.Delete(key); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	return nil
}

func (r *StateRepository) SavePicture(userID string, data []byte) error {
	return r.store.Set(Key{Collection: CollectionPictures, Owner: userID}, data)
}

func (r *StateRepository) LoadPicture(userID string) ([]byte, error) {
	return r.store.Get(Key{Collection: CollectionPictures, Owner: userID})
}

// read returns nil when the key was never written.
func (r *StateRepository) read(key Key) (*envelope, error) {
	value, err := r.store.Get(key)
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var env envelope
	if err = json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &env, nil
}

func (r *StateRepository) readItems(key Key, target any) error {
	env, err := r.read(key)
	if err != nil || env == nil {
		return err
	}
	if err = json.Unmarshal(env.Items, target); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func (r *StateRepository) write(key Key, version int, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	value, err := json.Marshal(envelope{Version: version, Items: raw})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err = r.store.Set(key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
