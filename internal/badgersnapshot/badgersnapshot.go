// Package badgersnapshot is a collaborator demonstrating that durable
// snapshot storage lives outside the core engine (§1's "snapshot
// persistence... is external"): it subscribes to a run's event bus and
// persists a deep-copied, JSON-encoded snapshot under the run's ID on
// every mutation, using Badger as the embedded key-value store.
//
// Grounded on jinterlante1206-AleutianLocal's use of dgraph-io/badger/v4
// for its own local persistence layer; the open/close/transaction
// lifecycle here follows the same shape.
package badgersnapshot

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/flowdag/flowdag/internal/eventbus"
	"github.com/flowdag/flowdag/internal/snapshot"
)

// Store persists run snapshots keyed by run ID.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a Badger database rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir))
	if err != nil {
		return nil, fmt.Errorf("badgersnapshot: open %q: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers a data listener on bus that persists a clone of the
// live snapshot under runID on every mutation. §4.7 requires subscribers
// to deep-copy before any asynchronous use of the snapshot reference;
// Clone() is exactly that copy.
func (s *Store) Subscribe(bus *eventbus.Bus, runID string) {
	bus.OnData(func(snap *snapshot.Snapshot) {
		_ = s.save(runID, snap.Clone())
	})
}

func (s *Store) save(runID string, snap *snapshot.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("badgersnapshot: marshal %q: %w", runID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(runID), payload)
	})
}

// Load fetches and decodes the persisted snapshot for runID, for feeding
// into flowdag.Resume.
func (s *Store) Load(runID string) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badgersnapshot: load %q: %w", runID, err)
	}
	return &snap, nil
}
