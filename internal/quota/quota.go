// Package quota tracks per-organization daily ingest allowances in a shared
// TTL'd counter store, so the budget survives restarts instead of living in a
// per-process map.
package quota

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Store is a Badger-backed counter store. Counters expire on their own at the
// end of the day they belong to.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// Open creates or opens the counter store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open quota store: %w", err)
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Allow consumes one unit of the organization's daily budget. It returns
// false, without consuming, once the day's count has reached limit.
// A limit <= 0 disables the quota.
func (s *Store) Allow(orgID string, limit int64) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	key := s.dayKey(orgID)
	allowed := false

	err := s.db.Update(func(txn *badger.Txn) error {
		count, err := readCount(txn, key)
		if err != nil {
			return err
		}
		if count >= limit {
			return nil
		}

		entry := badger.NewEntry(key, []byte(strconv.FormatInt(count+1, 10))).
			WithTTL(s.untilMidnight())
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		allowed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update quota counter: %w", err)
	}
	return allowed, nil
}

// Used returns the organization's consumed budget for today.
func (s *Store) Used(orgID string) (int64, error) {
	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		count, err = readCount(txn, s.dayKey(orgID))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read quota counter: %w", err)
	}
	return count, nil
}

func readCount(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var count int64
	err = item.Value(func(val []byte) error {
		count, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	return count, err
}

// dayKey namespaces the counter per organization and UTC day.
func (s *Store) dayKey(orgID string) []byte {
	return []byte("ingest:" + orgID + ":" + s.now().UTC().Format("2006-01-02"))
}

// untilMidnight returns the remaining lifetime of today's counters.
func (s *Store) untilMidnight() time.Duration {
	now := s.now().UTC()
	midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	return midnight.Sub(now)
}
