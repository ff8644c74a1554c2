package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyAnalysisPrefix = "analysis:"

// Analysis is the persisted outcome of a finished search.
type Analysis struct {
	FEN        string    `json:"fen"`
	BestMove   string    `json:"best_move"`
	PonderMove string    `json:"ponder_move,omitempty"`
	Score      int       `json:"score"`
	Depth      int       `json:"depth"`
	Nodes      uint64    `json:"nodes"`
	PV         []string  `json:"pv,omitempty"`
	Updated    time.Time `json:"updated"`
}

// AnalysisStore wraps BadgerDB for analyses keyed by position.
type AnalysisStore struct {
	db *badger.DB
}

// Open opens or creates the store in dir. An empty dir opens an in-memory
// store.
func Open(dir string) (*AnalysisStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", dir, err)
	}
	return &AnalysisStore{db: db}, nil
}

// Close closes the database.
func (s *AnalysisStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// positionKey drops the move clocks so that analyses are shared by every
// occurrence of a position.
func positionKey(fen string) []byte {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return []byte(keyAnalysisPrefix + strings.Join(fields, " "))
}

// Put stores a, replacing an earlier analysis of the same position unless
// that one was searched deeper.
func (s *AnalysisStore) Put(a Analysis) error {
	if a.Updated.IsZero() {
		a.Updated = time.Now()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	key := positionKey(a.FEN)

	return s.db.Update(func(txn *badger.Txn) error {
		old, found, err := get(txn, key)
		if err != nil {
			return err
		}
		if found && old.Depth > a.Depth {
			return nil
		}
		return txn.Set(key, data)
	})
}

// Get loads the analysis of the position in fen.
func (s *AnalysisStore) Get(fen string) (Analysis, bool, error) {
	var (
		a     Analysis
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		a, found, err = get(txn, positionKey(fen))
		return err
	})
	return a, found, err
}

func get(txn *badger.Txn, key []byte) (Analysis, bool, error) {
	var a Analysis
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return a, false, nil
	}
	if err != nil {
		return a, false, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &a)
	})
	return a, err == nil, err
}

// Count returns the number of stored analyses.
func (s *AnalysisStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyAnalysisPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
