package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
	"github.com/Meridian-Labs/porthmos/pkg/relayer/relayerConfig"
	badgerv3 "github.com/dgraph-io/badger/v3"
)

// Key prefixes for different data types
const (
	prefixCursor = "cursor:%d:%s:%s" // chainId:contractAddress:eventName
	prefixNonce  = "nonce:%d:%s"     // chainId:nonce
)

// cursorRecord is the stored representation of a scan cursor.
type cursorRecord struct {
	BlockNumber uint64 `json:"blockNumber"`
}

// BadgerRelayStore implements the RelayStore interface using BadgerDB
type BadgerRelayStore struct {
	db       *badgerv3.DB
	mu       sync.RWMutex
	closed   bool
	closeCh  chan struct{}
	gcTicker *time.Ticker
}

// NewBadgerRelayStore creates a new BadgerDB-backed relay store
func NewBadgerRelayStore(cfg *relayerConfig.BadgerConfig) (*BadgerRelayStore, error) {
	if cfg == nil {
		return nil, errors.New("badger config is nil")
	}

	opts := badgerv3.DefaultOptions(cfg.Dir)
	opts.Logger = nil // Disable BadgerDB's default logging

	// Apply custom options if needed
	if cfg.InMemory {
		opts.InMemory = true
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumVersionsToKeep > 0 {
		opts.NumVersionsToKeep = cfg.NumVersionsToKeep
	}
	if cfg.NumLevelZeroTables > 0 {
		opts.NumLevelZeroTables = cfg.NumLevelZeroTables
	}
	if cfg.NumLevelZeroTablesStall > 0 {
		opts.NumLevelZeroTablesStall = cfg.NumLevelZeroTablesStall
	}

	db, err := badgerv3.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &BadgerRelayStore{
		db:      db,
		closeCh: make(chan struct{}),
	}

	// Start garbage collection routine
	s.gcTicker = time.NewTicker(5 * time.Minute)
	go s.runGC()

	return s, nil
}

// runGC runs periodic garbage collection
func (s *BadgerRelayStore) runGC() {
	for {
		select {
		case <-s.gcTicker.C:
			s.mu.RLock()
			if s.closed {
				s.mu.RUnlock()
				return
			}
			s.mu.RUnlock()

			// Run value log GC
			_ = s.db.RunValueLogGC(0.5)
		case <-s.closeCh:
			return
		}
	}
}

// GetLastScannedBlock retrieves the scan cursor for a (chain, contract, event) tuple
func (s *BadgerRelayStore) GetLastScannedBlock(ctx context.Context, chainId config.ChainId, contractAddress string, eventName string) (uint64, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, relayStore.ErrStoreClosed
	}
	s.mu.RUnlock()

	var record cursorRecord
	key := fmt.Sprintf(prefixCursor, chainId, strings.ToLower(contractAddress), eventName)

	err := s.db.View(func(txn *badgerv3.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badgerv3.ErrKeyNotFound) {
				return relayStore.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})

	if err != nil {
		if errors.Is(err, relayStore.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get scan cursor: %w", err)
	}

	return record.BlockNumber, nil
}

// SetLastScannedBlock persists the scan cursor for a (chain, contract, event) tuple
func (s *BadgerRelayStore) SetLastScannedBlock(ctx context.Context, chainId config.ChainId, contractAddress string, eventName string, blockNumber uint64) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return relayStore.ErrStoreClosed
	}
	s.mu.RUnlock()

	key := fmt.Sprintf(prefixCursor, chainId, strings.ToLower(contractAddress), eventName)
	value, err := json.Marshal(&cursorRecord{BlockNumber: blockNumber})
	if err != nil {
		return fmt.Errorf("failed to marshal scan cursor: %w", err)
	}

	err = s.db.Update(func(txn *badgerv3.Txn) error {
		return txn.Set([]byte(key), value)
	})

	if err != nil {
		return fmt.Errorf("failed to save scan cursor: %w", err)
	}

	return nil
}

// IsNonceProcessed reports whether a deposit nonce has already been relayed
func (s *BadgerRelayStore) IsNonceProcessed(ctx context.Context, chainId config.ChainId, nonce *big.Int) (bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false, relayStore.ErrStoreClosed
	}
	s.mu.RUnlock()

	if nonce == nil {
		return false, errors.New("nonce is nil")
	}

	key := fmt.Sprintf(prefixNonce, chainId, nonce.String())

	err := s.db.View(func(txn *badgerv3.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})

	if err != nil {
		if errors.Is(err, badgerv3.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check nonce: %w", err)
	}

	return true, nil
}

// MarkNonceProcessed records a deposit nonce as relayed. Marking the same
// nonce twice is a no-op.
func (s *BadgerRelayStore) MarkNonceProcessed(ctx context.Context, chainId config.ChainId, nonce *big.Int) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return relayStore.ErrStoreClosed
	}
	s.mu.RUnlock()

	if nonce == nil {
		return errors.New("nonce is nil")
	}

	key := fmt.Sprintf(prefixNonce, chainId, nonce.String())

	err := s.db.Update(func(txn *badgerv3.Txn) error {
		return txn.Set([]byte(key), []byte{})
	})

	if err != nil {
		return fmt.Errorf("failed to mark nonce: %w", err)
	}

	return nil
}

// ListProcessedNonces returns all relayed nonces for a chain as decimal strings
func (s *BadgerRelayStore) ListProcessedNonces(ctx context.Context, chainId config.ChainId) ([]string, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, relayStore.ErrStoreClosed
	}
	s.mu.RUnlock()

	var nonces []string
	prefix := fmt.Sprintf(prefixNonce, chainId, "")

	err := s.db.View(func(txn *badgerv3.Txn) error {
		opts := badgerv3.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			nonces = append(nonces, key[len(prefix):])
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list processed nonces: %w", err)
	}

	return nonces, nil
}

// Close shuts down the store
func (s *BadgerRelayStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)
	s.gcTicker.Stop()

	return s.db.Close()
}
