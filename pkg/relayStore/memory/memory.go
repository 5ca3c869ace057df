package memory

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
)

// InMemoryRelayStore implements the RelayStore interface with in-memory
// storage. It is the reference implementation: relay state does not
// survive a restart, so a crash re-scans from the configured start block
// and loses the processed-nonce set.
type InMemoryRelayStore struct {
	mu                sync.RWMutex
	closed            bool
	lastScannedBlocks map[string]uint64
	processedNonces   map[string]bool
}

// NewInMemoryRelayStore creates a new in-memory relay store
func NewInMemoryRelayStore() *InMemoryRelayStore {
	return &InMemoryRelayStore{
		lastScannedBlocks: make(map[string]uint64),
		processedNonces:   make(map[string]bool),
	}
}

// makeCursorKey creates a composite key for scan cursor storage. The
// contract address is lowercased so cursor identity is case-insensitive.
func makeCursorKey(chainId config.ChainId, contractAddress string, eventName string) string {
	return fmt.Sprintf("%d:%s:%s", chainId, strings.ToLower(contractAddress), eventName)
}

// makeNonceKey creates a composite key for processed nonce storage
func makeNonceKey(chainId config.ChainId, nonce *big.Int) string {
	return fmt.Sprintf("%d:%s", chainId, nonce.String())
}

func (s *InMemoryRelayStore) GetLastScannedBlock(ctx context.Context, chainId config.ChainId, contractAddress string, eventName string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, relayStore.ErrStoreClosed
	}

	key := makeCursorKey(chainId, contractAddress, eventName)
	blockNum, exists := s.lastScannedBlocks[key]
	if !exists {
		return 0, relayStore.ErrNotFound
	}

	return blockNum, nil
}

func (s *InMemoryRelayStore) SetLastScannedBlock(ctx context.Context, chainId config.ChainId, contractAddress string, eventName string, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return relayStore.ErrStoreClosed
	}

	key := makeCursorKey(chainId, contractAddress, eventName)
	s.lastScannedBlocks[key] = blockNumber
	return nil
}

func (s *InMemoryRelayStore) IsNonceProcessed(ctx context.Context, chainId config.ChainId, nonce *big.Int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, relayStore.ErrStoreClosed
	}

	if nonce == nil {
		return false, fmt.Errorf("nonce is nil")
	}

	return s.processedNonces[makeNonceKey(chainId, nonce)], nil
}

func (s *InMemoryRelayStore) MarkNonceProcessed(ctx context.Context, chainId config.ChainId, nonce *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return relayStore.ErrStoreClosed
	}

	if nonce == nil {
		return fmt.Errorf("nonce is nil")
	}

	s.processedNonces[makeNonceKey(chainId, nonce)] = true
	return nil
}

func (s *InMemoryRelayStore) ListProcessedNonces(ctx context.Context, chainId config.ChainId) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, relayStore.ErrStoreClosed
	}

	prefix := fmt.Sprintf("%d:", chainId)
	nonces := make([]string, 0)
	for key := range s.processedNonces {
		if strings.HasPrefix(key, prefix) {
			nonces = append(nonces, strings.TrimPrefix(key, prefix))
		}
	}

	return nonces, nil
}

func (s *InMemoryRelayStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
