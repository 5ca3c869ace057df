package relayStore

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite defines a test suite that all relay store implementations must
// pass.
type TestSuite struct {
	NewStore func() (RelayStore, error)
}

// Run executes all storage interface compliance tests
func (s *TestSuite) Run(t *testing.T) {
	t.Run("ScanCursor", s.testScanCursor)
	t.Run("ProcessedNonces", s.testProcessedNonces)
	t.Run("Lifecycle", s.testLifecycle)
	t.Run("ConcurrentAccess", s.testConcurrentAccess)
}

const (
	testContract = "0x1111111111111111111111111111111111111111"
	testEvent    = "DepositMade"
)

func (s *TestSuite) testScanCursor(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Cursor for a never-scanned tuple is not found
	_, err = store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent)
	assert.ErrorIs(t, err, ErrNotFound)

	// Set and get
	err = store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent, 94)
	require.NoError(t, err)

	block, err := store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent)
	require.NoError(t, err)
	assert.Equal(t, uint64(94), block)

	// Advance
	err = store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent, 120)
	require.NoError(t, err)

	block, err = store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), block)

	// Contract address case does not change cursor identity
	block, err = store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, "0x1111111111111111111111111111111111111111", testEvent)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), block)

	// Cursors for other tuples are independent
	_, err = store.GetLastScannedBlock(ctx, config.ChainId_LineaGoerli, testContract, testEvent)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, "TokensLocked")
	assert.ErrorIs(t, err, ErrNotFound)
}

func (s *TestSuite) testProcessedNonces(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(42))
	require.NoError(t, err)
	assert.False(t, processed)

	err = store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(42))
	require.NoError(t, err)

	processed, err = store.IsNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(42))
	require.NoError(t, err)
	assert.True(t, processed)

	// Marking again is a no-op
	err = store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(42))
	require.NoError(t, err)

	// Nonces are scoped per chain
	processed, err = store.IsNonceProcessed(ctx, config.ChainId_LineaGoerli, big.NewInt(42))
	require.NoError(t, err)
	assert.False(t, processed)

	// Nil nonces are rejected
	err = store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, nil)
	require.Error(t, err)

	_, err = store.IsNonceProcessed(ctx, config.ChainId_EthereumSepolia, nil)
	require.Error(t, err)

	err = store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(7))
	require.NoError(t, err)

	nonces, err := store.ListProcessedNonces(ctx, config.ChainId_EthereumSepolia)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"42", "7"}, nonces)

	nonces, err = store.ListProcessedNonces(ctx, config.ChainId_LineaGoerli)
	require.NoError(t, err)
	assert.Empty(t, nonces)
}

func (s *TestSuite) testLifecycle(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)

	ctx := context.Background()

	err = store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent, 10)
	require.NoError(t, err)

	err = store.Close()
	require.NoError(t, err)

	// Operations after close should fail
	_, err = store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent)
	assert.ErrorIs(t, err, ErrStoreClosed)

	err = store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, testContract, testEvent, 11)
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = store.IsNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(1))
	assert.ErrorIs(t, err, ErrStoreClosed)

	err = store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(1))
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = store.ListProcessedNonces(ctx, config.ChainId_EthereumSepolia)
	assert.ErrorIs(t, err, ErrStoreClosed)

	// Closing twice is safe
	err = store.Close()
	require.NoError(t, err)
}

func (s *TestSuite) testConcurrentAccess(t *testing.T) {
	store, err := s.NewStore()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	done := make(chan bool)
	errs := make(chan error, 10)

	// Concurrent nonce marks
	for i := 0; i < 5; i++ {
		go func(id int) {
			for j := 0; j < 10; j++ {
				nonce := big.NewInt(int64(id*100 + j))
				if err := store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, nonce); err != nil {
					errs <- err
					return
				}
			}
			done <- true
		}(i)
	}

	// Concurrent cursor writes and reads
	for i := 0; i < 5; i++ {
		go func(id int) {
			contract := fmt.Sprintf("0x%040d", id)
			for j := 0; j < 10; j++ {
				if err := store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, contract, testEvent, uint64(j)); err != nil {
					errs <- err
					return
				}
				if _, err := store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, contract, testEvent); err != nil && err != ErrNotFound {
					errs <- err
					return
				}
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case err := <-errs:
			t.Fatalf("Concurrent access error: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for concurrent operations")
		}
	}

	nonces, err := store.ListProcessedNonces(ctx, config.ChainId_EthereumSepolia)
	require.NoError(t, err)
	assert.Len(t, nonces, 50)
}
