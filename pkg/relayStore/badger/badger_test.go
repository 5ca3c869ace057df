package badger

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
	"github.com/Meridian-Labs/porthmos/pkg/relayer/relayerConfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerRelayStore(t *testing.T) {
	// Every store gets its own directory so each subtest starts from a clean state
	suite := &relayStore.TestSuite{
		NewStore: func() (relayStore.RelayStore, error) {
			cfg := &relayerConfig.BadgerConfig{
				Dir: t.TempDir(),
			}
			return NewBadgerRelayStore(cfg)
		},
	}
	suite.Run(t)
}

func TestBadgerRelayStore_Persistence(t *testing.T) {
	// Test that cursors and nonces persist across store restarts
	cfg := &relayerConfig.BadgerConfig{
		Dir: t.TempDir(),
	}

	ctx := context.Background()
	chainId := config.ChainId_EthereumSepolia
	contract := "0x1111111111111111111111111111111111111111"
	eventName := "DepositMade"

	// Create store, save data, and close
	{
		store, err := NewBadgerRelayStore(cfg)
		require.NoError(t, err)

		err = store.SetLastScannedBlock(ctx, chainId, contract, eventName, 94)
		require.NoError(t, err)

		err = store.MarkNonceProcessed(ctx, chainId, big.NewInt(12))
		require.NoError(t, err)

		err = store.Close()
		require.NoError(t, err)
	}

	// Reopen store and verify data persists
	{
		store, err := NewBadgerRelayStore(cfg)
		require.NoError(t, err)
		defer store.Close()

		block, err := store.GetLastScannedBlock(ctx, chainId, contract, eventName)
		require.NoError(t, err)
		assert.Equal(t, uint64(94), block)

		processed, err := store.IsNonceProcessed(ctx, chainId, big.NewInt(12))
		require.NoError(t, err)
		assert.True(t, processed)
	}
}

func TestBadgerRelayStore_InMemory(t *testing.T) {
	// Test in-memory mode
	cfg := &relayerConfig.BadgerConfig{
		Dir:      "",
		InMemory: true,
	}

	store, err := NewBadgerRelayStore(cfg)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	err = store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, "0xabc", "DepositMade", 120)
	require.NoError(t, err)

	block, err := store.GetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, "0xabc", "DepositMade")
	require.NoError(t, err)
	assert.Equal(t, uint64(120), block)
}

func TestBadgerRelayStore_NilConfig(t *testing.T) {
	store, err := NewBadgerRelayStore(nil)
	require.Error(t, err)
	assert.Nil(t, store)
}

func BenchmarkBadgerRelayStore(b *testing.B) {
	cfg := &relayerConfig.BadgerConfig{
		Dir: b.TempDir(),
	}

	store, err := NewBadgerRelayStore(cfg)
	require.NoError(b, err)
	defer store.Close()

	ctx := context.Background()

	b.Run("MarkNonceProcessed", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = store.MarkNonceProcessed(ctx, config.ChainId_EthereumSepolia, big.NewInt(int64(i)))
		}
	})

	b.Run("IsNonceProcessed", func(b *testing.B) {
		// Pre-populate some nonces
		for i := 0; i < 100; i++ {
			_ = store.MarkNonceProcessed(ctx, config.ChainId_LineaGoerli, big.NewInt(int64(i)))
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = store.IsNonceProcessed(ctx, config.ChainId_LineaGoerli, big.NewInt(int64(i%100)))
		}
	})

	b.Run("SetLastScannedBlock", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = store.SetLastScannedBlock(ctx, config.ChainId_EthereumSepolia, fmt.Sprintf("0x%040d", i%10), "DepositMade", uint64(i))
		}
	})
}
