// Package relayStore defines the persistence contract for relay pipeline
// state: the scan cursor per (chain, contract, event) and the set of
// deposit nonces that have already been relayed. The in-memory
// implementation is the reference (state is lost on restart); the badger
// implementation persists both records across restarts.
package relayStore

import (
	"context"
	"math/big"

	"github.com/Meridian-Labs/porthmos/pkg/config"
)

// RelayStore is the durable-store contract for relay state.
type RelayStore interface {
	// GetLastScannedBlock returns the scan cursor for a (chain, contract,
	// event) tuple. ErrNotFound means no scan has completed yet.
	GetLastScannedBlock(ctx context.Context, chainId config.ChainId, contractAddress string, eventName string) (uint64, error)

	// SetLastScannedBlock persists the scan cursor. Callers only move the
	// cursor forward; the store does not enforce monotonicity.
	SetLastScannedBlock(ctx context.Context, chainId config.ChainId, contractAddress string, eventName string, blockNumber uint64) error

	// IsNonceProcessed reports whether a deposit nonce has already been
	// relayed on the given source chain.
	IsNonceProcessed(ctx context.Context, chainId config.ChainId, nonce *big.Int) (bool, error)

	// MarkNonceProcessed records a nonce as relayed. Marking an already
	// processed nonce is a no-op.
	MarkNonceProcessed(ctx context.Context, chainId config.ChainId, nonce *big.Int) error

	// ListProcessedNonces returns every processed nonce for a source
	// chain, as decimal strings.
	ListProcessedNonces(ctx context.Context, chainId config.ChainId) ([]string, error)

	Close() error
}
