// Package ledger defines the per-chain capability the relay pipeline runs
// against: reading confirmed deposit events from a source chain and
// submitting release transactions to a destination chain. Implementations
// own transport, decoding and submission mechanics; the pipeline only sees
// typed events, receipts and faults.
package ledger

import (
	"context"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/types"
)

// Client is the ledger capability for a single chain endpoint.
type Client interface {
	// ChainId reports the chain id of the connected endpoint. Used as the
	// startup liveness probe; a mismatch with the configured chain is a
	// fatal configuration error.
	ChainId(ctx context.Context) (config.ChainId, error)

	// LatestBlockNumber returns the tip height of the chain.
	LatestBlockNumber(ctx context.Context) (uint64, error)

	// FetchEvents returns every decoded event named eventName emitted by
	// contractAddress in the inclusive range [fromBlock, toBlock], ordered
	// by ascending (block, log index). A range the node cannot serve is
	// reported as ErrRangeUnavailable; undecodable logs are dropped and
	// logged, never returned as errors.
	FetchEvents(ctx context.Context, contractAddress string, eventName string, fromBlock uint64, toBlock uint64) ([]*types.RelayEvent, error)

	// SubmitTransaction packs and submits a contract call and returns its
	// receipt. The nonce bookkeeping upstream relies on an error here
	// meaning "the call cannot be assumed delivered".
	SubmitTransaction(ctx context.Context, contractAddress string, functionName string, args ...interface{}) (*Receipt, error)

	Close() error
}

// Receipt describes an accepted submission.
type Receipt struct {
	TransactionHash string
	ContractAddress string
	FunctionName    string
	// Simulated reports that the call was packed and logged but not
	// broadcast. The reference destination client simulates submission; a
	// signing client sets this to false.
	Simulated bool
}
