// Package relayProcessor validates scanned deposit events and forwards them
// to the destination chain as release transactions.
//
// Every event runs through the same ordered checks: nonce deduplication
// first, then sender compliance, then structural validation. The first
// failing check decides the outcome and later checks never run, so a
// denylisted sender's nonce stays unprocessed and a malformed event never
// reaches the compliance service twice. A nonce is recorded only after its
// release transaction has been accepted, which keeps failed submissions
// retryable on a later scan.
package relayProcessor

import (
	"context"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/ledger"
	"github.com/Meridian-Labs/porthmos/pkg/metrics"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
	"github.com/Meridian-Labs/porthmos/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ComplianceChecker decides whether a sender may have funds released.
type ComplianceChecker interface {
	IsPermitted(ctx context.Context, address string) bool
}

// TransactionSubmitter broadcasts a contract call on the destination chain.
type TransactionSubmitter interface {
	SubmitTransaction(ctx context.Context, contractAddress string, functionName string, args ...interface{}) (*ledger.Receipt, error)
}

type RelayProcessorConfig struct {
	// SourceChainId scopes nonce deduplication
	SourceChainId config.ChainId
	// DestinationChainId identifies the chain releases are sent to
	DestinationChainId config.ChainId
	// ContractAddress is the bridge contract on the destination chain
	ContractAddress string
	// FunctionName is the release function invoked on the contract
	FunctionName string
}

type RelayProcessor struct {
	submitter TransactionSubmitter
	gate      ComplianceChecker
	store     relayStore.RelayStore
	config    *RelayProcessorConfig
	logger    *zap.Logger
}

func NewRelayProcessor(
	submitter TransactionSubmitter,
	gate ComplianceChecker,
	store relayStore.RelayStore,
	cfg *RelayProcessorConfig,
	logger *zap.Logger,
) *RelayProcessor {
	return &RelayProcessor{
		submitter: submitter,
		gate:      gate,
		store:     store,
		config:    cfg,
		logger:    logger,
	}
}

// Process validates a single deposit event and, if it passes every check,
// submits the matching release transaction. The returned outcome describes
// what happened to the event; an error is returned only when the store fails
// and the event's fate is unknown.
func (rp *RelayProcessor) Process(ctx context.Context, event *types.RelayEvent) (types.RelayOutcome, error) {
	if event == nil {
		return "", errors.New("event is nil")
	}

	sugar := rp.logger.Sugar()

	if event.Nonce == nil {
		sugar.Warnw("Skipping event with missing nonce",
			"transactionHash", event.TransactionHash,
			"sourceBlock", event.SourceBlock,
		)
		metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeSkippedDuplicate)).Inc()
		return types.RelayOutcomeSkippedDuplicate, nil
	}

	processed, err := rp.store.IsNonceProcessed(ctx, rp.config.SourceChainId, event.Nonce)
	if err != nil {
		return "", errors.Wrapf(err, "failed to check nonce %s", event.Nonce)
	}
	if processed {
		sugar.Warnw("Skipping event with duplicate nonce",
			"nonce", event.Nonce.String(),
			"transactionHash", event.TransactionHash,
		)
		metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeSkippedDuplicate)).Inc()
		return types.RelayOutcomeSkippedDuplicate, nil
	}

	sugar.Infow("Processing event",
		"nonce", event.Nonce.String(),
		"sender", event.Sender,
		"recipient", event.Recipient,
		"sourceBlock", event.SourceBlock,
	)

	if event.Sender == "" || !rp.gate.IsPermitted(ctx, event.Sender) {
		sugar.Errorw("Validation failed, sender is non-compliant or missing",
			"nonce", event.Nonce.String(),
			"sender", event.Sender,
		)
		metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeRejectedCompliance)).Inc()
		return types.RelayOutcomeRejectedCompliance, nil
	}

	if event.Recipient == "" || event.Amount == nil || event.Amount.Sign() <= 0 {
		sugar.Errorw("Event is missing critical data for relaying",
			"nonce", event.Nonce.String(),
			"recipient", event.Recipient,
			"amount", event.Amount,
		)
		metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeRejectedMalformed)).Inc()
		return types.RelayOutcomeRejectedMalformed, nil
	}

	receipt, err := rp.submitter.SubmitTransaction(ctx, rp.config.ContractAddress, rp.config.FunctionName,
		common.HexToAddress(event.Recipient),
		event.Amount,
		event.Nonce,
	)
	if err != nil {
		// The nonce stays unmarked so a later scan of the same range can
		// retry the release.
		sugar.Errorw("Failed to submit release transaction",
			"nonce", event.Nonce.String(),
			"destinationChainId", rp.config.DestinationChainId,
			"error", err,
		)
		metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeSubmissionFailed)).Inc()
		return types.RelayOutcomeSubmissionFailed, nil
	}

	if err := rp.store.MarkNonceProcessed(ctx, rp.config.SourceChainId, event.Nonce); err != nil {
		// The release already went out. Failing the event here would invite
		// a double release on retry, so report success and surface the
		// store problem loudly.
		sugar.Errorw("Failed to record processed nonce after submission",
			"nonce", event.Nonce.String(),
			"transactionHash", receipt.TransactionHash,
			"error", err,
		)
		metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeRelayed)).Inc()
		return types.RelayOutcomeRelayed, nil
	}

	sugar.Infow("Relayed deposit",
		"nonce", event.Nonce.String(),
		"recipient", event.Recipient,
		"amount", event.Amount.String(),
		"destinationChainId", rp.config.DestinationChainId,
		"transactionHash", receipt.TransactionHash,
	)
	metrics.RelayOutcomes.WithLabelValues(string(types.RelayOutcomeRelayed)).Inc()
	return types.RelayOutcomeRelayed, nil
}
