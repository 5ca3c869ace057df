// Package relayer wires the scanner, compliance gate, and processor into a
// single polling pipeline between two chains.
package relayer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/eventScanner"
	"github.com/Meridian-Labs/porthmos/pkg/ledger"
	"github.com/Meridian-Labs/porthmos/pkg/relayProcessor"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
	"github.com/Meridian-Labs/porthmos/pkg/relayer/relayerConfig"
	"github.com/Meridian-Labs/porthmos/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type RelayerState string

const (
	RelayerStateUninitialized RelayerState = "uninitialized"
	RelayerStateReady         RelayerState = "ready"
	RelayerStateRunning       RelayerState = "running"
	RelayerStateStopped       RelayerState = "stopped"
)

type Relayer struct {
	config            *relayerConfig.RelayerConfig
	logger            *zap.Logger
	sourceClient      ledger.Client
	destinationClient ledger.Client
	store             relayStore.RelayStore
	scanner           *eventScanner.EventScanner
	processor         *relayProcessor.RelayProcessor
	pollInterval      time.Duration

	mu     sync.RWMutex
	state  RelayerState
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRelayer(
	cfg *relayerConfig.RelayerConfig,
	sourceClient ledger.Client,
	destinationClient ledger.Client,
	gate relayProcessor.ComplianceChecker,
	store relayStore.RelayStore,
	logger *zap.Logger,
) *Relayer {
	scanner := eventScanner.NewEventScanner(sourceClient, store, &eventScanner.EventScannerConfig{
		ChainId:           cfg.SourceChain.ChainId,
		ContractAddress:   cfg.SourceChain.ContractAddress,
		EventName:         cfg.SourceEventName,
		ConfirmationDepth: cfg.ConfirmationDepth,
	}, logger)

	processor := relayProcessor.NewRelayProcessor(destinationClient, gate, store, &relayProcessor.RelayProcessorConfig{
		SourceChainId:      cfg.SourceChain.ChainId,
		DestinationChainId: cfg.DestinationChain.ChainId,
		ContractAddress:    cfg.DestinationChain.ContractAddress,
		FunctionName:       cfg.DestinationFunctionName,
	}, logger)

	return &Relayer{
		config:            cfg,
		logger:            logger,
		sourceClient:      sourceClient,
		destinationClient: destinationClient,
		store:             store,
		scanner:           scanner,
		processor:         processor,
		pollInterval:      time.Duration(cfg.PollIntervalSeconds) * time.Second,
		state:             RelayerStateUninitialized,
		done:              make(chan struct{}),
	}
}

// State returns the relayer's current lifecycle state.
func (r *Relayer) State() RelayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Initialize probes both chains and verifies they report the configured
// chain ids. The relayer refuses to run against a node that answers for a
// different network than the one the cursor and nonce records belong to.
func (r *Relayer) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.state != RelayerStateUninitialized {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("relayer already initialized (state %s)", state)
	}
	r.mu.Unlock()

	sourceChainId, err := r.sourceClient.ChainId(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to source chain %s", r.config.SourceChain.Name)
	}
	if sourceChainId != r.config.SourceChain.ChainId {
		return fmt.Errorf("source chain reports chain id %d, config expects %d", sourceChainId, r.config.SourceChain.ChainId)
	}

	destinationChainId, err := r.destinationClient.ChainId(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to destination chain %s", r.config.DestinationChain.Name)
	}
	if destinationChainId != r.config.DestinationChain.ChainId {
		return fmt.Errorf("destination chain reports chain id %d, config expects %d", destinationChainId, r.config.DestinationChain.ChainId)
	}

	r.logger.Sugar().Infow("Connected to chains",
		"sourceChain", r.config.SourceChain.Name,
		"sourceChainId", sourceChainId,
		"destinationChain", r.config.DestinationChain.Name,
		"destinationChainId", destinationChainId,
	)

	r.mu.Lock()
	r.state = RelayerStateReady
	r.mu.Unlock()
	return nil
}

// Start launches the poll loop. An uninitialized relayer is initialized
// first, so startup fails fast when either chain is unreachable.
func (r *Relayer) Start(ctx context.Context) error {
	if r.State() == RelayerStateUninitialized {
		if err := r.Initialize(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	if r.state != RelayerStateReady {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("relayer cannot start from state %s", state)
	}
	pollCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = RelayerStateRunning
	r.mu.Unlock()

	r.logger.Sugar().Infow("Starting relayer",
		"sourceChain", r.config.SourceChain.Name,
		"destinationChain", r.config.DestinationChain.Name,
		"eventName", r.config.SourceEventName,
		"pollInterval", r.pollInterval,
		"confirmationDepth", r.config.ConfirmationDepth,
	)
	go r.poll(pollCtx)
	return nil
}

func (r *Relayer) poll(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	sugar := r.logger.Sugar()

	// The first cycle runs immediately instead of waiting out an interval.
	r.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			sugar.Infow("Relayer context cancelled, exiting poll loop")
			return
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Relayer) runCycle(ctx context.Context) {
	sugar := r.logger.Sugar()

	events, err := r.scanner.Scan(ctx)
	if err != nil {
		sugar.Errorw("Scan cycle failed", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	// Once fetched, a batch is processed to the end even if shutdown begins
	// partway through. The scan cursor has already moved past these blocks,
	// so dropping the tail of the batch would lose deposits.
	batchCtx := context.WithoutCancel(ctx)

	tally := make(map[types.RelayOutcome]int)
	for _, event := range events {
		outcome, err := r.processor.Process(batchCtx, event)
		if err != nil {
			sugar.Errorw("Failed to process event",
				"transactionHash", event.TransactionHash,
				"sourceBlock", event.SourceBlock,
				"error", err,
			)
			continue
		}
		tally[outcome]++
	}

	sugar.Infow("Relay cycle complete",
		"eventCount", len(events),
		"relayed", tally[types.RelayOutcomeRelayed],
		"skippedDuplicate", tally[types.RelayOutcomeSkippedDuplicate],
		"rejectedCompliance", tally[types.RelayOutcomeRejectedCompliance],
		"rejectedMalformed", tally[types.RelayOutcomeRejectedMalformed],
		"submissionFailed", tally[types.RelayOutcomeSubmissionFailed],
	)
}

// Close stops the poll loop and waits for an in-flight cycle to finish.
func (r *Relayer) Close() error {
	r.mu.Lock()
	if r.state == RelayerStateStopped {
		r.mu.Unlock()
		return nil
	}
	wasRunning := r.state == RelayerStateRunning
	cancel := r.cancel
	r.state = RelayerStateStopped
	r.mu.Unlock()

	if wasRunning && cancel != nil {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			r.logger.Sugar().Warnw("Timed out waiting for poll loop to stop")
		}
	}

	r.logger.Sugar().Infow("Relayer stopped")
	return nil
}
