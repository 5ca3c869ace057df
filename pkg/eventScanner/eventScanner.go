// Package eventScanner walks the source chain's confirmed block range and
// extracts deposit events for relaying.
//
// A scanner tracks a durable cursor per (chain, contract, event) tuple. Each
// Scan covers [cursor+1, latest-confirmationDepth] so that blocks still at
// risk of reorganization are never read. The cursor only advances when a
// range has been fetched successfully, or when the chain has pruned the range
// out from under us and waiting would stall the pipeline forever.
package eventScanner

import (
	"context"
	"strconv"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/ledger"
	"github.com/Meridian-Labs/porthmos/pkg/metrics"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
	"github.com/Meridian-Labs/porthmos/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type EventScannerConfig struct {
	ChainId           config.ChainId
	ContractAddress   string
	EventName         string
	ConfirmationDepth uint64
}

type EventScanner struct {
	ledgerClient ledger.Client
	store        relayStore.RelayStore
	config       *EventScannerConfig
	logger       *zap.Logger
	chainLabel   string
}

func NewEventScanner(
	ledgerClient ledger.Client,
	store relayStore.RelayStore,
	cfg *EventScannerConfig,
	logger *zap.Logger,
) *EventScanner {
	return &EventScanner{
		ledgerClient: ledgerClient,
		store:        store,
		config:       cfg,
		logger:       logger,
		chainLabel:   strconv.FormatUint(uint64(cfg.ChainId), 10),
	}
}

// Scan fetches the deposit events in the next confirmed block range and
// advances the cursor past it. Chain-side failures hold the cursor and yield
// an empty batch so the next cycle retries the same range; only storage
// failures are returned as errors.
func (es *EventScanner) Scan(ctx context.Context) ([]*types.RelayEvent, error) {
	sugar := es.logger.Sugar()

	start := time.Now()
	defer func() {
		metrics.ScanDuration.WithLabelValues(es.chainLabel).Observe(time.Since(start).Seconds())
	}()

	latest, err := es.ledgerClient.LatestBlockNumber(ctx)
	if err != nil {
		sugar.Warnw("Could not fetch latest block, skipping scan cycle",
			"chainId", es.config.ChainId,
			"error", err,
		)
		metrics.ScanFaults.WithLabelValues(es.chainLabel, "transient").Inc()
		return nil, nil
	}
	metrics.LatestBlock.WithLabelValues(es.chainLabel).Set(float64(latest))

	if latest < es.config.ConfirmationDepth {
		sugar.Debugw("Chain is shorter than the confirmation depth, nothing to scan",
			"chainId", es.config.ChainId,
			"latestBlock", latest,
			"confirmationDepth", es.config.ConfirmationDepth,
		)
		return nil, nil
	}
	toBlock := latest - es.config.ConfirmationDepth

	lastScanned, err := es.store.GetLastScannedBlock(ctx, es.config.ChainId, es.config.ContractAddress, es.config.EventName)
	if err != nil {
		if !errors.Is(err, relayStore.ErrNotFound) {
			return nil, errors.Wrapf(err, "failed to load scan cursor")
		}

		// First scan for this contract and event. Start at the current tip
		// so deposit history is not replayed.
		if err := es.store.SetLastScannedBlock(ctx, es.config.ChainId, es.config.ContractAddress, es.config.EventName, latest); err != nil {
			return nil, errors.Wrapf(err, "failed to initialize scan cursor")
		}
		sugar.Infow("Initialized scan cursor",
			"chainId", es.config.ChainId,
			"contractAddress", es.config.ContractAddress,
			"eventName", es.config.EventName,
			"block", latest,
		)
		lastScanned = latest
	}
	fromBlock := lastScanned + 1

	if fromBlock > toBlock {
		sugar.Debugw("Waiting for more blocks to meet confirmation threshold",
			"chainId", es.config.ChainId,
			"latestBlock", latest,
			"lastScannedBlock", lastScanned,
		)
		return nil, nil
	}

	sugar.Infow("Scanning for events",
		"chainId", es.config.ChainId,
		"eventName", es.config.EventName,
		"fromBlock", fromBlock,
		"toBlock", toBlock,
	)

	events, err := es.ledgerClient.FetchEvents(ctx, es.config.ContractAddress, es.config.EventName, fromBlock, toBlock)
	if err != nil {
		if errors.Is(err, ledger.ErrRangeUnavailable) {
			// The node cannot serve this range anymore. Skip past it,
			// otherwise every future cycle re-requests the same dead range.
			sugar.Warnw("Block range unavailable, advancing cursor past it",
				"chainId", es.config.ChainId,
				"fromBlock", fromBlock,
				"toBlock", toBlock,
				"error", err,
			)
			metrics.ScanFaults.WithLabelValues(es.chainLabel, "range_unavailable").Inc()
			if err := es.store.SetLastScannedBlock(ctx, es.config.ChainId, es.config.ContractAddress, es.config.EventName, toBlock); err != nil {
				return nil, errors.Wrapf(err, "failed to persist scan cursor")
			}
			metrics.LastScannedBlock.WithLabelValues(es.chainLabel).Set(float64(toBlock))
			return nil, nil
		}

		sugar.Warnw("Failed to fetch events, holding scan cursor",
			"chainId", es.config.ChainId,
			"fromBlock", fromBlock,
			"toBlock", toBlock,
			"error", err,
		)
		metrics.ScanFaults.WithLabelValues(es.chainLabel, "transient").Inc()
		return nil, nil
	}

	// The cursor advances whether or not the range held events.
	if err := es.store.SetLastScannedBlock(ctx, es.config.ChainId, es.config.ContractAddress, es.config.EventName, toBlock); err != nil {
		return nil, errors.Wrapf(err, "failed to persist scan cursor")
	}
	metrics.LastScannedBlock.WithLabelValues(es.chainLabel).Set(float64(toBlock))
	metrics.EventsScanned.WithLabelValues(es.chainLabel).Add(float64(len(events)))

	if len(events) > 0 {
		sugar.Infow("Found new events",
			"chainId", es.config.ChainId,
			"eventName", es.config.EventName,
			"eventCount", len(events),
		)
	}

	return events, nil
}
