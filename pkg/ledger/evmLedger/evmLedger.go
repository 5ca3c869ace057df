package evmLedger

import (
	"context"
	"math/big"
	"sort"
	"strings"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/eventParser"
	"github.com/Meridian-Labs/porthmos/pkg/ledger"
	"github.com/Meridian-Labs/porthmos/pkg/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EthereumCaller is the slice of the ethereum client the ledger client
// needs. Satisfied by *ethereum.Client.
type EthereumCaller interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
	GetChainId(ctx context.Context) (*big.Int, error)
	GetLogs(ctx context.Context, address string, fromBlock uint64, toBlock uint64) ([]ethereumTypes.Log, error)
	Close()
}

type EVMLedgerClientConfig struct {
	ChainId config.ChainId
	// ContractAbi is the JSON ABI of the contract this client reads events
	// from and submits calls to.
	ContractAbi string
}

// EVMLedgerClient implements the ledger capability against an EVM JSON-RPC
// endpoint. Reads are live chain queries; SubmitTransaction packs real
// calldata but simulates the broadcast, since signing and gas policy live
// outside this system.
type EVMLedgerClient struct {
	config      *EVMLedgerClientConfig
	ethClient   EthereumCaller
	contractAbi *abi.ABI
	parser      *eventParser.EventParser
	logger      *zap.Logger
}

func NewEVMLedgerClient(
	cfg *EVMLedgerClientConfig,
	ethClient EthereumCaller,
	logger *zap.Logger,
) (*EVMLedgerClient, error) {
	parsedAbi, err := abi.JSON(strings.NewReader(cfg.ContractAbi))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse contract ABI for chain %d", cfg.ChainId)
	}

	return &EVMLedgerClient{
		config:      cfg,
		ethClient:   ethClient,
		contractAbi: &parsedAbi,
		parser:      eventParser.NewEventParser(&parsedAbi, logger),
		logger:      logger,
	}, nil
}

func (lc *EVMLedgerClient) ChainId(ctx context.Context) (config.ChainId, error) {
	chainId, err := lc.ethClient.GetChainId(ctx)
	if err != nil {
		return 0, err
	}
	return config.ChainId(chainId.Uint64()), nil
}

func (lc *EVMLedgerClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return lc.ethClient.GetLatestBlock(ctx)
}

func (lc *EVMLedgerClient) FetchEvents(
	ctx context.Context,
	contractAddress string,
	eventName string,
	fromBlock uint64,
	toBlock uint64,
) ([]*types.RelayEvent, error) {
	logs, err := lc.ethClient.GetLogs(ctx, contractAddress, fromBlock, toBlock)
	if err != nil {
		if isRangeUnavailable(err) {
			return nil, errors.Wrapf(ledger.ErrRangeUnavailable, "range [%d, %d]: %s", fromBlock, toBlock, err.Error())
		}
		return nil, err
	}

	events := make([]*types.RelayEvent, 0, len(logs))
	for i := range logs {
		decoded, err := lc.parser.DecodeLog(&logs[i])
		if err != nil {
			lc.logger.Sugar().Debugw("Skipping undecodable log",
				"txHash", logs[i].TxHash.String(),
				"logIndex", logs[i].Index,
				"error", err,
			)
			continue
		}
		if decoded.EventName != eventName {
			continue
		}

		event, err := types.NewRelayEventFromLog(decoded, lc.config.ChainId)
		if err != nil {
			lc.logger.Sugar().Warnw("Dropping malformed deposit event",
				"txHash", decoded.TransactionHash,
				"logIndex", decoded.LogIndex,
				"error", err,
			)
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].SourceBlock != events[j].SourceBlock {
			return events[i].SourceBlock < events[j].SourceBlock
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events, nil
}

// SubmitTransaction packs the call and simulates its broadcast. The
// returned hash is derived from the calldata and a per-attempt id so that
// repeated attempts produce distinct receipts, the way distinct broadcasts
// would.
func (lc *EVMLedgerClient) SubmitTransaction(
	ctx context.Context,
	contractAddress string,
	functionName string,
	args ...interface{},
) (*ledger.Receipt, error) {
	calldata, err := lc.contractAbi.Pack(functionName, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack calldata for %s", functionName)
	}

	submissionId := uuid.New()
	txHash := crypto.Keccak256Hash(
		common.HexToAddress(contractAddress).Bytes(),
		calldata,
		submissionId[:],
	)

	lc.logger.Sugar().Infow("Simulating transaction submission",
		"chainId", lc.config.ChainId,
		"contractAddress", contractAddress,
		"functionName", functionName,
		"calldataBytes", len(calldata),
		"submissionId", submissionId.String(),
		"txHash", txHash.String(),
	)

	return &ledger.Receipt{
		TransactionHash: txHash.String(),
		ContractAddress: contractAddress,
		FunctionName:    functionName,
		Simulated:       true,
	}, nil
}

func (lc *EVMLedgerClient) Close() error {
	lc.ethClient.Close()
	return nil
}

// rangeUnavailableMarkers are substrings seen in node responses when the
// queried range is pruned or ahead of the node's sync state.
var rangeUnavailableMarkers = []string{
	"missing trie node",
	"header not found",
	"block range",
	"pruned",
}

func isRangeUnavailable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range rangeUnavailableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
