package ethereum

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const rtyAttNum = uint(5)

var (
	rtyAtt = retry.Attempts(rtyAttNum)
	rtyDel = retry.Delay(time.Millisecond * 400)
	rtyErr = retry.LastErrorOnly(true)
)

type EthereumClientConfig struct {
	BaseUrl string
}

// Client wraps an ethclient connection to a single JSON-RPC endpoint.
// Dialing is lazy and the underlying connection is cached; read calls are
// retried with a bounded backoff before the error is surfaced to the
// caller.
type Client struct {
	config *EthereumClientConfig

	ethClientMu sync.Mutex
	ethClient   *ethclient.Client

	logger *zap.Logger
}

func NewEthereumClient(config *EthereumClientConfig, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
	}
}

// GetEthereumContractCaller returns the cached ethclient, dialing the
// endpoint on first use.
func (c *Client) GetEthereumContractCaller() (*ethclient.Client, error) {
	c.ethClientMu.Lock()
	defer c.ethClientMu.Unlock()

	if c.ethClient != nil {
		return c.ethClient, nil
	}

	client, err := ethclient.Dial(c.config.BaseUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial ethereum endpoint %s", c.config.BaseUrl)
	}
	c.ethClient = client
	return c.ethClient, nil
}

func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	client, err := c.GetEthereumContractCaller()
	if err != nil {
		return 0, err
	}

	var blockNumber uint64
	err = retry.Do(func() error {
		var rpcErr error
		blockNumber, rpcErr = client.BlockNumber(ctx)
		return rpcErr
	}, rtyAtt, rtyDel, rtyErr, retry.Context(ctx), retry.OnRetry(func(n uint, err error) {
		c.logger.Sugar().Debugw("Retrying latest block fetch", "attempt", n, "error", err)
	}))
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch latest block number")
	}
	return blockNumber, nil
}

func (c *Client) GetChainId(ctx context.Context) (*big.Int, error) {
	client, err := c.GetEthereumContractCaller()
	if err != nil {
		return nil, err
	}

	var chainId *big.Int
	err = retry.Do(func() error {
		var rpcErr error
		chainId, rpcErr = client.ChainID(ctx)
		return rpcErr
	}, rtyAtt, rtyDel, rtyErr, retry.Context(ctx), retry.OnRetry(func(n uint, err error) {
		c.logger.Sugar().Debugw("Retrying chain id fetch", "attempt", n, "error", err)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch chain id")
	}
	return chainId, nil
}

// GetLogs fetches every log emitted by the given contract in the inclusive
// block range [fromBlock, toBlock].
func (c *Client) GetLogs(ctx context.Context, address string, fromBlock uint64, toBlock uint64) ([]ethereumTypes.Log, error) {
	client, err := c.GetEthereumContractCaller()
	if err != nil {
		return nil, err
	}

	query := goethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{common.HexToAddress(address)},
	}

	var logs []ethereumTypes.Log
	err = retry.Do(func() error {
		var rpcErr error
		logs, rpcErr = client.FilterLogs(ctx, query)
		return rpcErr
	}, rtyAtt, rtyDel, rtyErr, retry.Context(ctx), retry.OnRetry(func(n uint, err error) {
		c.logger.Sugar().Debugw("Retrying log fetch",
			"attempt", n,
			"fromBlock", fromBlock,
			"toBlock", toBlock,
			"error", err,
		)
	}))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch logs for range [%d, %d]", fromBlock, toBlock)
	}
	return logs, nil
}

func (c *Client) Close() {
	c.ethClientMu.Lock()
	defer c.ethClientMu.Unlock()

	if c.ethClient != nil {
		c.ethClient.Close()
		c.ethClient = nil
	}
}
