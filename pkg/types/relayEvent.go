package types

import (
	"fmt"
	"math/big"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/eventParser"
	"github.com/ethereum/go-ethereum/common"
)

// RelayEvent is an immutable deposit observed on the source chain, decoded
// from a DepositMade log. It is produced by the event scanner and consumed
// once by the relay processor.
type RelayEvent struct {
	Sender             string
	Recipient          string
	Amount             *big.Int
	DestinationChainId *big.Int
	Nonce              *big.Int
	SourceChainId      config.ChainId
	SourceBlock        uint64
	LogIndex           uint
	TransactionHash    string
}

// NewRelayEventFromLog builds a RelayEvent from a decoded DepositMade log.
// Sender and recipient are the indexed arguments; amount, destination chain
// and nonce come from the log data.
func NewRelayEventFromLog(lg *eventParser.DecodedLog, chainId config.ChainId) (*RelayEvent, error) {
	if len(lg.Arguments) < 2 {
		return nil, fmt.Errorf("deposit log has too few arguments")
	}

	sender, ok := lg.Arguments[0].Value.(common.Address)
	if !ok {
		return nil, fmt.Errorf("failed to parse deposit sender")
	}
	recipient, ok := lg.Arguments[1].Value.(common.Address)
	if !ok {
		return nil, fmt.Errorf("failed to parse deposit recipient")
	}
	amount, ok := lg.OutputData["amount"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse deposit amount")
	}
	destinationChainId, ok := lg.OutputData["destinationChainId"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse deposit destination chain id")
	}
	nonce, ok := lg.OutputData["nonce"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse deposit nonce")
	}

	return &RelayEvent{
		Sender:             sender.String(),
		Recipient:          recipient.String(),
		Amount:             amount,
		DestinationChainId: destinationChainId,
		Nonce:              nonce,
		SourceChainId:      chainId,
		SourceBlock:        lg.BlockNumber,
		LogIndex:           lg.LogIndex,
		TransactionHash:    lg.TransactionHash,
	}, nil
}
