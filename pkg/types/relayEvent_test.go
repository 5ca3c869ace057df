package types

import (
	"math/big"
	"testing"

	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/eventParser"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDepositLog() *eventParser.DecodedLog {
	return &eventParser.DecodedLog{
		LogIndex:        3,
		Address:         "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
		EventName:       "DepositMade",
		BlockNumber:     12345,
		TransactionHash: "0x9d1e0c4a3b88f4e3c0a3f20d70f56bfa3f5783e96c56a0ff90810c6aa8f72b31",
		Arguments: []eventParser.Argument{
			{Name: "sender", Type: "address", Indexed: true, Value: common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1")},
			{Name: "recipient", Type: "address", Indexed: true, Value: common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")},
			{Name: "amount", Type: "uint256", Indexed: false},
			{Name: "destinationChainId", Type: "uint256", Indexed: false},
			{Name: "nonce", Type: "uint256", Indexed: false},
		},
		OutputData: map[string]interface{}{
			"amount":             big.NewInt(1000000),
			"destinationChainId": big.NewInt(59140),
			"nonce":              big.NewInt(42),
		},
	}
}

func TestNewRelayEventFromLog(t *testing.T) {
	lg := validDepositLog()

	event, err := NewRelayEventFromLog(lg, config.ChainId_EthereumSepolia)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1", event.Sender)
	assert.Equal(t, "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", event.Recipient)
	assert.Equal(t, big.NewInt(1000000), event.Amount)
	assert.Equal(t, big.NewInt(59140), event.DestinationChainId)
	assert.Equal(t, big.NewInt(42), event.Nonce)
	assert.Equal(t, config.ChainId_EthereumSepolia, event.SourceChainId)
	assert.Equal(t, uint64(12345), event.SourceBlock)
	assert.Equal(t, uint(3), event.LogIndex)
	assert.Equal(t, lg.TransactionHash, event.TransactionHash)
}

func TestNewRelayEventFromLog_InvalidLogs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(lg *eventParser.DecodedLog)
		wantErr string
	}{
		{
			name: "missing arguments",
			mutate: func(lg *eventParser.DecodedLog) {
				lg.Arguments = nil
			},
			wantErr: "too few arguments",
		},
		{
			name: "sender not an address",
			mutate: func(lg *eventParser.DecodedLog) {
				lg.Arguments[0].Value = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1"
			},
			wantErr: "failed to parse deposit sender",
		},
		{
			name: "recipient missing",
			mutate: func(lg *eventParser.DecodedLog) {
				lg.Arguments[1].Value = nil
			},
			wantErr: "failed to parse deposit recipient",
		},
		{
			name: "amount missing",
			mutate: func(lg *eventParser.DecodedLog) {
				delete(lg.OutputData, "amount")
			},
			wantErr: "failed to parse deposit amount",
		},
		{
			name: "destination chain id wrong type",
			mutate: func(lg *eventParser.DecodedLog) {
				lg.OutputData["destinationChainId"] = uint64(59140)
			},
			wantErr: "failed to parse deposit destination chain id",
		},
		{
			name: "nonce missing",
			mutate: func(lg *eventParser.DecodedLog) {
				delete(lg.OutputData, "nonce")
			},
			wantErr: "failed to parse deposit nonce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg := validDepositLog()
			tt.mutate(lg)

			event, err := NewRelayEventFromLog(lg, config.ChainId_EthereumSepolia)
			require.Error(t, err)
			assert.Nil(t, event)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
