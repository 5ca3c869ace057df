package eventParser

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EventParser decodes event logs emitted by a single contract ABI.
type EventParser struct {
	abi    *abi.ABI
	logger *zap.Logger
}

func NewEventParser(abi *abi.ABI, logger *zap.Logger) *EventParser {
	return &EventParser{
		abi:    abi,
		logger: logger,
	}
}

// DecodeLog decodes a log using the configured ABI. It extracts the event
// name, indexed arguments from the topics and non-indexed data from the log
// payload. Logs whose first topic does not match any ABI event return an
// error from EventByID and are expected to be skipped by the caller.
func (ep *EventParser) DecodeLog(lg *ethereumTypes.Log) (*DecodedLog, error) {
	ep.logger.Sugar().Debugw("Decoding log",
		"txHash", lg.TxHash.String(),
		"address", lg.Address.String(),
	)

	if ep.abi == nil {
		return nil, errors.New("no ABI provided for decoding log")
	}

	topicHash := common.Hash{}
	if len(lg.Topics) > 0 {
		topicHash = lg.Topics[0]
	}

	decodedLog := &DecodedLog{
		Address:         lg.Address.String(),
		LogIndex:        lg.Index,
		BlockNumber:     lg.BlockNumber,
		TransactionHash: lg.TxHash.String(),
	}

	event, err := ep.abi.EventByID(topicHash)
	if err != nil {
		return decodedLog, err
	}

	decodedLog.EventName = event.RawName
	decodedLog.Arguments = make([]Argument, len(event.Inputs))

	for i, input := range event.Inputs {
		decodedLog.Arguments[i] = Argument{
			Name:    input.Name,
			Type:    input.Type.String(),
			Indexed: input.Indexed,
		}
	}

	indexedSeen := 0
	for i, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if indexedSeen+1 >= len(lg.Topics) {
			break
		}
		value, err := parseLogValueForType(input, lg.Topics[indexedSeen+1])
		if err != nil {
			ep.logger.Sugar().Errorw("Failed to parse log value for type",
				"argument", input.Name,
				"error", err,
			)
		} else {
			decodedLog.Arguments[i].Value = value
		}
		indexedSeen++
	}

	if len(lg.Data) > 0 {
		outputDataMap := make(map[string]interface{})
		if err := ep.abi.UnpackIntoMap(outputDataMap, event.Name, lg.Data); err != nil {
			ep.logger.Sugar().Errorw("Failed to unpack log data",
				"txHash", lg.TxHash.String(),
				"address", lg.Address.String(),
				"eventName", event.Name,
				"error", err,
			)
			return nil, errors.New("failed to unpack log data")
		}
		decodedLog.OutputData = outputDataMap
	}

	return decodedLog, nil
}

// parseLogValueForType converts an indexed topic word to a Go value based
// on the ABI argument type. Dynamic types (strings, bytes) are indexed as
// their keccak hash, so they stay hex encoded.
func parseLogValueForType(argument abi.Argument, topic common.Hash) (interface{}, error) {
	switch argument.Type.T {
	case abi.IntTy, abi.UintTy:
		return abi.ReadInteger(argument.Type, topic.Bytes())
	case abi.BoolTy:
		return readBool(topic.Bytes())
	case abi.AddressTy:
		return common.HexToAddress(topic.Hex()), nil
	case abi.StringTy:
		return topic.Hex(), nil
	case abi.BytesTy, abi.FixedBytesTy:
		return topic.Hex(), nil
	default:
		return topic.Hex(), nil
	}
}

var (
	errBadBool = fmt.Errorf("abi: improperly encoded boolean value")
)

// readBool converts a 32-byte word to a boolean. Valid encodings have all
// bytes except the last set to zero and the last set to 0 or 1.
func readBool(word []byte) (bool, error) {
	for _, b := range word[:31] {
		if b != 0 {
			return false, errBadBool
		}
	}
	switch word[31] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errBadBool
	}
}
