// Package eventParser decodes raw Ethereum event logs into structured,
// typed representations using a contract ABI.
package eventParser

// DecodedLog represents a decoded Ethereum event log with its arguments and
// metadata.
type DecodedLog struct {
	// LogIndex is the position of the log in the block
	LogIndex uint
	// Address is the contract address that emitted the event
	Address string
	// Arguments contains the decoded event parameters
	Arguments []Argument
	// EventName is the name of the emitted event
	EventName string
	// OutputData contains the decoded non-indexed event data as a map
	OutputData map[string]interface{}
	// BlockNumber is the block the log was included in
	BlockNumber uint64
	// TransactionHash is the hash of the emitting transaction
	TransactionHash string
}

// Argument represents a single parameter in a decoded event log.
type Argument struct {
	// Name is the parameter name
	Name string
	// Type is the Solidity type of the parameter
	Type string
	// Value is the actual parameter value
	Value interface{}
	// Indexed indicates whether this was an indexed event parameter
	Indexed bool
}
