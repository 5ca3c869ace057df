package contracts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Names of the bridge contracts whose ABIs are embedded in this package.
const (
	ContractTokenVault   = "TokenVault"
	ContractBridgeEscrow = "BridgeEscrow"
)

//go:embed abi
var abis embed.FS

// TokenVaultAbiJson is the raw ABI of the source-chain vault contract that
// emits DepositMade events.
//
//go:embed abi/TokenVault.abi.json
var TokenVaultAbiJson string

// BridgeEscrowAbiJson is the raw ABI of the destination-chain escrow
// contract that exposes releaseTokens.
//
//go:embed abi/BridgeEscrow.abi.json
var BridgeEscrowAbiJson string

func GetContractAbi(contractName string) (*abi.ABI, error) {
	abiFile := fmt.Sprintf("abi/%s.abi.json", contractName)
	abiBytes, err := abis.ReadFile(abiFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded ABI file %s: %w", abiFile, err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(abiBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &parsedABI, nil
}
