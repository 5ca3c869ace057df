package relayerConfig

import (
	"testing"

	"github.com/Meridian-Labs/porthmos/contracts"
	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validYaml = `
---
sourceChain:
  name: sepolia
  chainId: 11155111
  rpcUrl: https://sepolia.infura.io/v3/YOUR_INFURA_PROJECT_ID
  contractAddress: "0x1111111111111111111111111111111111111111"
destinationChain:
  name: linea-goerli
  chainId: 59140
  rpcUrl: https://rpc.goerli.linea.build
  contractAddress: "0x2222222222222222222222222222222222222222"
compliance:
  baseUrl: https://compliance.example.com
`
	invalidYaml = `
---
sourceChain:
  chainId: True
  rpcUrl: https://sepolia.infura.io/v3/YOUR_INFURA_PROJECT_ID
`

	validJson = `
{
	"sourceChain": {
		"name": "sepolia",
		"chainId": 11155111,
		"rpcUrl": "https://sepolia.infura.io/v3/YOUR_INFURA_PROJECT_ID",
		"contractAddress": "0x1111111111111111111111111111111111111111"
	},
	"destinationChain": {
		"name": "linea-goerli",
		"chainId": 59140,
		"rpcUrl": "https://rpc.goerli.linea.build",
		"contractAddress": "0x2222222222222222222222222222222222222222"
	},
	"compliance": {
		"baseUrl": "https://compliance.example.com"
	}
}`
	invalidJson = `
{
	"sourceChain": {
		"name": 5679,
		"chainId": "not-a-chain"
	}
}`
)

func Test_RelayerConfig(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		t.Run("Should create a new relayer config from a json string", func(t *testing.T) {
			c, err := NewRelayerConfigFromJsonBytes([]byte(validJson))
			assert.Nil(t, err)
			assert.NotNil(t, c)
			assert.Equal(t, config.ChainId_EthereumSepolia, c.SourceChain.ChainId)
			assert.Equal(t, config.ChainId_LineaGoerli, c.DestinationChain.ChainId)
		})
		t.Run("Should fail to create a new relayer config from an invalid json string", func(t *testing.T) {
			c, err := NewRelayerConfigFromJsonBytes([]byte(invalidJson))
			assert.NotNil(t, err)
			assert.Nil(t, c)
		})
	})
	t.Run("YAML", func(t *testing.T) {
		t.Run("Should create a new relayer config from a yaml string", func(t *testing.T) {
			c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
			assert.Nil(t, err)
			assert.NotNil(t, c)
			assert.Equal(t, "https://compliance.example.com", c.Compliance.BaseUrl)
		})
		t.Run("Should fail to create a new relayer config from an invalid yaml string", func(t *testing.T) {
			c, err := NewRelayerConfigFromYamlBytes([]byte(invalidYaml))
			assert.NotNil(t, err)
			assert.Nil(t, c)
		})
	})
}

func Test_RelayerConfigValidate(t *testing.T) {
	t.Run("Should apply defaults to a minimal config", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)

		err = c.Validate()
		require.NoError(t, err)

		assert.Equal(t, DefaultPollIntervalSeconds, c.PollIntervalSeconds)
		assert.Equal(t, uint64(DefaultConfirmationDepth), c.ConfirmationDepth)
		assert.Equal(t, DefaultSourceEventName, c.SourceEventName)
		assert.Equal(t, DefaultDestinationFunctionName, c.DestinationFunctionName)
		assert.Equal(t, DefaultSourceContractAbi, c.SourceChain.ContractAbi)
		assert.Equal(t, DefaultDestinationContractAbi, c.DestinationChain.ContractAbi)
		assert.Equal(t, DefaultComplianceCheckType, c.Compliance.CheckType)
		assert.Equal(t, DefaultComplianceTimeoutSeconds, c.Compliance.TimeoutSeconds)
		assert.Equal(t, DefaultDenylist, c.Compliance.Denylist)
		assert.Equal(t, StorageTypeMemory, c.Storage.Type)
	})

	t.Run("Should fall back to the reference deployment addresses", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)
		c.SourceChain.ContractAddress = ""
		c.DestinationChain.ContractAddress = ""

		err = c.Validate()
		require.NoError(t, err)

		vaultAddr, err := contracts.GetContractAddress(contracts.ContractTokenVault, config.ChainId_EthereumSepolia)
		require.NoError(t, err)
		assert.Equal(t, vaultAddr.String(), c.SourceChain.ContractAddress)

		escrowAddr, err := contracts.GetContractAddress(contracts.ContractBridgeEscrow, config.ChainId_LineaGoerli)
		require.NoError(t, err)
		assert.Equal(t, escrowAddr.String(), c.DestinationChain.ContractAddress)
	})

	t.Run("Should require both chains", func(t *testing.T) {
		c := &RelayerConfig{
			Compliance: &ComplianceConfig{BaseUrl: "https://compliance.example.com"},
		}

		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sourceChain is required")
		assert.Contains(t, err.Error(), "destinationChain is required")
	})

	t.Run("Should reject an unsupported chainId", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)
		c.SourceChain.ChainId = 1234

		err = c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported chainId")
	})

	t.Run("Should reject identical source and destination chains", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)
		c.DestinationChain.ChainId = c.SourceChain.ChainId

		err = c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "destination chainId must differ from source chainId")
	})

	t.Run("Should require a compliance baseUrl", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)
		c.Compliance.BaseUrl = ""

		err = c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "baseUrl is required")
	})

	t.Run("Should require a badger directory when storage type is badger", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)
		c.Storage = &StorageConfig{Type: StorageTypeBadger, BadgerConfig: &BadgerConfig{}}

		err = c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "badger directory is required")
	})

	t.Run("Should accept in-memory badger storage without a directory", func(t *testing.T) {
		c, err := NewRelayerConfigFromYamlBytes([]byte(validYaml))
		require.NoError(t, err)
		c.Storage = &StorageConfig{Type: StorageTypeBadger, BadgerConfig: &BadgerConfig{InMemory: true}}

		err = c.Validate()
		require.NoError(t, err)
	})
}
