package relayerConfig

import (
	"encoding/json"
	"slices"

	"github.com/Meridian-Labs/porthmos/contracts"
	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"
)

const (
	EnvPrefix = "PORTHMOS_"

	Debug = "debug"
)

const (
	StorageTypeMemory = "memory"
	StorageTypeBadger = "badger"
)

// Defaults applied by Validate when the corresponding field is unset.
const (
	DefaultPollIntervalSeconds = 15
	DefaultConfirmationDepth   = 6
	DefaultMetricsPort         = 9090

	DefaultSourceEventName         = "DepositMade"
	DefaultDestinationFunctionName = "releaseTokens"

	DefaultComplianceCheckType      = "sanctions"
	DefaultComplianceTimeoutSeconds = 5
)

// DefaultDenylist is the built-in set of addresses that are always refused,
// regardless of what the compliance service would say.
var DefaultDenylist = []string{
	"0x000000000000000000000000000000000000dEaD",
}

// DefaultSourceContractAbi covers the deposit event emitted by the token
// vault on the source chain.
var DefaultSourceContractAbi = contracts.TokenVaultAbiJson

// DefaultDestinationContractAbi covers the release function on the
// destination bridge escrow.
var DefaultDestinationContractAbi = contracts.BridgeEscrowAbiJson

type Chain struct {
	Name            string         `json:"name" yaml:"name"`
	ChainId         config.ChainId `json:"chainId" yaml:"chainId"`
	RpcUrl          string         `json:"rpcUrl" yaml:"rpcUrl"`
	ContractAddress string         `json:"contractAddress" yaml:"contractAddress"`
	ContractAbi     string         `json:"contractAbi,omitempty" yaml:"contractAbi,omitempty"`
}

func (c *Chain) Validate() field.ErrorList {
	var allErrors field.ErrorList
	if c.Name == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("name"), "name is required"))
	}
	if c.ChainId == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("chainId"), "chainId is required"))
	} else if !slices.Contains(config.SupportedChainIds, c.ChainId) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("chainId"), c.ChainId, "unsupported chainId"))
	}
	if c.RpcUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "rpcUrl is required"))
	}
	if c.ContractAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("contractAddress"), "contractAddress is required"))
	}
	return allErrors
}

// ComplianceConfig configures the screening step that every deposit sender
// must pass before a release is submitted.
type ComplianceConfig struct {
	BaseUrl        string   `json:"baseUrl" yaml:"baseUrl"`
	CheckType      string   `json:"checkType,omitempty" yaml:"checkType,omitempty"`
	TimeoutSeconds int      `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	Denylist       []string `json:"denylist,omitempty" yaml:"denylist,omitempty"`
}

func (cc *ComplianceConfig) Validate() field.ErrorList {
	var allErrors field.ErrorList
	if cc.CheckType == "" {
		cc.CheckType = DefaultComplianceCheckType
	}
	if cc.TimeoutSeconds == 0 {
		cc.TimeoutSeconds = DefaultComplianceTimeoutSeconds
	}
	if cc.Denylist == nil {
		cc.Denylist = slices.Clone(DefaultDenylist)
	}
	if cc.BaseUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("baseUrl"), "baseUrl is required"))
	}
	if cc.TimeoutSeconds < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeoutSeconds"), cc.TimeoutSeconds, "timeoutSeconds must be positive"))
	}
	return allErrors
}

// StorageConfig contains configuration for the storage layer
type StorageConfig struct {
	Type         string        `json:"type" yaml:"type"` // "memory" or "badger"
	BadgerConfig *BadgerConfig `json:"badger,omitempty" yaml:"badger,omitempty"`
}

// BadgerConfig contains configuration for BadgerDB storage
type BadgerConfig struct {
	// Directory where BadgerDB will store its data
	Dir string `json:"dir" yaml:"dir"`
	// InMemory runs BadgerDB in memory-only mode (for testing)
	InMemory bool `json:"inMemory,omitempty" yaml:"inMemory,omitempty"`
	// ValueLogFileSize sets the maximum size of a single value log file
	ValueLogFileSize int64 `json:"valueLogFileSize,omitempty" yaml:"valueLogFileSize,omitempty"`
	// NumVersionsToKeep sets how many versions to keep for each key
	NumVersionsToKeep int `json:"numVersionsToKeep,omitempty" yaml:"numVersionsToKeep,omitempty"`
	// NumLevelZeroTables sets the maximum number of level zero tables before stalling
	NumLevelZeroTables int `json:"numLevelZeroTables,omitempty" yaml:"numLevelZeroTables,omitempty"`
	// NumLevelZeroTablesStall sets the number of level zero tables that will trigger a stall
	NumLevelZeroTablesStall int `json:"numLevelZeroTablesStall,omitempty" yaml:"numLevelZeroTablesStall,omitempty"`
}

// Validate validates the StorageConfig
func (sc *StorageConfig) Validate() field.ErrorList {
	var allErrors field.ErrorList

	if sc.Type == "" {
		sc.Type = StorageTypeMemory
	}

	if sc.Type != StorageTypeMemory && sc.Type != StorageTypeBadger {
		allErrors = append(allErrors, field.Invalid(field.NewPath("type"), sc.Type, "type must be 'memory' or 'badger'"))
	}

	if sc.Type == StorageTypeBadger {
		if sc.BadgerConfig == nil {
			allErrors = append(allErrors, field.Required(field.NewPath("badger"), "badger configuration is required when type is 'badger'"))
		} else if sc.BadgerConfig.Dir == "" && !sc.BadgerConfig.InMemory {
			allErrors = append(allErrors, field.Required(field.NewPath("badger.dir"), "badger directory is required"))
		}
	}

	return allErrors
}

type RelayerConfig struct {
	Debug                   bool              `json:"debug" yaml:"debug"`
	MetricsPort             int               `json:"metricsPort,omitempty" yaml:"metricsPort,omitempty"`
	PollIntervalSeconds     int               `json:"pollIntervalSeconds,omitempty" yaml:"pollIntervalSeconds,omitempty"`
	ConfirmationDepth       uint64            `json:"confirmationDepth,omitempty" yaml:"confirmationDepth,omitempty"`
	SourceEventName         string            `json:"sourceEventName,omitempty" yaml:"sourceEventName,omitempty"`
	DestinationFunctionName string            `json:"destinationFunctionName,omitempty" yaml:"destinationFunctionName,omitempty"`
	SourceChain             *Chain            `json:"sourceChain" yaml:"sourceChain"`
	DestinationChain        *Chain            `json:"destinationChain" yaml:"destinationChain"`
	Compliance              *ComplianceConfig `json:"compliance" yaml:"compliance"`
	Storage                 *StorageConfig    `json:"storage,omitempty" yaml:"storage,omitempty"`
}

func (rc *RelayerConfig) Validate() error {
	var allErrors field.ErrorList

	if rc.PollIntervalSeconds == 0 {
		rc.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if rc.ConfirmationDepth == 0 {
		rc.ConfirmationDepth = DefaultConfirmationDepth
	}
	if rc.MetricsPort == 0 {
		rc.MetricsPort = DefaultMetricsPort
	}
	if rc.SourceEventName == "" {
		rc.SourceEventName = DefaultSourceEventName
	}
	if rc.DestinationFunctionName == "" {
		rc.DestinationFunctionName = DefaultDestinationFunctionName
	}
	if rc.Storage == nil {
		rc.Storage = &StorageConfig{Type: StorageTypeMemory}
	}

	if rc.PollIntervalSeconds < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("pollIntervalSeconds"), rc.PollIntervalSeconds, "pollIntervalSeconds must be positive"))
	}

	if rc.SourceChain == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("sourceChain"), "sourceChain is required"))
	} else {
		if rc.SourceChain.ContractAbi == "" {
			rc.SourceChain.ContractAbi = DefaultSourceContractAbi
		}
		if rc.SourceChain.ContractAddress == "" {
			if addr, err := contracts.GetContractAddress(contracts.ContractTokenVault, rc.SourceChain.ChainId); err == nil {
				rc.SourceChain.ContractAddress = addr.String()
			}
		}
		for _, err := range rc.SourceChain.Validate() {
			allErrors = append(allErrors, field.Invalid(field.NewPath("sourceChain"), rc.SourceChain, err.Error()))
		}
	}

	if rc.DestinationChain == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("destinationChain"), "destinationChain is required"))
	} else {
		if rc.DestinationChain.ContractAbi == "" {
			rc.DestinationChain.ContractAbi = DefaultDestinationContractAbi
		}
		if rc.DestinationChain.ContractAddress == "" {
			if addr, err := contracts.GetContractAddress(contracts.ContractBridgeEscrow, rc.DestinationChain.ChainId); err == nil {
				rc.DestinationChain.ContractAddress = addr.String()
			}
		}
		for _, err := range rc.DestinationChain.Validate() {
			allErrors = append(allErrors, field.Invalid(field.NewPath("destinationChain"), rc.DestinationChain, err.Error()))
		}
	}

	if rc.SourceChain != nil && rc.DestinationChain != nil && rc.SourceChain.ChainId == rc.DestinationChain.ChainId {
		allErrors = append(allErrors, field.Invalid(field.NewPath("destinationChain.chainId"), rc.DestinationChain.ChainId, "destination chainId must differ from source chainId"))
	}

	if rc.Compliance == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("compliance"), "compliance is required"))
	} else {
		for _, err := range rc.Compliance.Validate() {
			allErrors = append(allErrors, field.Invalid(field.NewPath("compliance"), rc.Compliance, err.Error()))
		}
	}

	for _, err := range rc.Storage.Validate() {
		allErrors = append(allErrors, field.Invalid(field.NewPath("storage"), rc.Storage, err.Error()))
	}

	return allErrors.ToAggregate()
}

func NewRelayerConfigFromJsonBytes(data []byte) (*RelayerConfig, error) {
	var c RelayerConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal RelayerConfig from JSON")
	}
	return &c, nil
}

func NewRelayerConfigFromYamlBytes(data []byte) (*RelayerConfig, error) {
	var c RelayerConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal RelayerConfig from YAML")
	}
	return &c, nil
}

func NewRelayerConfig() *RelayerConfig {
	return &RelayerConfig{
		Debug: viper.GetBool(config.NormalizeFlagName(Debug)),
		Storage: &StorageConfig{
			Type: StorageTypeMemory,
		},
	}
}
