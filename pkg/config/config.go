package config

import "strings"

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_LineaMainnet    ChainId = 59144
	ChainId_LineaGoerli     ChainId = 59140
)

var (
	SupportedChainIds = []ChainId{
		ChainId_EthereumMainnet,
		ChainId_EthereumSepolia,
		ChainId_LineaMainnet,
		ChainId_LineaGoerli,
	}
)

// KebabToSnakeCase converts a kebab-case flag name into the snake_case key
// viper uses once SetEnvKeyReplacer has been applied.
func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

// NormalizeFlagName maps a CLI flag name to its viper lookup key.
func NormalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}

func IsSupportedChainId(id ChainId) bool {
	for _, supported := range SupportedChainIds {
		if supported == id {
			return true
		}
	}
	return false
}
