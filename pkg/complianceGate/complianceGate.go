// Package complianceGate screens deposit senders before their funds are
// released on the destination chain.
//
// A gate combines two layers. A local denylist is consulted first and refuses
// matching addresses without any network traffic. Everything else is checked
// against an external compliance service over HTTP. The gate fails closed: if
// the service is unreachable, times out, or answers with an error status, the
// address is refused.
//
// Example usage:
//
//	cfg := complianceGate.DefaultConfig()
//	cfg.BaseUrl = "https://compliance.example.com"
//	gate, err := complianceGate.NewComplianceGate(cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if gate.IsPermitted(ctx, "0xabc...") {
//		// forward the deposit
//	}
package complianceGate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/relayer/relayerConfig"
	"go.uber.org/zap"
)

// ComplianceGate decides whether an address may receive a relayed release.
type ComplianceGate struct {
	// Logger is used for logging gate decisions and debugging
	Logger *zap.Logger
	// httpClient is the underlying HTTP client used for requests
	httpClient *http.Client
	// config contains the gate configuration including base URL and timeout
	config *Config
	// denylist holds lowercased denylisted addresses for constant-time lookup
	denylist map[string]bool
}

// Config holds the configuration for the compliance gate.
type Config struct {
	// BaseUrl is the base URL of the compliance service (e.g., "http://localhost:8090")
	BaseUrl string
	// CheckType is the kind of screening requested from the service
	CheckType string
	// Timeout is the maximum duration for HTTP requests
	Timeout time.Duration
	// Denylist contains addresses that are always refused, in any casing
	Denylist []string
}

// DefaultConfig returns a default configuration for the compliance gate.
// The default configuration uses localhost:8090 as the base URL, a 5-second
// timeout, and a sanctions check.
func DefaultConfig() *Config {
	return &Config{
		BaseUrl:   "http://localhost:8090",
		CheckType: relayerConfig.DefaultComplianceCheckType,
		Timeout:   relayerConfig.DefaultComplianceTimeoutSeconds * time.Second,
		Denylist:  relayerConfig.DefaultDenylist,
	}
}

// NewComplianceGateFromComplianceConfig builds a gate from the relayer's
// compliance configuration section.
func NewComplianceGateFromComplianceConfig(cfg *relayerConfig.ComplianceConfig, l *zap.Logger) (*ComplianceGate, error) {
	gateConfig := DefaultConfig()
	if cfg != nil {
		gateConfig.BaseUrl = cfg.BaseUrl
		if cfg.CheckType != "" {
			gateConfig.CheckType = cfg.CheckType
		}
		if cfg.TimeoutSeconds > 0 {
			gateConfig.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		if cfg.Denylist != nil {
			gateConfig.Denylist = cfg.Denylist
		}
	}
	return NewComplianceGate(gateConfig, l)
}

// NewComplianceGate creates a new compliance gate with the given configuration
// and logger. Both cfg and logger must be non-nil.
func NewComplianceGate(cfg *Config, logger *zap.Logger) (*ComplianceGate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}

	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	denylist := make(map[string]bool, len(cfg.Denylist))
	for _, address := range cfg.Denylist {
		denylist[strings.ToLower(address)] = true
	}

	logger.Sugar().Debugw("Creating new compliance gate",
		zap.String("baseUrl", cfg.BaseUrl),
		zap.String("checkType", cfg.CheckType),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("denylistSize", len(denylist)),
	)

	return &ComplianceGate{
		Logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:   cfg,
		denylist: denylist,
	}, nil
}

// SetHttpClient allows setting a custom HTTP client for the compliance gate.
// This is useful for testing or when custom HTTP client configuration is needed.
func (g *ComplianceGate) SetHttpClient(client *http.Client) {
	g.httpClient = client
}

// IsPermitted reports whether funds may be released to the given address. It
// never returns an error: any failure to complete the check refuses the
// address.
func (g *ComplianceGate) IsPermitted(ctx context.Context, address string) bool {
	if address == "" {
		g.Logger.Sugar().Warnw("Refusing empty address")
		return false
	}

	if g.denylist[strings.ToLower(address)] {
		g.Logger.Sugar().Warnw("Address is on the local denylist",
			zap.String("address", address),
		)
		return false
	}

	if err := g.checkAddress(ctx, address); err != nil {
		g.Logger.Sugar().Errorw("Compliance check failed, refusing address",
			zap.String("address", address),
			zap.Error(err),
		)
		return false
	}

	g.Logger.Sugar().Debugw("Compliance check passed",
		zap.String("address", address),
	)
	return true
}

// checkAddress performs a single screening request against the compliance
// service. A nil return means the service accepted the address.
func (g *ComplianceGate) checkAddress(ctx context.Context, address string) error {
	request := ComplianceCheckRequest{
		Address:   address,
		CheckType: g.config.CheckType,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance check request: %w", err)
	}

	url := strings.TrimSuffix(g.config.BaseUrl, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	g.Logger.Sugar().Debugw("Making compliance check request",
		zap.String("address", address),
		zap.String("checkType", g.config.CheckType),
		zap.String("url", url),
	)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("compliance request failed: %w", err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	g.Logger.Sugar().Debugw("Compliance check response received",
		zap.Int("status_code", resp.StatusCode),
		zap.String("response", string(responseData)),
	)

	// Only a 2xx answer counts as approval.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.handleHTTPError(resp.StatusCode, responseData)
	}

	return nil
}

// handleHTTPError converts HTTP error responses into ComplianceError instances.
func (g *ComplianceGate) handleHTTPError(statusCode int, responseData []byte) error {
	errorMsg := string(responseData)

	return &ComplianceError{
		Code:    statusCode,
		Message: fmt.Sprintf("HTTP error %d: %s", statusCode, errorMsg),
	}
}
