package complianceGate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/logger"
	"github.com/Meridian-Labs/porthmos/pkg/relayer/relayerConfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComplianceGate(t *testing.T) {
	l, loggerErr := logger.NewLogger(&logger.LoggerConfig{
		Debug: false,
	})
	assert.Nil(t, loggerErr)

	t.Run("with default config", func(t *testing.T) {
		gate, err := NewComplianceGate(DefaultConfig(), l)
		require.NoError(t, err)
		assert.NotNil(t, gate)
		assert.NotNil(t, gate.config)
		assert.Equal(t, "http://localhost:8090", gate.config.BaseUrl)
		assert.Equal(t, "sanctions", gate.config.CheckType)
		assert.Equal(t, 5*time.Second, gate.config.Timeout)
	})

	t.Run("with custom config", func(t *testing.T) {
		cfg := &Config{
			BaseUrl:   "http://custom:8080",
			CheckType: "aml",
			Timeout:   10 * time.Second,
		}
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)
		assert.NotNil(t, gate)
		assert.Equal(t, "http://custom:8080", gate.config.BaseUrl)
		assert.Equal(t, "aml", gate.config.CheckType)
	})

	t.Run("with nil config", func(t *testing.T) {
		gate, err := NewComplianceGate(nil, l)
		assert.Error(t, err)
		assert.Nil(t, gate)
		assert.Contains(t, err.Error(), "cfg cannot be nil")
	})

	t.Run("with nil logger", func(t *testing.T) {
		gate, err := NewComplianceGate(DefaultConfig(), nil)
		assert.Error(t, err)
		assert.Nil(t, gate)
		assert.Contains(t, err.Error(), "logger cannot be nil")
	})

	t.Run("from compliance config section", func(t *testing.T) {
		gate, err := NewComplianceGateFromComplianceConfig(&relayerConfig.ComplianceConfig{
			BaseUrl:        "http://compliance:8090",
			CheckType:      "aml",
			TimeoutSeconds: 3,
			Denylist:       []string{"0xBAD"},
		}, l)
		require.NoError(t, err)
		assert.Equal(t, "http://compliance:8090", gate.config.BaseUrl)
		assert.Equal(t, "aml", gate.config.CheckType)
		assert.Equal(t, 3*time.Second, gate.config.Timeout)
		assert.True(t, gate.denylist["0xbad"])
	})
}

func TestComplianceGate_IsPermitted(t *testing.T) {
	l, loggerErr := logger.NewLogger(&logger.LoggerConfig{
		Debug: false,
	})
	assert.Nil(t, loggerErr)

	t.Run("permits an address the service accepts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req ComplianceCheckRequest
			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)
			assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", req.Address)
			assert.Equal(t, "sanctions", req.CheckType)

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.True(t, gate.IsPermitted(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	})

	t.Run("refuses a denylisted address without calling the service", func(t *testing.T) {
		var called atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), "0x000000000000000000000000000000000000dEaD"))
		assert.False(t, called.Load())
	})

	t.Run("matches denylist entries case-insensitively", func(t *testing.T) {
		var called atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), "0x000000000000000000000000000000000000DEAD"))
		assert.False(t, called.Load())
	})

	t.Run("refuses when the service returns an error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("address blocked"))
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	})

	t.Run("refuses any non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotModified)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	})

	t.Run("refuses when the service is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	})

	t.Run("refuses when the request times out", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		cfg.Timeout = 50 * time.Millisecond
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	})

	t.Run("refuses an empty address", func(t *testing.T) {
		var called atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseUrl = server.URL
		gate, err := NewComplianceGate(cfg, l)
		require.NoError(t, err)

		assert.False(t, gate.IsPermitted(context.Background(), ""))
		assert.False(t, called.Load())
	})
}

func TestComplianceError_Error(t *testing.T) {
	err := &ComplianceError{
		Code:    403,
		Message: "address blocked",
	}

	expected := "Compliance service error 403: address blocked"
	assert.Equal(t, expected, err.Error())
}
