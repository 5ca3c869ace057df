package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsServer serves the Prometheus scrape endpoint and a liveness probe.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

func NewMetricsServer(port int, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start begins serving in the background. Listen failures after startup are
// logged rather than returned.
func (ms *MetricsServer) Start(ctx context.Context) error {
	go func() {
		ms.logger.Sugar().Infow("Metrics server listening",
			zap.String("addr", ms.server.Addr),
		)
		if err := ms.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ms.logger.Sugar().Errorw("Metrics server failed", zap.Error(err))
		}
	}()
	return nil
}

// Close drains in-flight scrapes and stops the server.
func (ms *MetricsServer) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return ms.server.Shutdown(shutdownCtx)
}
