package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/Meridian-Labs/porthmos/pkg/metrics"
	"github.com/Meridian-Labs/porthmos/pkg/shutdown"
	"go.uber.org/zap"
)

func RunWithShutdown(startFunc func(ctx context.Context) error, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := startFunc(ctx); err != nil {
		return err
	}

	gracefulShutdownNotifier := shutdown.CreateGracefulShutdownChannel()
	done := make(chan bool)

	shutdown.ListenForShutdown(gracefulShutdownNotifier, done, func() {
		logger.Sugar().Info("Shutting down relayer...")
		cancel()
	}, 5*time.Second, logger)

	return nil
}

func StopAll(components []Lifecycle, logger *zap.Logger, name string) {
	for _, c := range components {
		if err := c.Close(); err != nil {
			metrics.ComponentFailures.WithLabelValues(fmt.Sprintf("%T", c), "stop").Inc()
			logger.Sugar().Warnw(
				"Failed to stop component",
				"group",
				name, "type",
				fmt.Sprintf("%T", c),
				"error",
				err,
			)
		}
	}
}

func StartAll(components []Lifecycle, ctx context.Context, logger *zap.Logger, name string) error {
	for _, c := range components {
		logger.Sugar().Infow("Starting component", "group", name, "type", fmt.Sprintf("%T", c))
		if err := c.Start(ctx); err != nil {
			metrics.ComponentFailures.WithLabelValues(fmt.Sprintf("%T", c), "start").Inc()
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
	}
	return nil
}
