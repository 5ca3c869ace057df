package shutdown

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// CreateGracefulShutdownChannel returns a channel that receives SIGINT and
// SIGTERM.
func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdownNotifier := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdownNotifier, syscall.SIGINT, syscall.SIGTERM)
	return gracefulShutdownNotifier
}

// ListenForShutdown blocks until a signal arrives on notifier, invokes
// shutdown, then waits for done (or the grace timeout) before returning.
func ListenForShutdown(
	notifier chan os.Signal,
	done chan bool,
	shutdown func(),
	timeout time.Duration,
	logger *zap.Logger,
) {
	sig := <-notifier
	logger.Sugar().Infow("Received shutdown signal", "signal", sig.String())

	shutdown()

	select {
	case <-done:
		logger.Sugar().Infow("Shutdown completed")
	case <-time.After(timeout):
		logger.Sugar().Warnw("Shutdown grace period elapsed, exiting", "timeout", timeout)
	}
}
