package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/G-Research/scanload/internal/common/logctx"
)

// CreateContextWithShutdown returns a context that reports done once SIGINT or SIGTERM is received.
func CreateContextWithShutdown() *logctx.Context {
	ctx, cancel := logctx.WithCancel(logctx.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			ctx.Log.Infof("Received %s; shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
