// Package signal gives every long-running command the same interrupt
// handling.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context cancelled on SIGINT or SIGTERM. Callers
// must call stop to restore default signal behavior, so a second interrupt
// kills the process instead of waiting on cleanup.
func NotifyContext() (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
