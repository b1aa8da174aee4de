package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Context returns a child of parent that is cancelled on SIGTERM or
// SIGINT. If a second signal is caught, the program is terminated
// with exit code 1. The returned CancelFunc stops listening.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return notify(parent, func() { os.Exit(1) }, shutdownSignals...)
}

func notify(parent context.Context, exit func(), sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 2)
	signal.Notify(c, sigs...)
	done := make(chan struct{})
	go func() {
		select {
		case <-c:
			cancel()
		case <-done:
			return
		}
		select {
		case <-c:
			exit() // second signal. Exit directly.
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(c)
			close(done)
		})
		cancel()
	}
}
