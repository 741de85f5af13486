package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luhtaf/onlyonce/internal/cli"
	"github.com/luhtaf/onlyonce/internal/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		// errors raised before logging is configured (bad config, bad flags)
		// have no other reporter
		if !log.Initialized() {
			fmt.Fprintln(os.Stderr, "onlyonce:", err)
		}
		log.L.Errorw("command_failed", "event", "command_failed", "component", "onlyonce", "err", err)
		log.Sync()
		cancel()
		os.Exit(1)
	}
}
