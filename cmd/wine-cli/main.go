package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/okian/winequality/internal/cli"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, cli.NewRootCmd(Version),
		fang.WithColorSchemeFunc(cli.ColorScheme),
	); err != nil {
		if cli.IsCancelled(err) {
			return
		}
		stop()
		os.Exit(1)
	}
}
