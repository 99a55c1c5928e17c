package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/config"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/dashboard/cli"
	"github.com/AlibekovAA/shop-dash/backend/internal/dashboard/client"
)

func main() {
	config.LoadDotEnv()

	// Tables go to stdout; retry warnings stay on stderr.
	log := logger.NewWithWriter(os.Stderr, "dashboard", getLogLevel())

	cfg, command, err := cli.ParseArgs(os.Args[1:], config.LoadDashboardConfig(), os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if cfg.SessionToken == "" {
		if cfg.SessionToken, err = cli.PromptToken(os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read session token: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, client.New(cfg, log), command, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard %s: %v\n", command, err)
		stop()
		os.Exit(1)
	}
}

func getLogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "warning"
}
