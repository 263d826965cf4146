package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

const (
	version = "0.1.0"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "support-studio",
		Usage:   "Customer chatbot and agent copilot for e-commerce support",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "api-base-url",
				Usage:   "Support backend base `URL`",
				EnvVars: []string{"SUPPORT_STUDIO_API_BASE_URL"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log `LEVEL` (debug, info, warn, error)",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			tuiCommand(),
			askCommand(),
			suggestCommand(),
			summarizeCommand(),
			healthCommand(),
			evalCommand(),
			stubServerCommand(),
			configCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}
