package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"supportstudio/internal/api"
	"supportstudio/internal/config"
	"supportstudio/internal/conversation"
	"supportstudio/internal/evaluate"
	"supportstudio/internal/logging"
	"supportstudio/internal/session"
	"supportstudio/internal/stubapi"
	"supportstudio/internal/tui"
)

// studio is what every command needs: validated config, a logger and a
// backend client.
type studio struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *api.Client
	closer io.Closer
}

func (s *studio) Close() error { return s.closer.Close() }

// loadStudio loads configuration, applies flag overrides and builds the
// logger. Interactive runs log to the configured file; everything else logs
// to the app's error writer.
func loadStudio(c *cli.Context, interactive bool) (*studio, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := logging.Options{Level: cfg.Log.Level, Writer: c.App.ErrWriter, Pretty: true}
	if interactive {
		opts = logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.API.BaseURL, api.WithLogger(logger))
	return &studio{cfg: cfg, logger: logger, client: client, closer: closer}, nil
}

// loadConfig loads the configuration and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("api-base-url") {
		cfg.API.BaseURL = c.String("api-base-url")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	return cfg, nil
}

func tuiCommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Run the chatbot and copilot terminal UI (default)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "view",
				Usage: "Start `VIEW` (chatbot or copilot)",
			},
			&cli.BoolFlag{
				Name:  "alt-screen",
				Usage: "Use the terminal's alternate screen",
			},
		},
		Action: runTUI,
	}
}

func runTUI(c *cli.Context) error {
	rt, err := loadStudio(c, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	startView := rt.cfg.UI.StartView
	if c.IsSet("view") {
		startView = c.String("view")
	}
	altScreen := rt.cfg.UI.AltScreen
	if c.IsSet("alt-screen") {
		altScreen = c.Bool("alt-screen")
	}

	rt.logger.Info().Str("base_url", rt.client.BaseURL()).Str("view", startView).Msg("starting ui")
	return tui.Run(c.Context, tui.Options{
		Backend:   rt.client,
		Health:    rt.client,
		BaseURL:   rt.client.BaseURL(),
		StartView: startView,
		AltScreen: altScreen,
		Copilot: tui.CopilotOptions{
			Seed:            rt.cfg.SeedConversation(),
			CustomerMessage: rt.cfg.Copilot.CustomerMessage,
			Topic:           rt.cfg.Topic(),
		},
		Logger: rt.logger,
	})
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one question to the customer chatbot",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return errors.New("a query is required")
			}
			rt, err := loadStudio(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			chat := session.NewChat(rt.client, rt.logger)
			d, ok := chat.Submit(query)
			if !ok {
				return errors.New("a query is required")
			}
			chat.Settle(d.Run(c.Context))
			if msg, failed := chat.State().Failure(); failed {
				return errors.New(msg)
			}
			reply, _ := chat.State().Result()
			fmt.Fprintln(c.App.Writer, reply)
			return nil
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Draft an agent reply to a customer message",
		ArgsUsage: "<customer message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "topic",
				Usage: "Topic hint: orders, returns, account or none",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := loadStudio(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			topic := rt.cfg.Topic()
			if c.IsSet("topic") {
				raw := c.String("topic")
				if strings.EqualFold(raw, "none") {
					raw = ""
				}
				parsed, ok := session.ParseTopic(raw)
				if !ok {
					return fmt.Errorf("unknown topic %q", c.String("topic"))
				}
				topic = parsed
			}

			message := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(message) == "" {
				message = rt.cfg.Copilot.CustomerMessage
			}

			copilot := session.NewCopilot(rt.client, rt.cfg.SeedConversation(), rt.logger)
			d, ok := copilot.SuggestReply(message, topic)
			if !ok {
				return errors.New("a customer message is required")
			}
			copilot.SettleSuggestion(d.Run(c.Context))
			if msg, failed := copilot.SuggestState().Failure(); failed {
				return errors.New(msg)
			}
			fmt.Fprintln(c.App.Writer, copilot.Suggestion())
			return nil
		},
	}
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize a support case",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "conversation",
				Usage: "JSON `FILE` with [{role, content}] messages; defaults to the configured seed",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := loadStudio(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			seed := rt.cfg.SeedConversation()
			if path := c.String("conversation"); path != "" {
				seed, err = readConversation(path)
				if err != nil {
					return err
				}
			}

			copilot := session.NewCopilot(rt.client, seed, rt.logger)
			d, ok := copilot.Summarize()
			if !ok {
				return errors.New("the conversation is empty")
			}
			copilot.SettleSummary(d.Run(c.Context))
			if msg, failed := copilot.SummarizeState().Failure(); failed {
				return errors.New(msg)
			}

			summary := copilot.Summary()
			fmt.Fprintln(c.App.Writer, summary.Text)
			for _, point := range summary.KeyPoints {
				fmt.Fprintf(c.App.Writer, "- %s\n", point)
			}
			return nil
		},
	}
}

func readConversation(path string) ([]conversation.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	var msgs []conversation.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse conversation %s: %w", path, err)
	}
	store := conversation.NewStore()
	for i, msg := range msgs {
		if err := store.Append(msg); err != nil {
			return nil, fmt.Errorf("conversation %s: message %d: %w", path, i, err)
		}
	}
	return store.Snapshot(), nil
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the support backend is up",
		Action: func(c *cli.Context) error {
			rt, err := loadStudio(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			resp, err := rt.client.Health(c.Context)
			if err != nil {
				return fmt.Errorf("backend at %s is not healthy: %w", rt.client.BaseURL(), err)
			}
			fmt.Fprintf(c.App.Writer, "%s: %s\n", rt.client.BaseURL(), resp.Status)
			return nil
		},
	}
}

func evalCommand() *cli.Command {
	return &cli.Command{
		Name:  "eval",
		Usage: "Compare the baseline and RAG chatbot endpoints over a test set",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "testset",
				Usage:    "JSON `FILE` with [{id, query}] cases",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write results to `FILE`",
				Value: "chatbot_eval_results.json",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-call timeout; 0 waits indefinitely",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := loadStudio(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			cases, err := evaluate.LoadTestSet(c.String("testset"))
			if err != nil {
				return err
			}
			runner := evaluate.NewRunner(rt.client, rt.logger)
			runner.Progress = c.App.Writer
			runner.Timeout = c.Duration("timeout")

			results, err := runner.Run(c.Context, cases)
			if err != nil {
				return err
			}
			outPath := c.String("out")
			if err := evaluate.WriteResults(outPath, results); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "\nSaved raw results to: %s\n", outPath)
			return nil
		},
	}
}

func stubServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "stub-server",
		Usage: "Serve a canned support backend for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen `ADDR`",
			},
			&cli.StringSliceFlag{
				Name:  "fail",
				Usage: "Endpoint `PATH` that should answer 500 (repeatable)",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := loadStudio(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			addr := rt.cfg.Stub.Addr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			srv := stubapi.NewServer(stubapi.Options{
				AllowedOrigin: rt.cfg.Stub.AllowedOrigin,
				Failures:      c.StringSlice("fail"),
				Logger:        rt.logger,
			})
			return srv.ListenAndServe(c.Context, addr)
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   config.DefaultConfigFile,
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: runConfigShow,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
