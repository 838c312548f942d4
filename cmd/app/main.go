package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/fenwick/ordna/internal"
	"github.com/fenwick/ordna/internal/history"
	"github.com/fenwick/ordna/internal/mcpserver"
	"github.com/fenwick/ordna/internal/report"
	"github.com/fenwick/ordna/internal/storage"
	"github.com/fenwick/ordna/internal/vaultservice"
	pkgconfig "github.com/fenwick/ordna/pkg/config"
)

// Exit codes: 0 clean, 1 findings present, 2 fatal error.
const exitFatal = 2

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Flag overrides.
	if cmd.IsSet("vault") {
		cfg.Vault.Path = cmd.String("vault")
	}
	if cmd.IsSet("capture-days") {
		cfg.Policy.CaptureDays = int(cmd.Int("capture-days"))
	}
	if cmd.IsSet("active-days") {
		cfg.Policy.ActiveDays = int(cmd.Int("active-days"))
	}
	if cmd.IsSet("history") {
		cfg.History.Path = cmd.String("history")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newCLILogger logs to stderr so report output on stdout stays clean.
func newCLILogger(cfg *internal.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func newService(cfg *internal.Config, logger *slog.Logger) (*vaultservice.Service, error) {
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return vaultservice.New(store, vaultservice.Policy{
		CaptureDays: cfg.Policy.CaptureDays,
		ActiveDays:  cfg.Policy.ActiveDays,
	}, logger), nil
}

func emitReport(cmd *cli.Command, rep *report.Report) error {
	var out []byte
	if cmd.Bool("json") {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		out = append(data, '\n')
	} else {
		out = []byte(rep.RenderMarkdown())
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}
	_, err := os.Stdout.Write(out)
	return err
}

// recordRun appends the run to the ledger when a history path flag was given.
func recordRun(cmd *cli.Command, cfg *internal.Config, logger *slog.Logger, rep *report.Report, applied int) {
	if !cmd.IsSet("history") {
		return
	}
	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("open history failed", slog.String("error", err.Error()))
		return
	}
	defer hist.Close()
	if _, err := hist.Record(history.Run{
		RanAt:    rep.GeneratedAt,
		Findings: len(rep.Findings),
		Warnings: len(rep.Warnings) + len(rep.Errors),
		Applied:  applied,
		Digest:   rep.Digest(),
	}); err != nil {
		logger.Warn("record run failed", slog.String("error", err.Error()))
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newCLILogger(cfg)

	svc, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	rep, err := svc.Check(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("vault check: %w", err)
	}
	if err := emitReport(cmd, rep); err != nil {
		return err
	}
	recordRun(cmd, cfg, logger, rep, 0)

	if rep.HasFindings() {
		return cli.Exit("", 1)
	}
	return nil
}

func runFix(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newCLILogger(cfg)

	svc, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	rep, applied, err := svc.Fix(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("vault fix: %w", err)
	}
	logger.Info("manifests updated", slog.Int("applied", applied))
	if err := emitReport(cmd, rep); err != nil {
		return err
	}
	recordRun(cmd, cfg, logger, rep, applied)

	if rep.HasFindings() {
		return cli.Exit("", 1)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdio transport owns stdout; keep logs on stderr.
	logger := newCLILogger(cfg)

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	svc := vaultservice.New(store, vaultservice.Policy{
		CaptureDays: cfg.Policy.CaptureDays,
		ActiveDays:  cfg.Policy.ActiveDays,
	}, logger)

	srv := mcpserver.New(store, svc)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "vault",
			Aliases: []string{"v"},
			Usage:   "Path to the vault root directory",
			Sources: cli.EnvVars("ORDNA_VAULT"),
		},
		&cli.IntFlag{
			Name:  "capture-days",
			Usage: "Days before an Inbox item counts as stale",
		},
		&cli.IntFlag{
			Name:  "active-days",
			Usage: "Days before a Projects item counts as stale",
		},
		&cli.StringFlag{
			Name:  "history",
			Usage: "Path to the run ledger database (enables run recording)",
		},
	}
}

func reportFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Emit the report as JSON instead of Markdown",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file instead of stdout",
		},
	)
}

func main() {
	cmd := &cli.Command{
		Name:  "ordna",
		Usage: "Vault maintenance engine: manifest reconciliation and staleness detection for pillar folders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Scan the vault and report findings without modifying anything",
				Action: runCheck,
				Flags:  reportFlags(),
			},
			{
				Name:   "fix",
				Usage:  "Scan the vault and regenerate drifted manifests",
				Action: runFix,
				Flags:  reportFlags(),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with file watching and SSE updates",
				Action: runServe,
				Flags:  commonFlags(),
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
				Flags:  commonFlags(),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(exitFatal)
	}
}
