// Command mapgen generates a hex map from a declarative rule document.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Vi1i/rust-harmony/internal/api"
	"github.com/Vi1i/rust-harmony/internal/config"
	"github.com/Vi1i/rust-harmony/internal/engine"
	"github.com/Vi1i/rust-harmony/internal/environ"
	"github.com/Vi1i/rust-harmony/internal/persistence"
	"github.com/Vi1i/rust-harmony/internal/rules"
	"github.com/Vi1i/rust-harmony/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (flags override it)")
		rulesPath  = flag.String("rules", "", "rule document to apply")
		seed       = flag.Int64("seed", 0, "generation seed")
		radius     = flag.Int("radius", 0, "map radius in hexes")
		dbPath     = flag.String("db", "", "sqlite database path")
		port       = flag.Int("port", 0, "serve the result on this port (0 = don't serve)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *rulesPath != "" {
		cfg.RulesPath = *rulesPath
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *radius != 0 {
		cfg.Radius = *radius
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		var lerr *rules.LoadError
		if errors.As(err, &lerr) {
			slog.Error("rule document rejected", "error", lerr.Reason)
		} else {
			slog.Error("generation failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	set, err := rules.LoadFile(cfg.RulesPath)
	if err != nil {
		return err
	}
	slog.Info("rules loaded",
		"path", cfg.RulesPath,
		"rules", len(set.Rules),
		"templates", len(set.Templates),
		"structures", len(set.Structures))

	gen := world.DefaultGenesisConfig()
	gen.Seed = cfg.Seed
	gen.Radius = cfg.Radius
	gen.SeaLevel = cfg.SeaLevel
	gen.SnowLine = cfg.SnowLine

	slog.Info("generating base terrain", "seed", cfg.Seed, "radius", cfg.Radius)
	m := world.Genesis(gen)

	report, err := engine.Run(m, engine.PassConfig{
		Set:             set,
		Seed:            cfg.Seed,
		MaxScansPerRule: cfg.MaxScansPerRule,
		Parallelism:     cfg.Parallelism,
		Env:             environ.New(m, cfg.Seed),
	})
	if err != nil {
		return fmt.Errorf("generation pass: %w", err)
	}

	for t, n := range world.TerrainCounts(m) {
		slog.Info("terrain", "type", world.TerrainName(t), "count", n)
	}
	slog.Info("pass complete",
		"rules_run", report.RulesRun,
		"structures", report.StructuresPlaced,
		"mutated_cells", len(report.Mutated),
		"conflicts", report.CountCode(engine.CodeConflict),
		"diagnostics", len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		slog.Debug("diagnostic", "code", d.Code, "rule", d.Rule, "detail", d.Detail)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveRun(cfg.RunName, cfg.Seed, m, report)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	slog.Info("run persisted", "run_id", runID, "db", cfg.DBPath)

	if cfg.Port == 0 {
		return nil
	}

	server := &api.Server{Map: m, Report: report, Seed: cfg.Seed, Port: cfg.Port}
	server.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")
	return nil
}
