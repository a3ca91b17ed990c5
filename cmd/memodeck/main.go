package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/memodeck/memodeck/internal/config"
	"github.com/memodeck/memodeck/internal/fsrs"
	"github.com/memodeck/memodeck/internal/ingest"
	"github.com/memodeck/memodeck/internal/reconcile"
	"github.com/memodeck/memodeck/internal/storage"
	"github.com/memodeck/memodeck/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("memodeck failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.Defaults()

	flags := pflag.NewFlagSet("memodeck", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	flags.String("db_path", defaults.DBPath, "path to the SQLite database file")
	flags.String("listen_addr", defaults.ListenAddr, "address the API server listens on")
	flags.String("repos_dir", defaults.ReposDir, "directory git sources are cloned into")
	addSource := flags.String("add-source", "", "register a deck source (local directory or git URL)")
	importPath := flags.String("import", "", "import card records from a JSON file")
	doSync := flags.Bool("sync", false, "reconcile all registered sources")
	serve := flags.Bool("serve", false, "start the API server")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	scheduler, err := fsrs.NewScheduler(cfg.SchedulerSettings())
	if err != nil {
		return err
	}

	switch {
	case *addSource != "":
		return runAddSource(db, *addSource)
	case *importPath != "":
		return runImport(db, *importPath)
	case *doSync:
		return runSync(db, cfg.ReposDir)
	case *serve:
		server := web.NewServer(db, scheduler, cfg.ReposDir)
		slog.Info("starting server", "addr", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, server)
	default:
		flags.Usage()
		return nil
	}
}

func runAddSource(db *storage.DB, path string) error {
	sourceType := reconcile.ClassifySource(path)
	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return err
	}
	slog.Info("source registered", "id", id, "path", path, "type", sourceType)
	return nil
}

func runImport(db *storage.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file %s: %w", path, err)
	}
	var recs []ingest.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("import file %s must hold a JSON array of card records: %w", path, err)
	}

	sum := reconcile.ImportRecords(db, recs)
	for _, f := range sum.Failures {
		slog.Warn("record rejected", "index", f.Index, "reason", f.Message)
	}
	slog.Info("import finished",
		"imported", sum.Imported,
		"skipped", sum.Skipped,
		"failed", len(sum.Failures),
	)
	if len(sum.Failures) > 0 {
		return fmt.Errorf("%d of %d records failed validation", len(sum.Failures), len(recs))
	}
	return nil
}

func runSync(db *storage.DB, reposDir string) error {
	sum, err := reconcile.Run(context.Background(), db, reposDir, time.Now())
	if err != nil {
		return err
	}
	for _, p := range sum.Problems {
		slog.Warn("sync problem", "detail", p)
	}
	slog.Info("sync finished",
		"sources", sum.Sources,
		"parsed", sum.Parsed,
		"inserted", sum.Inserted,
		"orphaned", sum.Orphaned,
	)
	return nil
}
