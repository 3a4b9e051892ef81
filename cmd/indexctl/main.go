// indexctl is the operator CLI for index maintenance: full rebuilds with
// progress output, suggestion snapshot rebuilds, and a status summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/internal/indexer"
	indexstore "github.com/coralcms/sitesearch/internal/indexer/store"
	"github.com/coralcms/sitesearch/internal/suggest"
	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/logger"
	"github.com/coralcms/sitesearch/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	types := flag.String("types", "", "comma-separated content types (rebuild only, default: configured types)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("warn", "text")

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate schema: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := content.NewPostgresRepository(db)
	store := indexstore.NewPostgresStore(db)
	ix := indexer.New(repo, store, cfg.Indexer, nil)

	switch command {
	case "rebuild":
		err = rebuild(ctx, ix, splitTypes(*types))
	case "suggest":
		err = rebuildSuggestions(ctx, repo, db, cfg)
	case "status":
		err = status(ctx, ix, db)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: indexctl [flags] <command>

Commands:
  rebuild   re-index all published content
  suggest   rebuild the autocomplete suggestion snapshot
  status    print index and snapshot summary

Flags:
`)
	flag.PrintDefaults()
}

func rebuild(ctx context.Context, ix *indexer.Indexer, types []string) error {
	progress := make(chan indexer.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			fmt.Printf("\rindexing %d/%d (%d failed)", p.Processed, p.Total, p.Failed)
		}
	}()

	report, err := ix.BuildAll(ctx, types, progress)
	close(progress)
	<-done
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d, skipped %d, failed %d in %s\n",
		report.Indexed, report.Skipped, report.Failed, report.Duration.Round(time.Millisecond))
	return nil
}

func rebuildSuggestions(ctx context.Context, repo content.Repository, db *postgres.Client, cfg *config.Config) error {
	engine := suggest.NewEngine(repo, suggest.NewPostgresSnapshotStore(db), nil, cfg.Suggest, nil)
	count, err := engine.BuildFromContent(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("suggestion snapshot rebuilt: %d terms\n", count)
	return nil
}

func status(ctx context.Context, ix *indexer.Indexer, db *postgres.Client) error {
	summary, err := ix.Status(ctx)
	if err != nil {
		return err
	}
	var terms int
	if err := db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestion_terms`).Scan(&terms); err != nil {
		return fmt.Errorf("counting suggestion terms: %w", err)
	}
	fmt.Printf("%s; %d suggestion terms persisted\n", summary, terms)
	return nil
}

func splitTypes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
