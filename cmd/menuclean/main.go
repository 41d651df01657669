// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command menuclean runs deletions and restores against a menucleaner server,
// or directly against a local database with -db.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/client"
	"github.com/olegiv/menu-cleaner/internal/itemstore"
	"github.com/olegiv/menu-cleaner/internal/store"
	"github.com/olegiv/menu-cleaner/internal/version"
)

// cleanerAPI is implemented by both *client.HTTPClient and *cleaner.Service.
type cleanerAPI interface {
	client.BatchAPI
	Menus(ctx context.Context) ([]cleaner.Menu, error)
	Sessions(ctx context.Context) ([]cleaner.SessionSummary, error)
	SessionItems(ctx context.Context, session string) ([]cleaner.HistoryRecord, error)
	Restore(ctx context.Context, req cleaner.RestoreRequest) (cleaner.RestoreResult, error)
}

type cliEnv struct {
	APIURL       string `env:"MC_API_URL" envDefault:"http://localhost:8080/api/v1/cleaner"`
	APIKey       string `env:"MC_API_KEY"`
	DBPath       string `env:"MC_CLI_DB_PATH"`
	BatchDelayMS int    `env:"MC_BATCH_DELAY_MS" envDefault:"100"`
}

const usage = `menuclean - delete and restore navigation menu items in batches

Usage:
  menuclean [global options] <command> [options]

Commands:
  menus                                list menus with item counts
  count    -menu ID [-mode MODE]       count matching items
  run      -menu ID [-mode MODE] [-n N] [-batch N] [-skip-parents]
                                       delete items batch by batch
  sessions                             list deletion sessions
  items    -session TOKEN              list unrestored items of a session
  restore  -session TOKEN [-items all|1,2,3] [-menu ID]
                                       restore deleted items

Modes: count (default, needs -n), draft, orphaned.

Global options:
`

func main() {
	_ = godotenv.Load()

	var ce cliEnv
	if err := env.Parse(&ce); err != nil {
		fmt.Fprintln(os.Stderr, "menuclean:", err)
		os.Exit(1)
	}

	global := flag.NewFlagSet("menuclean", flag.ExitOnError)
	apiURL := global.String("url", ce.APIURL, "API base URL (env MC_API_URL)")
	apiKey := global.String("key", ce.APIKey, "API key (env MC_API_KEY)")
	dbPath := global.String("db", ce.DBPath, "Use a local database instead of the API")
	verbose := global.Bool("verbose", false, "Log every batch")
	showVersion := global.Bool("version", false, "Show version information")
	global.Usage = func() {
		_, _ = fmt.Fprint(os.Stderr, usage)
		global.PrintDefaults()
	}
	_ = global.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("menuclean %s\n", version.Current())
		return
	}
	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, closeAPI, err := openAPI(*apiURL, *apiKey, *dbPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "menuclean:", err)
		os.Exit(1)
	}
	defer closeAPI()

	app := &app{api: api, out: os.Stdout, logger: logger, delay: time.Duration(ce.BatchDelayMS) * time.Millisecond}
	if err := app.dispatch(ctx, global.Arg(0), global.Args()[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "menuclean: interrupted")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "menuclean:", err)
		os.Exit(1)
	}
}

func openAPI(apiURL, apiKey, dbPath string, logger *slog.Logger) (cleanerAPI, func(), error) {
	if dbPath == "" {
		if apiKey == "" {
			return nil, nil, errors.New("an API key is required (-key or MC_API_KEY), or use -db")
		}
		return client.NewHTTPClient(apiURL, apiKey, nil), func() {}, nil
	}

	db, err := store.NewDB(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	items := itemstore.New(db)
	return cleaner.NewService(items, items, logger), func() { _ = db.Close() }, nil
}

type app struct {
	api    cleanerAPI
	out    io.Writer
	logger *slog.Logger
	delay  time.Duration
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "menus":
		return a.menus(ctx)
	case "count":
		return a.count(ctx, args)
	case "run":
		return a.run(ctx, args)
	case "sessions":
		return a.sessions(ctx)
	case "items":
		return a.items(ctx, args)
	case "restore":
		return a.restore(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) menus(ctx context.Context) error {
	menus, err := a.api.Menus(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tITEMS")
	for _, m := range menus {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\n", m.ID, m.Name, m.ItemCount)
	}
	return tw.Flush()
}

func (a *app) count(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	menuID := fs.Int64("menu", 0, "Menu ID")
	mode := fs.String("mode", string(cleaner.ModeCount), "count, draft or orphaned")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n, err := a.api.Count(ctx, *menuID, cleaner.ParseMode(*mode))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, n)
	return nil
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	menuID := fs.Int64("menu", 0, "Menu ID")
	mode := fs.String("mode", string(cleaner.ModeCount), "count, draft or orphaned")
	target := fs.Int("n", 0, "Number of items to delete (count mode)")
	batch := fs.Int("batch", cleaner.DefaultBatchSize, "Batch size (1-50)")
	skipParents := fs.Bool("skip-parents", false, "Keep items that have children, and their children")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := client.NewRunner(a.api, a.logger)
	r.BatchSize = cleaner.ClampBatchSize(*batch)
	r.Delay = a.delay
	r.OnProgress = func(p client.Progress) {
		st := p.State
		_, _ = fmt.Fprintf(a.out, "batch %d: deleted %d, skipped %d (%d/%d)\n",
			st.Batches, p.Result.Count, p.Result.SkippedCount, st.Processed(), st.TargetCount)
	}

	sum, err := r.Run(ctx, client.RunOptions{
		MenuID:      *menuID,
		Mode:        cleaner.ParseMode(*mode),
		SkipParents: *skipParents,
		Target:      *target,
	})
	if sum.Session != "" {
		_, _ = fmt.Fprintf(a.out, "session %s: %d deleted, %d skipped, status %s\n",
			sum.Session, sum.State.DeletedSoFar, sum.State.SkippedSoFar, sum.State.Status)
	} else if err == nil {
		_, _ = fmt.Fprintln(a.out, "nothing to delete")
	}
	return err
}

func (a *app) sessions(ctx context.Context) error {
	sessions, err := a.api.Sessions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SESSION\tMENU\tDELETED AT\tITEMS\tUNRESTORED")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.Session, s.MenuName,
			s.CreatedAt.Local().Format(time.DateTime), s.ItemCount, s.Unrestored)
	}
	return tw.Flush()
}

func (a *app) items(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items", flag.ContinueOnError)
	session := fs.String("session", "", "Session token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	records, err := a.api.SessionItems(ctx, *session)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RECORD\tITEM\tTITLE\tMENU")
	for _, rec := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", rec.ID, rec.ItemID, rec.ItemTitle, rec.MenuName)
	}
	return tw.Flush()
}

func (a *app) restore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	session := fs.String("session", "", "Session token")
	items := fs.String("items", "all", `"all" or comma separated record IDs`)
	menuID := fs.Int64("menu", 0, "Restore into this menu instead of the original one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := cleaner.RestoreRequest{Session: *session, TargetMenuID: *menuID}
	if strings.TrimSpace(*items) == "all" {
		req.All = true
	} else {
		for _, part := range strings.Split(*items, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid record id %q", part)
			}
			req.RecordIDs = append(req.RecordIDs, id)
		}
	}

	res, err := a.api.Restore(ctx, req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "restored %d item(s)\n", res.RestoredCount)
	if len(res.Failed) > 0 {
		_, _ = fmt.Fprintf(a.out, "failed records: %v\n", res.Failed)
	}
	return nil
}
