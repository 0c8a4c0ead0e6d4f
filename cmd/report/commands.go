package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"chainstats/internal/analytics"
	"chainstats/internal/config"
	"chainstats/internal/dashboard"
	"chainstats/internal/export"
	"chainstats/internal/logger"
	"chainstats/internal/store"

	"github.com/spf13/cobra"
)

type options struct {
	rng    string
	filter string
}

// env is everything a report command needs, built from the same configuration
// as the web server.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	st, err := store.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connecting store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: st}, nil
}

func (e *env) close() {
	e.store.Close()
	e.log.Sync()
}

// snapshot loads both tables and computes every calculator for opts.
func (e *env) snapshot(ctx context.Context, opts options) (*dashboard.Snapshot, error) {
	engine := analytics.NewEngine(analytics.WithLocation(e.cfg.Location()))
	svc := dashboard.NewService(e.store, engine,
		dashboard.WithScorer(dashboard.BaseScorer(e.cfg.Points)),
		dashboard.WithLogger(e.log),
	)
	if err := svc.Refresh(ctx); err != nil {
		return nil, err
	}
	return svc.Snapshot(dashboard.NewParams(opts.rng, opts.filter))
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "chainstats-report",
		Short:         "Offline analytics reports for the puzzle game",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.rng, "range", "all", "time range: today|7days|14days|28days|all")
	root.PersistentFlags().StringVar(&opts.filter, "filter", "all", "user filter: all|signedUp|anonymous")

	root.AddCommand(newSummaryCmd(&opts), newExportCmd(&opts), newImportCmd())
	return root
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			snap, err := e.snapshot(ctx, *opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard snapshot as an XLSX workbook or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			write, err := exportWriter(format)
			if err != nil {
				return err
			}
			if format == "xlsx" && outPath == "" {
				return errors.New("--out is required for xlsx")
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			snap, err := e.snapshot(ctx, *opts)
			if err != nil {
				return err
			}

			if outPath == "" {
				return write(cmd.OutOrStdout(), snap)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if err := write(f, snap); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "xlsx", "export format: xlsx|csv")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (csv defaults to stdout)")
	return cmd
}

func exportWriter(format string) (func(io.Writer, *dashboard.Snapshot) error, error) {
	switch format {
	case "xlsx":
		return export.WriteXLSX, nil
	case "csv":
		return export.WriteCSV, nil
	default:
		return nil, fmt.Errorf("unknown format %q: want xlsx or csv", format)
	}
}

func newImportCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load players or events from a JSON array into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			engine := analytics.NewEngine(analytics.WithLocation(e.cfg.Location()))
			res, err := importFile(ctx, e.store, engine, kind, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s, skipped %d, already present %d\n",
				res.imported, kind, res.skipped, res.duplicates)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "events", "record kind: events|players")
	return cmd
}

// importer is the part of store.Store the import command writes to.
type importer interface {
	InsertEvent(ctx context.Context, ev analytics.RawEvent) (string, error)
	UpsertPlayer(ctx context.Context, p analytics.PlayerRecord) error
}

type importResult struct {
	imported   int
	skipped    int
	duplicates int
}

// importFile decodes a JSON array of kind records from r. Events that do not
// normalize are skipped and events whose id is already stored are counted as
// duplicates; other store errors abort the import.
func importFile(ctx context.Context, st importer, engine *analytics.Engine, kind string, r io.Reader) (importResult, error) {
	var res importResult
	switch kind {
	case "events":
		var raw []analytics.RawEvent
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return res, fmt.Errorf("decoding events: %w", err)
		}
		for _, re := range raw {
			ev, err := engine.Normalize(re)
			if err != nil {
				res.skipped++
				continue
			}
			_, err = st.InsertEvent(ctx, ev.Raw())
			if errors.Is(err, store.ErrDuplicateEvent) {
				res.duplicates++
				continue
			}
			if err != nil {
				return res, err
			}
			res.imported++
		}
	case "players":
		var players []analytics.PlayerRecord
		if err := json.NewDecoder(r).Decode(&players); err != nil {
			return res, fmt.Errorf("decoding players: %w", err)
		}
		for _, p := range players {
			if p.ID == "" {
				res.skipped++
				continue
			}
			if err := st.UpsertPlayer(ctx, p); err != nil {
				return res, err
			}
			res.imported++
		}
	default:
		return res, fmt.Errorf("unknown kind %q: want events or players", kind)
	}
	return res, nil
}
