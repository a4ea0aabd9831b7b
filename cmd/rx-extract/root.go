package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rx-extractor/internal/catalog"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/core"
	"github.com/joseph-ayodele/rx-extractor/internal/extract"
	"github.com/joseph-ayodele/rx-extractor/internal/pipeline"
	"github.com/joseph-ayodele/rx-extractor/internal/repository"
)

// app holds the dependencies shared by subcommands. Fields are filled lazily
// so that e.g. `catalog lookup` never opens the job store.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	noStore bool

	catalog *catalog.Catalog
	db      *sql.DB
	jobs    repository.ExtractJobRepository
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: common.LoadConfig()}

	root := &cobra.Command{
		Use:           "rx-extract",
		Short:         "Extract structured prescriptions from OCR text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			a.logger = newLogger(cmd.ErrOrStderr(), a.cfg.Log)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.Catalog.Path, "catalog", a.cfg.Catalog.Path, "reference catalog (.csv or .xlsx)")
	pf.StringVar(&a.cfg.Store.Path, "db", a.cfg.Store.Path, "sqlite job store path")
	pf.StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "debug, info, warn or error")
	pf.StringVar(&a.cfg.Log.Format, "log-format", a.cfg.Log.Format, "text or json")
	pf.BoolVar(&a.noStore, "no-store", false, "do not record extract jobs")

	root.AddCommand(
		newExtractCmd(a),
		newWatchCmd(a),
		newJobsCmd(a),
		newExportCmd(a),
		newCatalogCmd(a),
	)
	return root
}

func newLogger(w io.Writer, cfg common.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (a *app) loadCatalog() *catalog.Catalog {
	if a.catalog == nil {
		a.catalog = catalog.Load(a.cfg.Catalog.Path, a.logger)
	}
	return a.catalog
}

func (a *app) jobRepo(ctx context.Context) (repository.ExtractJobRepository, error) {
	if a.jobs != nil {
		return a.jobs, nil
	}
	db, err := repository.Open(ctx, repository.Config{Path: a.cfg.Store.Path}, a.logger)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.jobs = repository.NewExtractJobRepository(db, a.logger)
	return a.jobs, nil
}

func (a *app) processor(ctx context.Context) (*pipeline.Processor, error) {
	cat := a.loadCatalog()
	var jobs repository.ExtractJobRepository
	if !a.noStore {
		var err error
		if jobs, err = a.jobRepo(ctx); err != nil {
			return nil, err
		}
	}
	return pipeline.NewProcessor(
		a.logger,
		extract.NewPlainTextExtractor(0, a.logger),
		core.NewProcessor(cat, a.logger),
		cat,
		jobs,
	), nil
}

func (a *app) close() {
	if a.db != nil {
		repository.Close(a.db, a.logger)
		a.db = nil
		a.jobs = nil
	}
}
