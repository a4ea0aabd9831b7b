package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/async"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/ingest"
)

func newWatchCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "watch [dir ...]",
		Short: "Watch directories and extract every new OCR text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			ctx := cmd.Context()

			roots := append(append([]string(nil), a.cfg.Ingest.WatchDirs...), args...)
			if len(roots) == 0 {
				return fmt.Errorf("%w: no directories to watch (args or WATCH_DIRS)", common.ErrInvalidInput)
			}

			proc, err := a.processor(ctx)
			if err != nil {
				return err
			}
			queue := async.NewProcessorQueue(proc, a.logger,
				async.WithWorkers(a.cfg.Queue.Workers),
				async.WithQueueSize(a.cfg.Queue.Size),
				async.WithProcessTimeout(a.cfg.Queue.ProcessTimeout),
			)

			evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       roots,
				InitialScan: a.cfg.Ingest.InitialScan,
				Debounce:    a.cfg.Ingest.Debounce,
				Logger:      a.logger,
			})
			if err != nil {
				queue.Shutdown(context.Background())
				return err
			}
			a.logger.Info("watching for prescriptions", "roots", roots, "workers", a.cfg.Queue.Workers)

		loop:
			for {
				select {
				case p, ok := <-evCh:
					if !ok {
						break loop
					}
					if err := queue.Enqueue(ctx, async.Job{Path: p, Format: format}); err != nil {
						a.logger.Warn("enqueue failed", "path", p, "error", err)
					}
				case err, ok := <-errCh:
					if !ok {
						errCh = nil
						continue
					}
					a.logger.Warn("watch error", "error", err)
				}
			}

			sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Queue.ProcessTimeout+5*time.Second)
			defer cancel()
			queue.Shutdown(sctx)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", string(constants.Prescription), "document format")
	f.IntVar(&a.cfg.Queue.Workers, "workers", a.cfg.Queue.Workers, "concurrent extractions")
	f.IntVar(&a.cfg.Queue.Size, "queue-size", a.cfg.Queue.Size, "pending file buffer")
	f.DurationVar(&a.cfg.Queue.ProcessTimeout, "timeout", a.cfg.Queue.ProcessTimeout, "per-file processing timeout")
	f.DurationVar(&a.cfg.Ingest.Debounce, "debounce", a.cfg.Ingest.Debounce, "coalesce file events within this window")
	f.BoolVar(&a.cfg.Ingest.InitialScan, "initial-scan", a.cfg.Ingest.InitialScan, "process files already present at startup")
	return cmd
}
