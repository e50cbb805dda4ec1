// Package pipeline sequences fetch, extract, transform and load for one run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/largestbanks/banketl/internal/config"
	"github.com/largestbanks/banketl/internal/extract"
	"github.com/largestbanks/banketl/internal/model"
	"github.com/largestbanks/banketl/internal/query"
	"github.com/largestbanks/banketl/internal/rates"
	"github.com/largestbanks/banketl/internal/sink"
	"github.com/largestbanks/banketl/internal/transform"
)

// Progress messages, in the order a successful run writes them.
const (
	MsgStart        = "Preliminaries complete. Initiating ETL process"
	MsgExtracted    = "Data extraction complete. Initiating Transformation process"
	MsgTransformed  = "Data transformation complete. Initiating Loading process"
	MsgCSVSaved     = "Data saved to CSV file"
	MsgDBConnected  = "SQL Connection initiated"
	MsgDBLoaded     = "Data loaded to Database as a table, Executing queries"
	MsgComplete     = "Process Complete"
	MsgDBClosed     = "Server Connection closed"
	msgFailedPrefix = "ETL process failed: "
)

// Fetcher retrieves the source markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Recorder receives progress messages.
type Recorder interface {
	Record(msg string)
}

// Deps are the collaborators of a run.
type Deps struct {
	Fetcher  Fetcher
	Progress Recorder
	Logger   logrus.FieldLogger // optional

	// QueryOutput receives the post-load reports; nil skips them.
	QueryOutput io.Writer
}

// Result summarises a completed run.
type Result struct {
	RunID   string
	Extract extract.Stats
	Table   model.EnrichedTable
}

// Run executes one ETL pass. Fetch, extract, rate-loading and transform
// failures abort before any output is touched. The CSV and database writes
// are attempted independently; their failures are combined in the returned
// error.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	runID := uuid.NewString()
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("run_id", runID)

	res := &Result{RunID: runID}
	fail := func(stage string, err error) (*Result, error) {
		err = fmt.Errorf("%s: %w", stage, err)
		deps.Progress.Record(msgFailedPrefix + err.Error())
		log.WithError(err).Error("run failed")
		return nil, err
	}

	deps.Progress.Record(MsgStart)
	log.WithField("url", cfg.Source.URL).Info("fetching source page")

	markup, err := deps.Fetcher.Fetch(ctx, cfg.Source.URL)
	if err != nil {
		return fail("fetch", err)
	}
	table, stats, err := extract.ExtractFrom(strings.NewReader(markup), cfg.Extract.TableIndex)
	if err != nil {
		return fail("extract", err)
	}
	res.Extract = stats
	deps.Progress.Record(MsgExtracted)
	log.WithFields(logrus.Fields{
		"tables":  stats.Tables,
		"records": len(table),
		"skipped": stats.Skipped,
		"missing": stats.Missing,
	}).Info("extracted bank table")

	rateTable, err := rates.Load(cfg.Rates.Path)
	if err != nil {
		return fail("transform", err)
	}
	enriched, err := transform.Transform(table, rateTable)
	if err != nil {
		return fail("transform", err)
	}
	res.Table = enriched
	deps.Progress.Record(MsgTransformed)
	log.WithField("currencies", strings.Join(model.TargetCurrencies, ",")).Info("converted market caps")

	if err := load(ctx, cfg, deps, log, enriched); err != nil {
		deps.Progress.Record(msgFailedPrefix + err.Error())
		log.WithError(err).Error("run failed")
		return res, err
	}
	return res, nil
}

func load(ctx context.Context, cfg *config.Config, deps Deps, log logrus.FieldLogger, table model.EnrichedTable) error {
	var errs *multierror.Error

	if err := sink.WriteCSV(table, cfg.Output.CSVPath, sink.CSVOptions{IncludeIndex: cfg.Output.IncludeIndex}); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		deps.Progress.Record(MsgCSVSaved)
		fields := logrus.Fields{"path": cfg.Output.CSVPath, "rows": len(table)}
		if info, err := os.Stat(cfg.Output.CSVPath); err == nil {
			fields["size"] = humanize.Bytes(uint64(info.Size()))
		}
		log.WithFields(fields).Info("wrote CSV")
	}

	db, err := sink.Open(ctx, cfg.Output.DBPath)
	if err != nil {
		errs = multierror.Append(errs, &sink.PersistenceError{Sink: sink.SinkDatabase, Target: cfg.Output.DBPath, Err: err})
		return errs.ErrorOrNil()
	}
	deps.Progress.Record(MsgDBConnected)

	if err := sink.WriteTable(ctx, db, cfg.Output.TableName, table); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		deps.Progress.Record(MsgDBLoaded)
		log.WithFields(logrus.Fields{"db": cfg.Output.DBPath, "table": cfg.Output.TableName}).Info("loaded table")

		if deps.QueryOutput != nil {
			if err := query.Run(ctx, db, cfg.Output.TableName, deps.QueryOutput); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("running queries: %w", err))
			}
		}
	}

	if errs.ErrorOrNil() == nil {
		deps.Progress.Record(MsgComplete)
	}
	if err := db.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("closing database: %w", err))
	} else {
		deps.Progress.Record(MsgDBClosed)
	}
	return errs.ErrorOrNil()
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(msg string)

// Record calls f(msg).
func (f RecorderFunc) Record(msg string) { f(msg) }
