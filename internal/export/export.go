package export

import (
	"context"
	"fmt"
	"time"

	"boardview/internal/board"
	"boardview/internal/core"
	"boardview/internal/log"
)

// Sink persists a report somewhere outside the process.
type Sink interface {
	// Write stores rep and returns a human readable reference to it.
	Write(ctx context.Context, rep core.Report) (ref string, err error)
	Close() error
}

// Source yields a freshly fetched board index.
type Source interface {
	Index(ctx context.Context) (*board.Index, error)
}

// Result describes a finished export.
type Result struct {
	Report core.Report
	Ref    string
}

type Exporter struct {
	source Source
	sink   Sink
	name   string
	logger *log.Logger
	now    func() time.Time
}

func NewExporter(source Source, sink Sink, sinkName string, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.FromSlog(nil, log.ComponentExport)
	}
	return &Exporter{
		source: source,
		sink:   sink,
		name:   sinkName,
		logger: logger.WithComponent(log.ComponentExport),
		now:    time.Now,
	}
}

// Run fetches the board once, builds a report and writes it to the sink.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	start := e.now()

	idx, err := e.source.Index(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch board: %w", err)
	}

	rep, err := NewReport(idx, start)
	if err != nil {
		return Result{}, fmt.Errorf("build report: %w", err)
	}

	ref, err := e.sink.Write(ctx, rep)
	if err != nil {
		e.logger.ErrorContext(ctx, "Report export failed",
			log.FieldSink, e.name,
			log.FieldReportID, rep.ID,
			log.FieldError, err,
			log.FieldOperation, log.OpExport)
		return Result{}, fmt.Errorf("write report to %s: %w", e.name, err)
	}

	e.logger.InfoContext(ctx, "Report exported",
		log.FieldSink, e.name,
		log.FieldReportID, rep.ID,
		log.FieldBoardID, rep.BoardID,
		log.FieldCardCount, rep.RowCount(),
		log.FieldDuration, e.now().Sub(start).Milliseconds(),
		log.FieldOperation, log.OpExport)

	return Result{Report: rep, Ref: ref}, nil
}
