// Package processor replaces eligible fields of every record of one record
// type and writes the records back to the store in bounded batches.
package processor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// ValueSource produces a synthetic value for a field.
type ValueSource interface {
	ValueFor(field string) (any, error)
}

// Processor streams records from a store and flushes them in batches of at
// most batchSize records.
type Processor struct {
	store     types.Store
	batchSize int
}

// New returns a Processor over store. A non-positive batchSize falls back to
// types.DefaultBatchSize.
func New(store types.Store, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = types.DefaultBatchSize
	}
	return &Processor{store: store, batchSize: batchSize}
}

// Process sets every field in fields to a value from src on every record of
// schema's record type. With no fields it returns at once without touching
// the store. Batches already flushed stay applied when a later batch fails or
// ctx is cancelled; the returned report counts only flushed records.
func (p *Processor) Process(ctx context.Context, schema types.RecordSchema, fields []string, src ValueSource) (report types.Report, err error) {
	start := time.Now()
	report = types.Report{
		RecordType: schema.RecordType,
		Table:      schema.Table,
		Fields:     fields,
		Status:     types.StatusProcessed,
	}
	defer func() { report.Duration = time.Since(start) }()

	if len(fields) == 0 {
		log.WithField("record_type", schema.RecordType).Info("no fields to update")
		report.Status = types.StatusNoFields
		return report, nil
	}

	logger := log.WithFields(log.Fields{
		"record_type": schema.RecordType,
		"table":       schema.Table,
	})

	buf := make([]*types.Record, 0, p.batchSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		batch := report.Batches + 1
		if err := p.store.BulkUpdate(ctx, schema, buf, fields, p.batchSize); err != nil {
			return &types.StoreError{RecordType: schema.RecordType, Op: types.OpUpdate, Batch: batch, Err: err}
		}
		report.Batches = batch
		report.Records += len(buf)
		logger.WithFields(log.Fields{"batch": batch, "records": len(buf)}).Debug("batch flushed")
		buf = buf[:0]
		return nil
	}
	fail := func(err error) (types.Report, error) {
		report.Status = types.StatusFailed
		report.Err = err
		report.Error = err.Error()
		return report, err
	}
	cancelled := func(err error) (types.Report, error) {
		report.Status = types.StatusCancelled
		report.Err = err
		report.Error = err.Error()
		logger.WithField("records", report.Records).Warn("record type cancelled")
		return report, err
	}

	for rec, err := range p.store.StreamRecords(ctx, schema, fields) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cancelled(ctxErr)
			}
			return fail(&types.StoreError{RecordType: schema.RecordType, Op: types.OpStream, Batch: report.Batches + 1, Err: err})
		}
		for _, f := range fields {
			v, err := src.ValueFor(f)
			if err != nil {
				return fail(err)
			}
			rec.Set(f, v)
		}
		buf = append(buf, rec)
		if len(buf) < p.batchSize {
			continue
		}
		if err := flush(); err != nil {
			return fail(err)
		}
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
	}
	if err := flush(); err != nil {
		return fail(err)
	}

	logger.WithFields(log.Fields{"records": report.Records, "batches": report.Batches}).Info("record type processed")
	return report, nil
}
