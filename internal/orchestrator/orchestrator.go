// Package orchestrator drives a depersonalization run: it validates the
// configuration, selects the configured record types present in the store,
// and processes each one sequentially or on a bounded worker pool.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/mesh-intelligence/depersonalizer/internal/classify"
	"github.com/mesh-intelligence/depersonalizer/internal/processor"
	"github.com/mesh-intelligence/depersonalizer/internal/synth"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Orchestrator runs one configuration against stores from an opener.
type Orchestrator struct {
	cfg      types.Config
	registry synth.Resolver
	open     types.StoreOpener
}

// New returns an Orchestrator. cfg is used as an immutable snapshot.
func New(cfg types.Config, registry synth.Resolver, open types.StoreOpener) *Orchestrator {
	return &Orchestrator{cfg: cfg, registry: registry, open: open}
}

// Run validates the configuration and processes every configured record
// type found in the store. Configuration defects are returned before any
// store is opened. Per-type failures are recorded in the report and, unless
// FailFast is set, do not stop sibling record types; the returned error then
// wraps types.ErrRunFailed.
func (o *Orchestrator) Run(ctx context.Context) (types.RunReport, error) {
	start := time.Now()
	if err := o.cfg.Validate(); err != nil {
		return types.RunReport{}, &types.ConfigurationError{Err: err}
	}
	if err := Validate(o.cfg, o.registry); err != nil {
		return types.RunReport{}, err
	}

	selected, missing, err := o.selectRecordTypes(ctx)
	if err != nil {
		return types.RunReport{}, err
	}

	reports := make([]types.Report, len(o.cfg.RecordTypes))
	index := make(map[string]int, len(o.cfg.RecordTypes))
	for i, rt := range o.cfg.RecordTypes {
		index[rt.Name] = i
		reports[i] = types.Report{RecordType: rt.Name, Table: rt.TableName()}
	}
	for _, rt := range missing {
		log.WithField("record_type", rt.Name).Warnf("table %s not found in store, skipping", rt.TableName())
		reports[index[rt.Name]].Status = types.StatusMissing
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	task := func(rt types.RecordTypeConfig) {
		rep := o.runRecordType(runCtx, rt)
		reports[index[rt.Name]] = rep
		if rep.Failed() && o.cfg.FailFast && !errors.Is(rep.Err, context.Canceled) {
			log.WithField("record_type", rt.Name).Error("fail-fast: cancelling remaining record types")
			cancel()
		}
	}

	if o.cfg.Workers <= 1 {
		for _, rt := range selected {
			if runCtx.Err() != nil {
				reports[index[rt.Name]] = cancelledReport(rt, runCtx.Err())
				continue
			}
			task(rt)
		}
	} else {
		p := pool.New().WithMaxGoroutines(o.cfg.Workers)
		for _, rt := range selected {
			p.Go(func() {
				if runCtx.Err() != nil {
					reports[index[rt.Name]] = cancelledReport(rt, runCtx.Err())
					return
				}
				task(rt)
			})
		}
		p.Wait()
	}

	run := types.RunReport{Reports: reports, Duration: time.Since(start)}
	return run, run.Err()
}

// selectRecordTypes lists the store's tables on a short-lived connection and
// splits the configured record types into present and missing ones, keeping
// configuration order. The connection is closed before any worker starts.
func (o *Orchestrator) selectRecordTypes(ctx context.Context) (selected, missing []types.RecordTypeConfig, err error) {
	store, err := o.open(ctx)
	if err != nil {
		return nil, nil, &types.StoreError{RecordType: "*", Op: types.OpOpen, Err: err}
	}
	defer store.Close()

	catalog, ok := store.(types.Catalog)
	if !ok {
		return o.cfg.RecordTypes, nil, nil
	}
	tables, err := catalog.RecordTables(ctx)
	if err != nil {
		return nil, nil, &types.StoreError{RecordType: "*", Op: types.OpList, Err: err}
	}
	selected, missing = Select(tables, o.cfg.RecordTypes)
	return selected, missing, nil
}

// Select partitions configured by whether their table appears in tables.
func Select(tables []string, configured []types.RecordTypeConfig) (present, missing []types.RecordTypeConfig) {
	known := lo.SliceToMap(tables, func(t string) (string, struct{}) { return t, struct{}{} })
	for _, rt := range configured {
		if _, ok := known[rt.TableName()]; ok {
			present = append(present, rt)
		} else {
			missing = append(missing, rt)
		}
	}
	return present, missing
}

// runRecordType processes one record type on its own store connection.
func (o *Orchestrator) runRecordType(ctx context.Context, rt types.RecordTypeConfig) types.Report {
	logger := log.WithField("record_type", rt.Name)
	logger.Info("start processing")
	failed := func(op string, err error) types.Report {
		serr := &types.StoreError{RecordType: rt.Name, Op: op, Err: err}
		logger.WithError(serr).Error("processing failed")
		return types.Report{
			RecordType: rt.Name,
			Table:      rt.TableName(),
			Status:     types.StatusFailed,
			Err:        serr,
			Error:      serr.Error(),
		}
	}

	store, err := o.open(ctx)
	if err != nil {
		return failed(types.OpOpen, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("closing store")
		}
	}()

	schema, err := store.SchemaOf(ctx, rt)
	if err != nil {
		return failed(types.OpSchema, err)
	}
	fields := classify.FieldsToUpdate(schema, o.cfg.Policy(rt))
	src := synth.NewSource(o.registry, o.cfg.SourceMap(rt), rt.UniqueFields)

	rep, err := processor.New(store, o.cfg.BatchSize).Process(ctx, schema, fields, src)
	if err != nil {
		logger.WithError(err).Error("processing failed")
		return rep
	}
	logger.Infof("updated %d records", rep.Records)
	return rep
}

func cancelledReport(rt types.RecordTypeConfig, err error) types.Report {
	return types.Report{
		RecordType: rt.Name,
		Table:      rt.TableName(),
		Status:     types.StatusCancelled,
		Err:        err,
		Error:      err.Error(),
	}
}
