package job

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"variants-service/internal/models"
	"variants-service/internal/query"
	"variants-service/internal/reader"
	"variants-service/internal/variant"
)

// ComputeFamilyVariantData recomputes the variant trees of every family read from its reader:
// values are pruned to their owning level and product completenesses are refreshed.
type ComputeFamilyVariantData struct {
	deps   Dependencies
	reader reader.Reader
	params map[string]interface{}
	state  stateHolder
	logger *logrus.Entry
}

// NewComputeFamilyVariantData creates a run reading family codes from r
func NewComputeFamilyVariantData(deps Dependencies, r reader.Reader, params map[string]interface{}) *ComputeFamilyVariantData {
	if params == nil {
		params = map[string]interface{}{}
	}
	return &ComputeFamilyVariantData{
		deps:   deps,
		reader: r,
		params: params,
		logger: deps.logger().WithField("job", ComputeFamilyVariantDataName),
	}
}

func (j *ComputeFamilyVariantData) Name() string                       { return ComputeFamilyVariantDataName }
func (j *ComputeFamilyVariantData) Parameters() map[string]interface{} { return j.params }

// State returns the current phase of the run
func (j *ComputeFamilyVariantData) State() State { return j.state.get() }

func (j *ComputeFamilyVariantData) Execute(ctx context.Context, step *StepExecution) error {
	bulk := newBulkProcessor(j.deps, step, &j.state, j.logger)
	defer j.state.set(StateDone)
	// definitions may have changed since the previous run
	bulk.clearCaches()
	if closer, ok := j.reader.(io.Closer); ok {
		defer closer.Close()
	}

	for {
		if err := ctx.Err(); err != nil {
			if flushErr := bulk.flush(context.WithoutCancel(ctx)); flushErr != nil {
				return flushErr
			}
			return err
		}

		j.state.set(StateReading)
		record, err := j.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, reader.ErrInvalidRecord) {
			j.logger.WithError(err).Warn("Skipping invalid record")
			step.IncrementSummaryInfo(models.SummarySkip, 1)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read family record: %w", err)
		}

		if err := j.processFamily(ctx, bulk, step, record.Code); err != nil {
			return err
		}
	}

	return bulk.flush(ctx)
}

func (j *ComputeFamilyVariantData) processFamily(ctx context.Context, bulk *bulkProcessor, step *StepExecution, code string) error {
	j.state.set(StateResolvingFamily)
	log := j.logger.WithField("family", code)

	family, err := j.deps.Families.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to load family %q: %w", code, err)
	}
	if family == nil {
		log.Warn("Skipping unknown family")
		step.IncrementSummaryInfo(models.SummarySkip, 1)
		return nil
	}

	if j.deps.Lease != nil {
		acquired, err := j.deps.Lease.Acquire(ctx, code)
		if err != nil {
			return err
		}
		if !acquired {
			log.Warn("Skipping family recomputed by another run")
			step.IncrementSummaryInfo(models.SummarySkip, 1)
			return nil
		}
		defer func() {
			if err := j.deps.Lease.Release(context.WithoutCancel(ctx), code); err != nil {
				log.WithError(err).Warn("Failed to release family lease")
			}
		}()
	}

	variants, err := j.deps.Families.FindVariantsByFamily(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to load family variants of %q: %w", code, err)
	}
	scope := variant.NewScope()
	scope.AddFamily(family)
	for _, fv := range variants {
		scope.AddFamilyVariant(fv)
	}

	builder := j.deps.Queries.Create()
	if err := builder.AddFilter(query.FieldFamily, query.OperatorEquals, code); err != nil {
		return err
	}
	if err := builder.AddFilter(query.FieldParent, query.OperatorIsEmpty, nil); err != nil {
		return err
	}
	cursor, err := builder.Execute(ctx)
	if err != nil {
		return fmt.Errorf("failed to search root product models of %q: %w", code, err)
	}

	if err := bulk.processRoots(ctx, cursor, scope); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if flushErr := bulk.flush(context.WithoutCancel(ctx)); flushErr != nil {
				return flushErr
			}
		}
		return err
	}

	log.Debug("Family recomputed")
	return bulk.flush(ctx)
}
