package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"variants-service/internal/models"
	"variants-service/internal/query"
	"variants-service/internal/variant"
)

// FamilyVariantStructureChanges recomputes every tree of the given family variants,
// typically after attributes moved between their variation levels.
type FamilyVariantStructureChanges struct {
	deps   Dependencies
	codes  []string
	state  stateHolder
	logger *logrus.Entry
}

func NewFamilyVariantStructureChanges(deps Dependencies, familyVariantCodes []string) *FamilyVariantStructureChanges {
	return &FamilyVariantStructureChanges{
		deps:   deps,
		codes:  familyVariantCodes,
		logger: deps.logger().WithField("job", FamilyVariantStructureChangesName),
	}
}

func (j *FamilyVariantStructureChanges) Name() string { return FamilyVariantStructureChangesName }

func (j *FamilyVariantStructureChanges) Parameters() map[string]interface{} {
	return map[string]interface{}{"familyVariantCodes": j.codes}
}

// State returns the current phase of the run
func (j *FamilyVariantStructureChanges) State() State { return j.state.get() }

func (j *FamilyVariantStructureChanges) Execute(ctx context.Context, step *StepExecution) error {
	bulk := newBulkProcessor(j.deps, step, &j.state, j.logger)
	defer j.state.set(StateDone)
	bulk.clearCaches()

	j.state.set(StateResolvingFamily)
	variants, err := j.deps.Families.FindVariantsByCode(ctx, j.codes)
	if err != nil {
		return fmt.Errorf("failed to load family variants: %w", err)
	}

	scope := variant.NewScope()
	found := make(map[string]bool, len(variants))
	for _, fv := range variants {
		found[fv.Code] = true
		scope.AddFamilyVariant(fv)
		if _, ok := scope.Families[fv.FamilyCode]; ok {
			continue
		}
		family, err := j.deps.Families.FindByCode(ctx, fv.FamilyCode)
		if err != nil {
			return fmt.Errorf("failed to load family %q: %w", fv.FamilyCode, err)
		}
		if family != nil {
			scope.AddFamily(family)
		}
	}

	codes := make([]string, 0, len(found))
	for _, code := range j.codes {
		if !found[code] {
			j.logger.WithField("familyVariant", code).Warn("Skipping unknown family variant")
			step.IncrementSummaryInfo(models.SummarySkip, 1)
			continue
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil
	}

	builder := j.deps.Queries.Create()
	if err := builder.AddFilter(query.FieldFamilyVariant, query.OperatorIn, codes); err != nil {
		return err
	}
	if err := builder.AddFilter(query.FieldParent, query.OperatorIsEmpty, nil); err != nil {
		return err
	}
	cursor, err := builder.Execute(ctx)
	if err != nil {
		return fmt.Errorf("failed to search root product models: %w", err)
	}

	if err := bulk.processRoots(ctx, cursor, scope); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if flushErr := bulk.flush(context.WithoutCancel(ctx)); flushErr != nil {
				return flushErr
			}
		}
		return err
	}
	return bulk.flush(ctx)
}
