package job

import (
	"context"

	"variants-service/internal/models"
	"variants-service/internal/reader"
)

// Launcher starts the recomputation jobs in the background
type Launcher struct {
	runner *Runner
	deps   Dependencies
}

func NewLauncher(runner *Runner, deps Dependencies) *Launcher {
	return &Launcher{runner: runner, deps: deps}
}

func (l *Launcher) LaunchComputeFamilyVariants(ctx context.Context, r reader.Reader, params map[string]interface{}) (*models.JobExecution, error) {
	return l.runner.Launch(ctx, NewComputeFamilyVariantData(l.deps, r, params))
}

func (l *Launcher) LaunchFamilyVariantStructure(ctx context.Context, familyVariantCodes []string) (*models.JobExecution, error) {
	return l.runner.Launch(ctx, NewFamilyVariantStructureChanges(l.deps, familyVariantCodes))
}
