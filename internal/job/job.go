// Package job runs the batch recomputations of variant trees: read what to
// recompute, walk every tree bottom-up, save valid nodes in bulk.
package job

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"variants-service/internal/models"
	"variants-service/internal/query"
	"variants-service/internal/variant"
)

const (
	// DefaultBulkSize is the number of entities buffered before a flush
	DefaultBulkSize = 100

	ComputeFamilyVariantDataName      = "compute_family_variant_data"
	FamilyVariantStructureChangesName = "compute_family_variant_structure_changes"
)

// FamilyRepository gives access to family and family variant definitions
type FamilyRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Family, error)
	FindVariantsByFamily(ctx context.Context, familyCode string) ([]*models.FamilyVariant, error)
	FindVariantsByCode(ctx context.Context, codes []string) ([]*models.FamilyVariant, error)
}

// TreeLoader loads the whole tree under a root product model
type TreeLoader interface {
	Load(ctx context.Context, root *models.ProductModel) (*variant.Tree, error)
}

// TreeWalker prepares every node of a tree for saving
type TreeWalker interface {
	Walk(t *variant.Tree, scope *variant.Scope) (*variant.Batch, error)
}

type ProductModelSaver interface {
	SaveAll(ctx context.Context, productModels []*models.ProductModel) error
}

type ProductSaver interface {
	SaveAll(ctx context.Context, products []*models.Product) error
}

// CacheClearer drops the definitions kept in memory since the last clear
type CacheClearer interface {
	Clear()
}

// FamilyLease keeps two runs from recomputing the same family concurrently
type FamilyLease interface {
	Acquire(ctx context.Context, familyCode string) (bool, error)
	Release(ctx context.Context, familyCode string) error
}

// EventPublisher announces recomputed products
type EventPublisher interface {
	PublishCompletenessRecomputed(ctx context.Context, products []*models.Product)
}

// Dependencies are the collaborators shared by the recomputation jobs.
// Lease and Publisher are optional.
type Dependencies struct {
	Families     FamilyRepository
	Queries      query.BuilderFactory
	Loader       TreeLoader
	Walker       TreeWalker
	ModelSaver   ProductModelSaver
	ProductSaver ProductSaver
	CacheClearer CacheClearer
	Lease        FamilyLease
	Publisher    EventPublisher
	Logger       *logrus.Entry
	BulkSize     int
}

func (d Dependencies) bulkSize() int {
	if d.BulkSize <= 0 {
		return DefaultBulkSize
	}
	return d.BulkSize
}

func (d Dependencies) logger() *logrus.Entry {
	if d.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Logger
}

// Job is a batch job the Runner can execute
type Job interface {
	Name() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, step *StepExecution) error
}

// State is the phase a recomputation job is in
type State int32

const (
	StateIdle State = iota
	StateReading
	StateResolvingFamily
	StateWalkingTree
	StateBuffering
	StateFlushing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateResolvingFamily:
		return "resolving_family"
	case StateWalkingTree:
		return "walking_tree"
	case StateBuffering:
		return "buffering"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// stateHolder lets the state be read from another goroutine while the job runs
type stateHolder struct {
	v atomic.Int32
}

func (h *stateHolder) set(s State) { h.v.Store(int32(s)) }
func (h *stateHolder) get() State  { return State(h.v.Load()) }
