package job

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"variants-service/internal/models"
	"variants-service/internal/query"
	"variants-service/internal/variant"
)

// bulkProcessor walks the trees of a root query and saves valid nodes in bulk.
// It is shared by the recomputation jobs.
type bulkProcessor struct {
	deps   Dependencies
	step   *StepExecution
	state  *stateHolder
	logger *logrus.Entry

	productModels []*models.ProductModel
	products      []*models.Product
}

func newBulkProcessor(deps Dependencies, step *StepExecution, state *stateHolder, logger *logrus.Entry) *bulkProcessor {
	size := deps.bulkSize()
	return &bulkProcessor{
		deps:          deps,
		step:          step,
		state:         state,
		logger:        logger,
		productModels: make([]*models.ProductModel, 0, size),
		products:      make([]*models.Product, 0, size),
	}
}

// processRoots walks every root returned by the cursor
func (b *bulkProcessor) processRoots(ctx context.Context, cursor query.Cursor, scope *variant.Scope) error {
	defer cursor.Close()

	for cursor.Next(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.processRoot(ctx, cursor.Current(), scope); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to iterate root product models: %w", err)
	}
	return nil
}

// processRoot loads and walks one tree. A tree that cannot be loaded or walked
// is counted as one skip and none of its nodes are saved.
func (b *bulkProcessor) processRoot(ctx context.Context, root *models.ProductModel, scope *variant.Scope) error {
	b.state.set(StateWalkingTree)
	log := b.logger.WithField("root", root.Code)

	tree, err := b.deps.Loader.Load(ctx, root)
	if err != nil {
		log.WithError(err).Warn("Skipping tree that could not be loaded")
		b.step.IncrementSummaryInfo(models.SummarySkip, 1)
		return nil
	}

	batch, err := b.deps.Walker.Walk(tree, scope)
	if err != nil {
		log.WithError(err).Warn("Skipping malformed tree")
		b.step.IncrementSummaryInfo(models.SummarySkip, 1)
		return nil
	}

	if len(batch.Skipped) > 0 {
		b.step.IncrementSummaryInfo(models.SummarySkip, len(batch.Skipped))
		log.WithFields(logrus.Fields{
			"invalid": invalidLabels(tree, batch),
		}).Info("Skipped invalid nodes")
	}

	b.state.set(StateBuffering)
	for _, pm := range batch.ProductModels {
		b.productModels = append(b.productModels, pm)
		if err := b.flushIfFull(ctx); err != nil {
			return err
		}
	}
	for _, p := range batch.Products {
		b.products = append(b.products, p)
		if err := b.flushIfFull(ctx); err != nil {
			return err
		}
	}
	return nil
}

// clearCaches drops the definitions memoized since the last clear
func (b *bulkProcessor) clearCaches() {
	if b.deps.CacheClearer != nil {
		b.deps.CacheClearer.Clear()
	}
}

func (b *bulkProcessor) flushIfFull(ctx context.Context) error {
	size := b.deps.bulkSize()
	if len(b.productModels) >= size || len(b.products) >= size {
		return b.flush(ctx)
	}
	return nil
}

// flush saves both buffers, clears the caches and counts what was saved.
// Nothing happens when both buffers are empty.
func (b *bulkProcessor) flush(ctx context.Context) error {
	if len(b.productModels) == 0 && len(b.products) == 0 {
		return nil
	}
	b.state.set(StateFlushing)

	if len(b.productModels) > 0 {
		if err := b.deps.ModelSaver.SaveAll(ctx, b.productModels); err != nil {
			return fmt.Errorf("failed to save %d product models: %w", len(b.productModels), err)
		}
	}
	if len(b.products) > 0 {
		if err := b.deps.ProductSaver.SaveAll(ctx, b.products); err != nil {
			return fmt.Errorf("failed to save %d products: %w", len(b.products), err)
		}
	}
	b.clearCaches()

	saved := len(b.productModels) + len(b.products)
	b.step.IncrementSummaryInfo(models.SummaryProcess, saved)
	flushesTotal.WithLabelValues(b.step.jobName).Inc()
	if b.deps.Publisher != nil && len(b.products) > 0 {
		b.deps.Publisher.PublishCompletenessRecomputed(ctx, b.products)
	}
	b.logger.WithFields(logrus.Fields{
		"productModels": len(b.productModels),
		"products":      len(b.products),
	}).Debug("Flushed bulk")

	b.productModels = make([]*models.ProductModel, 0, b.deps.bulkSize())
	b.products = make([]*models.Product, 0, b.deps.bulkSize())
	return nil
}

func invalidLabels(tree *variant.Tree, batch *variant.Batch) []string {
	labels := make([]string, 0, batch.Invalid.GetCardinality())
	it := batch.Invalid.Iterator()
	for it.HasNext() {
		labels = append(labels, tree.Node(variant.NodeID(it.Next())).Label())
	}
	return labels
}
