package job

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"variants-service/internal/models"
	"variants-service/internal/query"
	"variants-service/internal/reader"
	"variants-service/internal/variant"
)

type MockFamilyRepository struct {
	mock.Mock
}

var _ FamilyRepository = (*MockFamilyRepository)(nil)

func (m *MockFamilyRepository) FindByCode(ctx context.Context, code string) (*models.Family, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Family), args.Error(1)
}

func (m *MockFamilyRepository) FindVariantsByFamily(ctx context.Context, familyCode string) ([]*models.FamilyVariant, error) {
	args := m.Called(ctx, familyCode)
	return args.Get(0).([]*models.FamilyVariant), args.Error(1)
}

func (m *MockFamilyRepository) FindVariantsByCode(ctx context.Context, codes []string) ([]*models.FamilyVariant, error) {
	args := m.Called(ctx, codes)
	return args.Get(0).([]*models.FamilyVariant), args.Error(1)
}

type MockTreeLoader struct {
	mock.Mock
}

var _ TreeLoader = (*MockTreeLoader)(nil)

func (m *MockTreeLoader) Load(ctx context.Context, root *models.ProductModel) (*variant.Tree, error) {
	args := m.Called(ctx, root)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*variant.Tree), args.Error(1)
}

type MockProductModelSaver struct {
	mock.Mock
}

var _ ProductModelSaver = (*MockProductModelSaver)(nil)

func (m *MockProductModelSaver) SaveAll(ctx context.Context, productModels []*models.ProductModel) error {
	args := m.Called(ctx, productModels)
	return args.Error(0)
}

// savedBatches returns the length of every saved batch in call order
func (m *MockProductModelSaver) savedBatches() []int {
	var sizes []int
	for _, call := range m.Calls {
		sizes = append(sizes, len(call.Arguments.Get(1).([]*models.ProductModel)))
	}
	return sizes
}

type MockProductSaver struct {
	mock.Mock
}

var _ ProductSaver = (*MockProductSaver)(nil)

func (m *MockProductSaver) SaveAll(ctx context.Context, products []*models.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

type MockCacheClearer struct {
	mock.Mock
}

func (m *MockCacheClearer) Clear() {
	m.Called()
}

type MockFamilyLease struct {
	mock.Mock
}

var _ FamilyLease = (*MockFamilyLease)(nil)

func (m *MockFamilyLease) Acquire(ctx context.Context, familyCode string) (bool, error) {
	args := m.Called(ctx, familyCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockFamilyLease) Release(ctx context.Context, familyCode string) error {
	args := m.Called(ctx, familyCode)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

var _ EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishCompletenessRecomputed(ctx context.Context, products []*models.Product) {
	m.Called(ctx, products)
}

type MockExecutionStore struct {
	mock.Mock
}

var _ ExecutionStore = (*MockExecutionStore)(nil)

func (m *MockExecutionStore) Create(ctx context.Context, execution *models.JobExecution) error {
	args := m.Called(ctx, execution)
	if args.Error(0) == nil {
		execution.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockExecutionStore) Update(ctx context.Context, execution *models.JobExecution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

// loaderFunc and walkerFunc build trees and batches per root
type loaderFunc func(ctx context.Context, root *models.ProductModel) (*variant.Tree, error)

func (f loaderFunc) Load(ctx context.Context, root *models.ProductModel) (*variant.Tree, error) {
	return f(ctx, root)
}

type walkerFunc func(t *variant.Tree, scope *variant.Scope) (*variant.Batch, error)

func (f walkerFunc) Walk(t *variant.Tree, scope *variant.Scope) (*variant.Batch, error) {
	return f(t, scope)
}

// stubQueries serves root product models indexed by family or family variant code
type stubQueries struct {
	roots   map[string][]*models.ProductModel
	created int
	filters []query.Filter
}

func newStubQueries() *stubQueries {
	return &stubQueries{roots: make(map[string][]*models.ProductModel)}
}

func (s *stubQueries) Create() query.Builder {
	s.created++
	return &stubBuilder{queries: s}
}

type stubBuilder struct {
	queries *stubQueries
	filters []query.Filter
}

func (b *stubBuilder) AddFilter(field string, op query.Operator, value interface{}) error {
	filter, err := query.NewFilter(field, op, value)
	if err != nil {
		return err
	}
	b.filters = append(b.filters, filter)
	b.queries.filters = append(b.queries.filters, filter)
	return nil
}

func (b *stubBuilder) Execute(ctx context.Context) (query.Cursor, error) {
	var roots []*models.ProductModel
	for _, filter := range b.filters {
		if filter.Field != query.FieldFamily && filter.Field != query.FieldFamilyVariant {
			continue
		}
		for _, code := range filter.Strings() {
			roots = append(roots, b.queries.roots[code]...)
		}
	}
	return query.NewSliceCursor(roots), nil
}

// closingReader records whether the job closed it
type closingReader struct {
	*reader.SliceReader
	closed bool
}

var _ io.Closer = (*closingReader)(nil)

func (r *closingReader) Close() error {
	r.closed = true
	return nil
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
