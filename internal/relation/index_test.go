package relation

import (
	"context"
	"testing"
	"time"

	"loandocs/internal/repository"
	"loandocs/pkg/domain"
	lderrors "loandocs/pkg/errors"
	"loandocs/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, rel *domain.DocumentRelation) error {
	args := m.Called(ctx, rel)
	return args.Error(0)
}

func (m *MockRepository) CreateTx(ctx context.Context, tx repository.Transaction, rel *domain.DocumentRelation) error {
	args := m.Called(ctx, tx, rel)
	return args.Error(0)
}

func (m *MockRepository) UpdateDeletedAt(ctx context.Context, id uuid.UUID, deletedAt *time.Time) error {
	args := m.Called(ctx, id, deletedAt)
	return args.Error(0)
}

func (m *MockRepository) UpdateDeletedAtTx(ctx context.Context, tx repository.Transaction, id uuid.UUID, deletedAt *time.Time) error {
	args := m.Called(ctx, tx, id, deletedAt)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRelation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindOwnership(ctx context.Context, documentID uuid.UUID) (*domain.DocumentRelation, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindOwnershipTx(ctx context.Context, tx repository.Transaction, documentID uuid.UUID) (*domain.DocumentRelation, error) {
	args := m.Called(ctx, tx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindUsage(ctx context.Context, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error) {
	args := m.Called(ctx, documentID, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindUsageTx(ctx context.Context, tx repository.Transaction, documentID, applicationID uuid.UUID) (*domain.DocumentRelation, error) {
	args := m.Called(ctx, tx, documentID, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindActiveUsageByType(ctx context.Context, applicationID uuid.UUID, docType domain.DocumentType) ([]*domain.DocumentRelation, error) {
	args := m.Called(ctx, applicationID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindActiveUsageByTypeTx(ctx context.Context, tx repository.Transaction, applicationID uuid.UUID, docType domain.DocumentType) ([]*domain.DocumentRelation, error) {
	args := m.Called(ctx, tx, applicationID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentRelation), args.Error(1)
}

func (m *MockRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentRelation, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentRelation), args.Error(1)
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestIndex(repo Repository) *Index {
	return NewIndex(repo, logger.NewNop(), func() time.Time { return testNow })
}

func personDocument() *domain.Document {
	return &domain.Document{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		DocumentType: domain.DocumentTypeProofOfIncome,
		OwnerKind:    domain.OwnerKindPerson,
		OwnerID:      uuid.New(),
	}
}

func TestEnsureOwnershipCreatesEdge(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	doc := personDocument()
	actor := uuid.New()

	repo.On("FindOwnership", mock.Anything, doc.ID).Return(nil, lderrors.ErrRelationNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(rel *domain.DocumentRelation) bool {
		return rel.DocumentID == doc.ID &&
			rel.RelatableKind == domain.RelatableKindPerson &&
			rel.RelatableID == doc.OwnerID &&
			rel.Context == domain.RelationContextOwnership &&
			*rel.CreatedBy == actor
	})).Return(nil)

	err := index.EnsureOwnership(context.Background(), doc, &actor)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEnsureOwnershipIsIdempotent(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	doc := personDocument()

	existing := &domain.DocumentRelation{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		Context:    domain.RelationContextOwnership,
	}
	repo.On("FindOwnership", mock.Anything, doc.ID).Return(existing, nil)

	err := index.EnsureOwnership(context.Background(), doc, nil)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsureOwnershipIdentificationOwner(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	doc := personDocument()
	doc.OwnerKind = domain.OwnerKindIdentification

	repo.On("FindOwnership", mock.Anything, doc.ID).Return(nil, lderrors.ErrRelationNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(rel *domain.DocumentRelation) bool {
		return rel.RelatableKind == domain.RelatableKindPerson && rel.RelatableID == doc.OwnerID
	})).Return(nil)

	err := index.EnsureOwnership(context.Background(), doc, nil)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFindActiveUsage(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	appID := uuid.New()

	rel := &domain.DocumentRelation{ID: uuid.New(), Context: domain.RelationContextUsage}
	repo.On("FindActiveUsageByType", mock.Anything, appID, domain.DocumentTypeSelfie).
		Return([]*domain.DocumentRelation{rel}, nil)

	found, err := index.FindActiveUsage(context.Background(), appID, domain.DocumentTypeSelfie)

	assert.NoError(t, err)
	assert.Equal(t, rel, found)
}

func TestFindActiveUsageNone(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	appID := uuid.New()

	repo.On("FindActiveUsageByType", mock.Anything, appID, domain.DocumentTypeSelfie).
		Return([]*domain.DocumentRelation{}, nil)

	_, err := index.FindActiveUsage(context.Background(), appID, domain.DocumentTypeSelfie)

	assert.ErrorIs(t, err, lderrors.ErrRelationNotFound)
}

func TestFindActiveUsagePrefersNewestDocument(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	appID := uuid.New()

	// Repository orders by document creation time, newest first; the index
	// takes the head even when an older duplicate slipped through.
	newest := &domain.DocumentRelation{ID: uuid.New()}
	older := &domain.DocumentRelation{ID: uuid.New()}
	repo.On("FindActiveUsageByType", mock.Anything, appID, domain.DocumentTypeBankStatement).
		Return([]*domain.DocumentRelation{newest, older}, nil)

	found, err := index.FindActiveUsage(context.Background(), appID, domain.DocumentTypeBankStatement)

	assert.NoError(t, err)
	assert.Equal(t, newest, found)
}

func TestAttachUsageCreatesEdge(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	doc := personDocument()
	appID := uuid.New()

	repo.On("FindUsage", mock.Anything, doc.ID, appID).Return(nil, lderrors.ErrRelationNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(rel *domain.DocumentRelation) bool {
		return rel.DocumentID == doc.ID &&
			rel.RelatableKind == domain.RelatableKindApplication &&
			rel.RelatableID == appID &&
			rel.Context == domain.RelationContextUsage
	})).Return(nil)

	rel, err := index.AttachUsage(context.Background(), doc, appID, nil)

	assert.NoError(t, err)
	assert.Equal(t, domain.RelationStateActive, rel.State())
	repo.AssertExpectations(t)
}

func TestAttachUsageRestoresDetachedEdge(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	doc := personDocument()
	appID := uuid.New()

	detachedAt := testNow.Add(-time.Hour)
	existing := &domain.DocumentRelation{
		ID:          uuid.New(),
		DocumentID:  doc.ID,
		RelatableID: appID,
		Context:     domain.RelationContextUsage,
		DeletedAt:   &detachedAt,
	}
	repo.On("FindUsage", mock.Anything, doc.ID, appID).Return(existing, nil)
	repo.On("UpdateDeletedAt", mock.Anything, existing.ID, (*time.Time)(nil)).Return(nil)

	rel, err := index.AttachUsage(context.Background(), doc, appID, nil)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, rel.ID)
	assert.Equal(t, domain.RelationStateActive, rel.State())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAttachUsageActiveEdgeIsNoop(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)
	doc := personDocument()
	appID := uuid.New()

	existing := &domain.DocumentRelation{
		ID:          uuid.New(),
		DocumentID:  doc.ID,
		RelatableID: appID,
		Context:     domain.RelationContextUsage,
	}
	repo.On("FindUsage", mock.Anything, doc.ID, appID).Return(existing, nil)

	rel, err := index.AttachUsage(context.Background(), doc, appID, nil)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, rel.ID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateDeletedAt", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetachUsage(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)

	rel := &domain.DocumentRelation{ID: uuid.New(), Context: domain.RelationContextUsage}
	repo.On("UpdateDeletedAt", mock.Anything, rel.ID, mock.AnythingOfType("*time.Time")).Return(nil)

	err := index.DetachUsage(context.Background(), rel)

	assert.NoError(t, err)
	assert.Equal(t, domain.RelationStateDetached, rel.State())
	assert.Equal(t, testNow, *rel.DeletedAt)
	repo.AssertExpectations(t)
}

func TestDetachUsageAlreadyDetachedIsNoop(t *testing.T) {
	repo := new(MockRepository)
	index := newTestIndex(repo)

	detachedAt := testNow.Add(-time.Hour)
	rel := &domain.DocumentRelation{ID: uuid.New(), DeletedAt: &detachedAt}

	err := index.DetachUsage(context.Background(), rel)

	assert.NoError(t, err)
	assert.Equal(t, detachedAt, *rel.DeletedAt)
	repo.AssertNotCalled(t, "UpdateDeletedAt", mock.Anything, mock.Anything, mock.Anything)
}
