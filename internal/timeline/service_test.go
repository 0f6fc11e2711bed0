package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"loandocs/pkg/domain"
	"loandocs/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	channel string
	events  []Event
	err     error
}

func (p *capturingPublisher) Publish(ctx context.Context, channel string, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.channel = channel
	p.events = append(p.events, value.(Event))
	return nil
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(pub Publisher) *Service {
	return New(pub, "timeline.documents", time.Second, logger.NewNop(), func() time.Time { return testNow })
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		DocumentType: domain.DocumentTypeSelfie,
	}
}

func TestDocumentUploadedEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(pub)
	doc := testDocument()

	svc.DocumentUploaded(context.Background(), doc)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, "timeline.documents", pub.channel)
	assert.Equal(t, EventDocumentUploaded, event.Type)
	assert.Equal(t, doc.ID, event.DocumentID)
	assert.Equal(t, doc.TenantID, event.TenantID)
	assert.Equal(t, "selfie", event.DocumentType)
	assert.Equal(t, testNow, event.OccurredAt)
	assert.Nil(t, event.ApplicationID)
}

func TestDocumentSupersededEventCarriesReason(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(pub)
	oldDoc := testDocument()
	newDoc := testDocument()
	appID := uuid.New()

	svc.DocumentSuperseded(context.Background(), oldDoc, newDoc, appID, domain.ReplacementReasonRejected)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, EventDocumentSuperseded, event.Type)
	assert.Equal(t, oldDoc.ID, event.DocumentID)
	assert.Equal(t, appID, *event.ApplicationID)
	assert.Equal(t, newDoc.ID.String(), event.Metadata["superseded_by"])
	assert.Equal(t, "rejected", event.Metadata["reason"])
}

func TestDocumentApprovedEventCarriesMethod(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(pub)
	doc := testDocument()

	svc.DocumentApproved(context.Background(), doc, domain.VerificationMethodFaceMatch)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "face_match", pub.events[0].Metadata["method"])
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker unavailable")}
	svc := newTestService(pub)

	// Must not panic or surface the error to the caller.
	svc.DocumentUploaded(context.Background(), testDocument())
	svc.DocumentAttached(context.Background(), testDocument(), uuid.New())
}

func TestEmitSurvivesCancelledCaller(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.DocumentUploaded(ctx, testDocument())

	// The publish context is detached from the caller's cancellation.
	assert.Len(t, pub.events, 1)
}
