// ==============================================================================
// TIMELINE SERVICE - internal/timeline/service.go
// ==============================================================================
// Best-effort event emission to the timeline collaborator over a Redis
// channel. The document core never depends on delivery succeeding: failures
// are logged and dropped.
// ==============================================================================

package timeline

import (
	"context"
	"time"

	"loandocs/pkg/cache"
	"loandocs/pkg/domain"
	"loandocs/pkg/logger"

	"github.com/google/uuid"
)

// EventType identifies a timeline event.
type EventType string

const (
	EventDocumentUploaded   EventType = "document.uploaded"
	EventDocumentAttached   EventType = "document.attached"
	EventDocumentSuperseded EventType = "document.superseded"
	EventDocumentApproved   EventType = "document.approved"
)

// Event is the JSON payload published on the timeline channel.
type Event struct {
	Type          EventType       `json:"type"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	DocumentID    uuid.UUID       `json:"document_id"`
	DocumentType  string          `json:"document_type"`
	ApplicationID *uuid.UUID      `json:"application_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      domain.Metadata `json:"metadata,omitempty"`
}

// Publisher sends events to the timeline channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, value interface{}) error
}

// Service publishes document lifecycle events.
type Service struct {
	publisher Publisher
	channel   string
	timeout   time.Duration
	logger    logger.Logger
	now       func() time.Time
}

// New creates a timeline service publishing on the given channel. now may be
// nil, in which case time.Now is used.
func New(publisher Publisher, channel string, timeout time.Duration, log logger.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{
		publisher: publisher,
		channel:   channel,
		timeout:   timeout,
		logger:    log,
		now:       now,
	}
}

// NewRedis creates a timeline service backed by a Redis publisher.
func NewRedis(c *cache.RedisCache, channel string, timeout time.Duration, log logger.Logger) *Service {
	return New(c, channel, timeout, log, nil)
}

// DocumentUploaded emits a "document uploaded" event.
func (s *Service) DocumentUploaded(ctx context.Context, doc *domain.Document) {
	s.emit(ctx, Event{
		Type:         EventDocumentUploaded,
		TenantID:     doc.TenantID,
		DocumentID:   doc.ID,
		DocumentType: string(doc.DocumentType),
	})
}

// DocumentAttached emits a "document attached" event for a usage context.
func (s *Service) DocumentAttached(ctx context.Context, doc *domain.Document, applicationID uuid.UUID) {
	appID := applicationID
	s.emit(ctx, Event{
		Type:          EventDocumentAttached,
		TenantID:      doc.TenantID,
		DocumentID:    doc.ID,
		DocumentType:  string(doc.DocumentType),
		ApplicationID: &appID,
	})
}

// DocumentSuperseded emits a "document superseded" event.
func (s *Service) DocumentSuperseded(ctx context.Context, oldDoc, newDoc *domain.Document, applicationID uuid.UUID, reason domain.ReplacementReason) {
	appID := applicationID
	s.emit(ctx, Event{
		Type:          EventDocumentSuperseded,
		TenantID:      oldDoc.TenantID,
		DocumentID:    oldDoc.ID,
		DocumentType:  string(oldDoc.DocumentType),
		ApplicationID: &appID,
		Metadata: domain.Metadata{
			"superseded_by": newDoc.ID.String(),
			"reason":        string(reason),
		},
	})
}

// DocumentApproved emits a "document approved" event.
func (s *Service) DocumentApproved(ctx context.Context, doc *domain.Document, method domain.VerificationMethod) {
	s.emit(ctx, Event{
		Type:         EventDocumentApproved,
		TenantID:     doc.TenantID,
		DocumentID:   doc.ID,
		DocumentType: string(doc.DocumentType),
		Metadata: domain.Metadata{
			"method": string(method),
		},
	})
}

func (s *Service) emit(ctx context.Context, event Event) {
	event.OccurredAt = s.now()

	// Detach from the request context cancellation but keep a short bound so
	// a slow broker cannot stall the caller.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, s.channel, event); err != nil {
		s.logger.Warn("failed to publish timeline event", map[string]interface{}{
			"event_type":  event.Type,
			"document_id": event.DocumentID,
			"error":       err.Error(),
		})
	}
}
