package domain

import (
	"time"

	"github.com/google/uuid"
)

// RelatableKind identifies the kind of entity a document relation points at.
type RelatableKind string

const (
	RelatableKindPerson      RelatableKind = "person"
	RelatableKindApplication RelatableKind = "application"
)

// IsValid reports whether k is a known relatable kind.
func (k RelatableKind) IsValid() bool {
	switch k {
	case RelatableKindPerson, RelatableKindApplication:
		return true
	}
	return false
}

// RelationContext distinguishes why an entity references a document.
type RelationContext string

const (
	// RelationContextOwnership links a document to its owning subject.
	// Exactly one per document, created once, never removed.
	RelationContextOwnership RelationContext = "ownership"
	// RelationContextUsage links a document to a loan application in which
	// it was presented as evidence. Soft-deleted when superseded, restored
	// if the same document is reused.
	RelationContextUsage RelationContext = "usage"
)

// RelationState is the lifecycle state of a relation edge.
type RelationState string

const (
	RelationStateActive   RelationState = "active"
	RelationStateDetached RelationState = "detached"
)

// DocumentRelation links a document to an entity referencing it.
type DocumentRelation struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	DocumentID    uuid.UUID       `json:"document_id" db:"document_id"`
	RelatableKind RelatableKind   `json:"relatable_kind" db:"relatable_kind"`
	RelatableID   uuid.UUID       `json:"relatable_id" db:"relatable_id"`
	Context       RelationContext `json:"context" db:"context"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// State returns the relation's lifecycle state.
func (r *DocumentRelation) State() RelationState {
	if r.DeletedAt != nil {
		return RelationStateDetached
	}
	return RelationStateActive
}

// Detach transitions the relation from active to detached. Detaching an
// already-detached relation is a no-op.
func (r *DocumentRelation) Detach(at time.Time) {
	if r.DeletedAt != nil {
		return
	}
	t := at
	r.DeletedAt = &t
}

// Restore transitions the relation from detached back to active.
func (r *DocumentRelation) Restore() {
	r.DeletedAt = nil
}
