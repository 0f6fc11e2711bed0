package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelationStateMachine(t *testing.T) {
	rel := &DocumentRelation{}
	assert.Equal(t, RelationStateActive, rel.State())

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rel.Detach(at)
	assert.Equal(t, RelationStateDetached, rel.State())
	assert.Equal(t, at, *rel.DeletedAt)

	// Detaching again keeps the original timestamp.
	rel.Detach(at.Add(time.Hour))
	assert.Equal(t, at, *rel.DeletedAt)

	rel.Restore()
	assert.Equal(t, RelationStateActive, rel.State())
	assert.Nil(t, rel.DeletedAt)
}
