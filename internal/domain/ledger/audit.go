package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AuditNote is a human-readable record of one ledger mutation, appended
// in the same transaction as the mutation itself. Consumed by external
// reporting.
type AuditNote struct {
	ID          uuid.UUID
	Operation   string
	DocumentID  *uuid.UUID
	ReferenceID *uuid.UUID
	Actor       string
	Note        string
	CreatedAt   time.Time
}

// NewAuditNote creates an audit note for an operation
func NewAuditNote(operation, actor, note string) *AuditNote {
	return &AuditNote{
		ID:        uuid.New(),
		Operation: operation,
		Actor:     actor,
		Note:      note,
		CreatedAt: time.Now(),
	}
}

// ForDocument links the note to a document
func (n *AuditNote) ForDocument(documentID uuid.UUID) *AuditNote {
	n.DocumentID = &documentID
	return n
}

// ForReference links the note to the payment or return that caused it
func (n *AuditNote) ForReference(referenceID uuid.UUID) *AuditNote {
	n.ReferenceID = &referenceID
	return n
}
