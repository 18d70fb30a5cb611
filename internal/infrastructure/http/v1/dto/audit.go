package dto

import (
	"encoding/json"
	"time"

	"procura/internal/infrastructure/storage/postgres"
)

// AuditEntryResponse is one change record in an entity history.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	UserID     string          `json:"userId,omitempty"`
	UserEmail  string          `json:"userEmail,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FromAuditEntry creates response DTO from a stored entry. Compressed
// changes arrive already decompressed from the service.
func FromAuditEntry(e postgres.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		Action:     string(e.Action),
		UserID:     e.UserID,
		UserEmail:  e.UserEmail,
		Changes:    e.Changes,
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt,
	}
}
