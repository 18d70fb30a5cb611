package audit

import (
	"context"

	"procura/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionStatusChange Action = "status_change"
	ActionDistribute   Action = "distribute"
	ActionRedistribute Action = "redistribute"
)

// Trail records entity changes for the audit log.
// The PostgreSQL implementation compresses large change sets.
type Trail interface {
	// LogChange records field-level changes for an entity.
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error

	// LogStatusChange records a lifecycle transition.
	LogStatusChange(ctx context.Context, entityType string, entityID id.ID, from, to, reason string) error
}

// NopTrail discards all entries. Used in tests.
type NopTrail struct{}

func (NopTrail) LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error {
	return nil
}

func (NopTrail) LogStatusChange(ctx context.Context, entityType string, entityID id.ID, from, to, reason string) error {
	return nil
}
