// Package entity provides core domain entities.
package entity

import (
	"time"

	"procura/internal/core/id"
	"procura/internal/core/types"
)

// RecordType defines movement direction for accumulation registers.
type RecordType string

const (
	// RecordTypeCommit increases committed capacity
	RecordTypeCommit RecordType = "commit"
	// RecordTypeRelease returns committed capacity
	RecordTypeRelease RecordType = "release"
)

// MovementBase contains common fields for all register movements.
// Movements are immutable - they are never updated, only appended.
type MovementBase struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type (e.g., "PurchaseOrder")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// Period is the month bucket the movement applies to
	Period time.Time `db:"period" json:"period"`

	// RecordType: commit or release
	RecordType RecordType `db:"record_type" json:"recordType"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovementBase creates a new movement base with generated LineID.
func NewMovementBase(recorderID id.ID, recorderType string, period time.Time, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderType: recorderType,
		Period:       MonthBucket(period),
		RecordType:   recordType,
		CreatedAt:    time.Now().UTC(),
	}
}

// MonthBucket truncates a time to the first day of its month (UTC).
// Commitment balances aggregate per supplier, product and month.
func MonthBucket(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CommitmentMovement represents a movement in the capacity commitment register.
// Purchase orders commit supplier capacity on creation and release it on
// rejection, cancellation or delivery.
type CommitmentMovement struct {
	MovementBase

	// Dimensions
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`
	ProductID  id.ID `db:"product_id" json:"productId"`

	// Resources
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// NewCommitmentMovement creates a new commitment movement.
func NewCommitmentMovement(
	recorderID id.ID,
	recorderType string,
	period time.Time,
	recordType RecordType,
	supplierID, productID id.ID,
	quantity types.Quantity,
) CommitmentMovement {
	return CommitmentMovement{
		MovementBase: NewMovementBase(recorderID, recorderType, period, recordType),
		SupplierID:   supplierID,
		ProductID:    productID,
		Quantity:     quantity,
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Commit = positive, Release = negative.
func (m *CommitmentMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeRelease {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// CommitmentBalance represents committed capacity per supplier, product and month.
// This is a materialized view for fast availability queries.
type CommitmentBalance struct {
	// Dimensions
	SupplierID id.ID     `db:"supplier_id" json:"supplierId"`
	ProductID  id.ID     `db:"product_id" json:"productId"`
	Period     time.Time `db:"period" json:"period"`

	// Balances
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Metadata
	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
