package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/catalogs/supplier"
)

// --- Request DTOs ---

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	Email         *string           `json:"email"`
	Phone         *string           `json:"phone"`
	ContactPerson *string           `json:"contactPerson"`
	Preferred     bool              `json:"preferred"`
	Active        *bool             `json:"active"`
	Comment       *string           `json:"comment"`
	ParentID      *string           `json:"parentId"`
	IsFolder      bool              `json:"isFolder"`
	Attributes    entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.Email = r.Email
	s.Phone = r.Phone
	s.ContactPerson = r.ContactPerson
	s.Preferred = r.Preferred
	if r.Active != nil {
		s.Active = *r.Active
	}
	s.Comment = r.Comment
	s.ParentID = r.ParentID
	s.IsFolder = r.IsFolder
	s.Attributes = r.Attributes
	return s
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	Email         *string           `json:"email"`
	Phone         *string           `json:"phone"`
	ContactPerson *string           `json:"contactPerson"`
	Preferred     bool              `json:"preferred"`
	Active        bool              `json:"active"`
	Comment       *string           `json:"comment"`
	ParentID      *string           `json:"parentId"`
	IsFolder      bool              `json:"isFolder"`
	Attributes    entity.Attributes `json:"attributes"`
	Version       int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Code = r.Code
	s.Name = r.Name
	s.Email = r.Email
	s.Phone = r.Phone
	s.ContactPerson = r.ContactPerson
	s.Preferred = r.Preferred
	s.Active = r.Active
	s.Comment = r.Comment
	s.ParentID = r.ParentID
	s.IsFolder = r.IsFolder
	s.Attributes = r.Attributes
	s.Version = r.Version
}

// --- Response DTOs ---

// SupplierResponse is the response body for a supplier.
type SupplierResponse struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Email         *string           `json:"email,omitempty"`
	Phone         *string           `json:"phone,omitempty"`
	ContactPerson *string           `json:"contactPerson,omitempty"`
	Preferred     bool              `json:"preferred"`
	Active        bool              `json:"active"`
	Comment       *string           `json:"comment,omitempty"`
	ParentID      *string           `json:"parentId,omitempty"`
	IsFolder      bool              `json:"isFolder"`
	DeletionMark  bool              `json:"deletionMark"`
	Version       int               `json:"version"`
	Attributes    entity.Attributes `json:"attributes,omitempty"`
}

// FromSupplier creates response DTO from domain entity.
func FromSupplier(s *supplier.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:            s.ID.String(),
		Code:          s.Code,
		Name:          s.Name,
		Email:         s.Email,
		Phone:         s.Phone,
		ContactPerson: s.ContactPerson,
		Preferred:     s.Preferred,
		Active:        s.Active,
		Comment:       s.Comment,
		ParentID:      s.ParentID,
		IsFolder:      s.IsFolder,
		DeletionMark:  s.DeletionMark,
		Version:       s.Version,
		Attributes:    s.Attributes,
	}
}

// --- Capability DTOs ---

// UpsertCapabilityRequest is the request body for setting a supplier capability.
type UpsertCapabilityRequest struct {
	ProductID          string           `json:"productId" binding:"required,uuid"`
	MaxMonthlyCapacity types.Quantity   `json:"maxMonthlyCapacity" binding:"required"`
	QualityScore       decimal.Decimal  `json:"qualityScore"`
	OnTimeRate         decimal.Decimal  `json:"onTimeRate"`
	LeadTimeDays       int              `json:"leadTimeDays"`
	MinAllocation      types.Quantity   `json:"minAllocation"`
	UnitPrice          types.MinorUnits `json:"unitPrice"`
}

// ToEntity converts DTO to domain entity.
func (r *UpsertCapabilityRequest) ToEntity(supplierID id.ID) *supplier.Capability {
	cap := supplier.NewCapability(supplierID, id.MustParse(r.ProductID))
	cap.MaxMonthlyCapacity = r.MaxMonthlyCapacity
	cap.QualityScore = r.QualityScore
	cap.OnTimeRate = r.OnTimeRate
	cap.LeadTimeDays = r.LeadTimeDays
	cap.MinAllocation = r.MinAllocation
	cap.UnitPrice = r.UnitPrice
	return cap
}

// CapabilityResponse is the response body for a supplier capability.
type CapabilityResponse struct {
	ID                 string           `json:"id"`
	SupplierID         string           `json:"supplierId"`
	ProductID          string           `json:"productId"`
	MaxMonthlyCapacity types.Quantity   `json:"maxMonthlyCapacity"`
	QualityScore       decimal.Decimal  `json:"qualityScore"`
	OnTimeRate         decimal.Decimal  `json:"onTimeRate"`
	LeadTimeDays       int              `json:"leadTimeDays"`
	MinAllocation      types.Quantity   `json:"minAllocation"`
	UnitPrice          types.MinorUnits `json:"unitPrice"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// FromCapability creates response DTO from domain entity.
func FromCapability(c *supplier.Capability) *CapabilityResponse {
	return &CapabilityResponse{
		ID:                 c.ID.String(),
		SupplierID:         c.SupplierID.String(),
		ProductID:          c.ProductID.String(),
		MaxMonthlyCapacity: c.MaxMonthlyCapacity,
		QualityScore:       c.QualityScore,
		OnTimeRate:         c.OnTimeRate,
		LeadTimeDays:       c.LeadTimeDays,
		MinAllocation:      c.MinAllocation,
		UnitPrice:          c.UnitPrice,
		UpdatedAt:          c.UpdatedAt,
	}
}
