package dto

import (
	"procura/internal/core/entity"
	"procura/internal/domain/catalogs/unit"
)

// --- Request DTOs ---

// CreateUnitRequest is the request body for creating a unit.
type CreateUnitRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Symbol      string            `json:"symbol" binding:"required"`
	Precision   int               `json:"precision"`
	Description *string           `json:"description"`
	ParentID    *string           `json:"parentId"`
	IsFolder    bool              `json:"isFolder"`
	Attributes  entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateUnitRequest) ToEntity() *unit.Unit {
	u := unit.NewUnit(r.Code, r.Name, r.Symbol)
	u.Precision = r.Precision
	u.Description = r.Description
	u.ParentID = r.ParentID
	u.IsFolder = r.IsFolder
	u.Attributes = r.Attributes
	return u
}

// UpdateUnitRequest is the request body for updating a unit.
type UpdateUnitRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Symbol      string            `json:"symbol" binding:"required"`
	Precision   int               `json:"precision"`
	Description *string           `json:"description"`
	ParentID    *string           `json:"parentId"`
	IsFolder    bool              `json:"isFolder"`
	Attributes  entity.Attributes `json:"attributes"`
	Version     int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateUnitRequest) ApplyTo(u *unit.Unit) {
	u.Code = r.Code
	u.Name = r.Name
	u.Symbol = r.Symbol
	u.Precision = r.Precision
	u.Description = r.Description
	u.ParentID = r.ParentID
	u.IsFolder = r.IsFolder
	u.Attributes = r.Attributes
	u.Version = r.Version
}

// --- Response DTOs ---

// UnitResponse is the response body for a unit.
type UnitResponse struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Symbol       string            `json:"symbol"`
	Precision    int               `json:"precision"`
	Description  *string           `json:"description,omitempty"`
	ParentID     *string           `json:"parentId,omitempty"`
	IsFolder     bool              `json:"isFolder"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromUnit creates response DTO from domain entity.
func FromUnit(u *unit.Unit) *UnitResponse {
	return &UnitResponse{
		ID:           u.ID.String(),
		Code:         u.Code,
		Name:         u.Name,
		Symbol:       u.Symbol,
		Precision:    u.Precision,
		Description:  u.Description,
		ParentID:     u.ParentID,
		IsFolder:     u.IsFolder,
		DeletionMark: u.DeletionMark,
		Version:      u.Version,
		Attributes:   u.Attributes,
	}
}
