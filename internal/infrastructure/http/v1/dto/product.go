package dto

import (
	"procura/internal/core/entity"
	"procura/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code                string                  `json:"code"`
	Name                string                  `json:"name" binding:"required"`
	Category            product.ProductCategory `json:"category" binding:"required"`
	SKU                 string                  `json:"sku" binding:"required"`
	UnitID              *string                 `json:"unitId"`
	DefaultLeadTimeDays int                     `json:"defaultLeadTimeDays"`
	Active              *bool                   `json:"active"`
	Description         *string                 `json:"description"`
	ParentID            *string                 `json:"parentId"`
	IsFolder            bool                    `json:"isFolder"`
	Attributes          entity.Attributes       `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.SKU, r.Category)
	p.UnitID = r.UnitID
	p.DefaultLeadTimeDays = r.DefaultLeadTimeDays
	if r.Active != nil {
		p.Active = *r.Active
	}
	p.Description = r.Description
	p.ParentID = r.ParentID
	p.IsFolder = r.IsFolder
	p.Attributes = r.Attributes
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code                string                  `json:"code"`
	Name                string                  `json:"name" binding:"required"`
	Category            product.ProductCategory `json:"category" binding:"required"`
	SKU                 string                  `json:"sku" binding:"required"`
	UnitID              *string                 `json:"unitId"`
	DefaultLeadTimeDays int                     `json:"defaultLeadTimeDays"`
	Active              bool                    `json:"active"`
	Description         *string                 `json:"description"`
	ParentID            *string                 `json:"parentId"`
	IsFolder            bool                    `json:"isFolder"`
	Attributes          entity.Attributes       `json:"attributes"`
	Version             int                     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Category = r.Category
	p.SKU = r.SKU
	p.UnitID = r.UnitID
	p.DefaultLeadTimeDays = r.DefaultLeadTimeDays
	p.Active = r.Active
	p.Description = r.Description
	p.ParentID = r.ParentID
	p.IsFolder = r.IsFolder
	p.Attributes = r.Attributes
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID                  string                  `json:"id"`
	Code                string                  `json:"code"`
	Name                string                  `json:"name"`
	Category            product.ProductCategory `json:"category"`
	SKU                 string                  `json:"sku"`
	UnitID              *string                 `json:"unitId,omitempty"`
	DefaultLeadTimeDays int                     `json:"defaultLeadTimeDays"`
	Active              bool                    `json:"active"`
	Description         *string                 `json:"description,omitempty"`
	ParentID            *string                 `json:"parentId,omitempty"`
	IsFolder            bool                    `json:"isFolder"`
	DeletionMark        bool                    `json:"deletionMark"`
	Version             int                     `json:"version"`
	Attributes          entity.Attributes       `json:"attributes,omitempty"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:                  p.ID.String(),
		Code:                p.Code,
		Name:                p.Name,
		Category:            p.Category,
		SKU:                 p.SKU,
		UnitID:              p.UnitID,
		DefaultLeadTimeDays: p.DefaultLeadTimeDays,
		Active:              p.Active,
		Description:         p.Description,
		ParentID:            p.ParentID,
		IsFolder:            p.IsFolder,
		DeletionMark:        p.DeletionMark,
		Version:             p.Version,
		Attributes:          p.Attributes,
	}
}
