package dto

import (
	"procura/internal/core/entity"
	"procura/internal/domain/catalogs/customer"
)

// --- Request DTOs ---

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Code            string            `json:"code"`
	Name            string            `json:"name" binding:"required"`
	Email           *string           `json:"email"`
	Phone           *string           `json:"phone"`
	ContactPerson   *string           `json:"contactPerson"`
	DeliveryAddress *string           `json:"deliveryAddress"`
	Active          *bool             `json:"active"`
	Comment         *string           `json:"comment"`
	ParentID        *string           `json:"parentId"`
	IsFolder        bool              `json:"isFolder"`
	Attributes      entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	c.Email = r.Email
	c.Phone = r.Phone
	c.ContactPerson = r.ContactPerson
	c.DeliveryAddress = r.DeliveryAddress
	if r.Active != nil {
		c.Active = *r.Active
	}
	c.Comment = r.Comment
	c.ParentID = r.ParentID
	c.IsFolder = r.IsFolder
	c.Attributes = r.Attributes
	return c
}

// UpdateCustomerRequest is the request body for updating a customer.
type UpdateCustomerRequest struct {
	Code            string            `json:"code"`
	Name            string            `json:"name" binding:"required"`
	Email           *string           `json:"email"`
	Phone           *string           `json:"phone"`
	ContactPerson   *string           `json:"contactPerson"`
	DeliveryAddress *string           `json:"deliveryAddress"`
	Active          bool              `json:"active"`
	Comment         *string           `json:"comment"`
	ParentID        *string           `json:"parentId"`
	IsFolder        bool              `json:"isFolder"`
	Attributes      entity.Attributes `json:"attributes"`
	Version         int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	c.Code = r.Code
	c.Name = r.Name
	c.Email = r.Email
	c.Phone = r.Phone
	c.ContactPerson = r.ContactPerson
	c.DeliveryAddress = r.DeliveryAddress
	c.Active = r.Active
	c.Comment = r.Comment
	c.ParentID = r.ParentID
	c.IsFolder = r.IsFolder
	c.Attributes = r.Attributes
	c.Version = r.Version
}

// --- Response DTOs ---

// CustomerResponse is the response body for a customer.
type CustomerResponse struct {
	ID              string            `json:"id"`
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	Email           *string           `json:"email,omitempty"`
	Phone           *string           `json:"phone,omitempty"`
	ContactPerson   *string           `json:"contactPerson,omitempty"`
	DeliveryAddress *string           `json:"deliveryAddress,omitempty"`
	Active          bool              `json:"active"`
	Comment         *string           `json:"comment,omitempty"`
	ParentID        *string           `json:"parentId,omitempty"`
	IsFolder        bool              `json:"isFolder"`
	DeletionMark    bool              `json:"deletionMark"`
	Version         int               `json:"version"`
	Attributes      entity.Attributes `json:"attributes,omitempty"`
}

// FromCustomer creates response DTO from domain entity.
func FromCustomer(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:              c.ID.String(),
		Code:            c.Code,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		ContactPerson:   c.ContactPerson,
		DeliveryAddress: c.DeliveryAddress,
		Active:          c.Active,
		Comment:         c.Comment,
		ParentID:        c.ParentID,
		IsFolder:        c.IsFolder,
		DeletionMark:    c.DeletionMark,
		Version:         c.Version,
		Attributes:      c.Attributes,
	}
}
