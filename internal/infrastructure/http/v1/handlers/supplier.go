package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/infrastructure/http/v1/dto"
)

// SupplierHandler extends the generic catalog handler with capability
// endpoints. Capabilities are addressed by supplier and product, not by
// their own resource ID.
type SupplierHandler struct {
	*CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]
	service *supplier.Service
}

// NewSupplierHandler builds the supplier handler.
func NewSupplierHandler(
	base *BaseHandler,
	service *supplier.Service,
) *SupplierHandler {

	config := CatalogHandlerConfig[
		*supplier.Supplier,
		dto.CreateSupplierRequest,
		dto.UpdateSupplierRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "supplier",

		MapCreateDTO: func(req dto.CreateSupplierRequest) *supplier.Supplier {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) *supplier.Supplier {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *supplier.Supplier) any {
			return dto.FromSupplier(entity)
		},
	}

	return &SupplierHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// ListCapabilities handles GET /suppliers/:id/capabilities.
func (h *SupplierHandler) ListCapabilities(c *gin.Context) {
	supplierID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	caps, err := h.service.ListCapabilities(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.CapabilityResponse, 0, len(caps))
	for _, cap := range caps {
		items = append(items, dto.FromCapability(cap))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// UpsertCapability handles PUT and POST /suppliers/:id/capabilities.
// The capability is keyed by (supplier, product), so both verbs share
// the same upsert semantics.
func (h *SupplierHandler) UpsertCapability(c *gin.Context) {
	supplierID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpsertCapabilityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cap := req.ToEntity(supplierID)
	if err := h.service.UpsertCapability(c.Request.Context(), cap); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCapability(cap))
}

// DeleteCapability handles DELETE /suppliers/:id/capabilities/:productId.
func (h *SupplierHandler) DeleteCapability(c *gin.Context) {
	supplierID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	if err := h.service.DeleteCapability(c.Request.Context(), supplierID, productID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
