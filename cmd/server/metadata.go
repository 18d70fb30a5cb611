package main

import (
	"procura/internal/domain/catalogs/customer"
	"procura/internal/domain/catalogs/product"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/domain/catalogs/unit"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/metadata"
)

// setupMetadataRegistry initializes and populates the metadata registry.
func setupMetadataRegistry() *metadata.Registry {
	reg := metadata.NewRegistry()

	// Helper to register entity with a display label
	register := func(entity interface{}, name string, typ metadata.EntityType, label string) {
		def := metadata.Inspect(entity, name, typ)
		def.Label = label

		// Here we could also augment fields with labels if we had a translation map.
		// For MVP we rely on Inspect's auto-guessing based on field names.

		reg.Register(def)
	}

	// --- Catalogs ---
	register(unit.Unit{}, "Unit", metadata.TypeCatalog, "Units of measure")
	register(product.Product{}, "Product", metadata.TypeCatalog, "Products")
	register(customer.Customer{}, "Customer", metadata.TypeCatalog, "Customers")
	register(supplier.Supplier{}, "Supplier", metadata.TypeCatalog, "Suppliers")
	register(supplier.Capability{}, "SupplierCapability", metadata.TypeCatalog, "Supplier capabilities")

	// --- Documents ---
	register(customer_order.CustomerOrder{}, "CustomerOrder", metadata.TypeDocument, "Customer orders")
	register(purchase_order.PurchaseOrder{}, "PurchaseOrder", metadata.TypeDocument, "Purchase orders")

	return reg
}
