package main

import (
	"encoding/json"
	"fmt"

	"procura/internal/domain/catalogs/supplier"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/metadata"
)

func main() {
	reg := metadata.NewRegistry()

	// Register Supplier
	sup := supplier.Supplier{}
	fmt.Println("Inspecting Supplier...")
	defSup := metadata.Inspect(sup, "Supplier", metadata.TypeCatalog)

	// Add table name manually or extract from conventions (spike simplification)
	defSup.TableName = "cat_suppliers"
	reg.Register(defSup)

	// Register CustomerOrder
	co := customer_order.CustomerOrder{}
	fmt.Println("Inspecting CustomerOrder...")
	defCO := metadata.Inspect(co, "CustomerOrder", metadata.TypeDocument)
	defCO.TableName = "doc_customer_orders"

	// Manual enhancements (simulating what would come from tags or translation files)
	defCO.Label = "Customer orders"

	// Fix Labels
	for i, f := range defCO.Fields {
		switch f.Name {
		case "number":
			defCO.Fields[i].Label = "Number"
		case "date":
			defCO.Fields[i].Label = "Date"
		case "customerId":
			defCO.Fields[i].Label = "Customer"
			defCO.Fields[i].ReferenceType = "customer"
		case "priority":
			defCO.Fields[i].Label = "Priority"
		case "status":
			defCO.Fields[i].Label = "Status"
		}
	}

	// Fix TableParts
	if len(defCO.TableParts) > 0 {
		tp := &defCO.TableParts[0]
		tp.Label = "Lines"
		for i, c := range tp.Columns {
			switch c.Name {
			case "productId":
				tp.Columns[i].Label = "Product"
				tp.Columns[i].ReferenceType = "product"
			case "quantity":
				tp.Columns[i].Label = "Quantity"
			case "note":
				tp.Columns[i].Label = "Note"
			}
		}
	}

	reg.Register(defCO)

	// List all
	defaults := reg.List()

	// Print JSON
	bytes, _ := json.MarshalIndent(defaults, "", "  ")
	fmt.Println(string(bytes))
}
