package customer_order

import "procura/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Customer orders are internal documents, gaps after restarts are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
