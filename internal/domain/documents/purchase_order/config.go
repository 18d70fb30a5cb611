package purchase_order

import "procura/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Purchase order numbers are communicated to suppliers, so we use
	// Strict strategy to keep the sequence gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
