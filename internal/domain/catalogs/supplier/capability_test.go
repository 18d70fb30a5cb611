package supplier

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"procura/internal/core/id"
	"procura/internal/core/types"
)

func validCapability() *Capability {
	c := NewCapability(id.New(), id.New())
	c.MaxMonthlyCapacity = types.NewQuantityFromFloat64(1000)
	c.QualityScore = decimal.RequireFromString("0.95")
	c.OnTimeRate = decimal.RequireFromString("0.9")
	c.LeadTimeDays = 14
	return c
}

func TestCapabilityValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Capability)
		wantErr bool
	}{
		{"valid", func(c *Capability) {}, false},
		{"zero capacity", func(c *Capability) { c.MaxMonthlyCapacity = 0 }, true},
		{"negative capacity", func(c *Capability) { c.MaxMonthlyCapacity = types.NewQuantityFromFloat64(-5) }, true},
		{"quality above one", func(c *Capability) { c.QualityScore = decimal.RequireFromString("1.1") }, true},
		{"negative quality", func(c *Capability) { c.QualityScore = decimal.RequireFromString("-0.1") }, true},
		{"on-time above one", func(c *Capability) { c.OnTimeRate = decimal.RequireFromString("2") }, true},
		{"negative lead time", func(c *Capability) { c.LeadTimeDays = -1 }, true},
		{"min allocation above capacity", func(c *Capability) {
			c.MinAllocation = types.NewQuantityFromFloat64(2000)
		}, true},
		{"min allocation at capacity", func(c *Capability) {
			c.MinAllocation = types.NewQuantityFromFloat64(1000)
		}, false},
		{"nil supplier", func(c *Capability) { c.SupplierID = id.Nil() }, true},
		{"nil product", func(c *Capability) { c.ProductID = id.Nil() }, true},
		{"negative unit price", func(c *Capability) { c.UnitPrice = types.MinorUnits(-100) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCapability()
			tt.mutate(c)
			err := c.Validate(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCapabilityAvailable(t *testing.T) {
	c := validCapability()

	avail := c.Available(types.NewQuantityFromFloat64(300))
	if avail != types.NewQuantityFromFloat64(700) {
		t.Errorf("Available(300) = %s, want 700", avail)
	}

	// Over-committed floors at zero
	avail = c.Available(types.NewQuantityFromFloat64(1500))
	if avail != 0 {
		t.Errorf("Available(1500) = %s, want 0", avail)
	}
}
