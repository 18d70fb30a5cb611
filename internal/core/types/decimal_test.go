package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Quantity
	}{
		{"integer", `10`, 100000},
		{"decimal", `12.5`, 125000},
		{"four digits", `3.1234`, 31234},
		{"negative", `-3.1234`, -31234},
		{"negative fraction only", `-0.0001`, -1},
		{"leading dot", `.5`, 5000},
		{"explicit plus", `+2.25`, 22500},
		{"quoted string", `"7.1"`, 71000},
		{"null", `null`, 0},
		{"truncates extra digits", `0.99999`, 9999},
		{"exponent form", `1e2`, 1000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.in), &q); err != nil {
				t.Fatalf("unmarshal %q: %v", tt.in, err)
			}
			if q != tt.want {
				t.Errorf("unmarshal %q = %d, want %d", tt.in, q, tt.want)
			}
		})
	}
}

func TestQuantityUnmarshalJSON_Invalid(t *testing.T) {
	for _, in := range []string{`"abc"`, `""`, `1.2.3`, `"12a"`} {
		var q Quantity
		if err := json.Unmarshal([]byte(in), &q); err == nil {
			t.Errorf("unmarshal %q: expected error, got %d", in, q)
		}
	}
}

func TestQuantityMarshalJSON(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{125000, "12.5000"},
		{-31234, "-3.1234"},
		{0, "0.0000"},
		{1, "0.0001"},
	}

	for _, tt := range tests {
		got, err := json.Marshal(tt.q)
		if err != nil {
			t.Fatalf("marshal %d: %v", tt.q, err)
		}
		if string(got) != tt.want {
			t.Errorf("marshal %d = %s, want %s", tt.q, got, tt.want)
		}
	}
}

func TestQuantityDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("41.6667")

	q := NewQuantityFromDecimal(d)
	if q != 416667 {
		t.Fatalf("expected 416667, got %d", q)
	}
	if !q.Decimal().Equal(d) {
		t.Errorf("expected %s, got %s", d, q.Decimal())
	}
}

func TestNewQuantityFromDecimal_Truncates(t *testing.T) {
	d := decimal.RequireFromString("1.00009")

	q := NewQuantityFromDecimal(d)

	if q != 10000 {
		t.Errorf("expected truncation to 10000, got %d", q)
	}
}
