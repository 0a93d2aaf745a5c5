package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		{Quantity: 2, UnitPrice: decimal.RequireFromString("4.50")},
	}

	total := ComputeTotal(items)
	if !total.Equal(decimal.RequireFromString("39.00")) {
		t.Errorf("expected total 39.00, got %s", total)
	}
}

func TestComputeTotal_Empty(t *testing.T) {
	if total := ComputeTotal(nil); !total.IsZero() {
		t.Errorf("expected zero total, got %s", total)
	}
}

func TestComputeTotal_UsesSnapshotPrice(t *testing.T) {
	book := &Book{ID: "b1", Price: decimal.RequireFromString("99.99")}

	// The item captured a lower price at order time; the catalog price must
	// not leak into the total.
	items := []OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Book: book},
	}

	total := ComputeTotal(items)
	if !total.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("expected total 20.00 from snapshot price, got %s", total)
	}
}

func TestOrderTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Quantity: 1, UnitPrice: decimal.RequireFromString("15.25")},
			{Quantity: 4, UnitPrice: decimal.RequireFromString("2.00")},
		},
	}

	if total := order.Total(); !total.Equal(decimal.RequireFromString("23.25")) {
		t.Errorf("expected total 23.25, got %s", total)
	}
}

func TestBookOrderable(t *testing.T) {
	b := &Book{ID: "b1"}
	if !b.Orderable() {
		t.Error("live book should be orderable")
	}

	now := b.CreatedAt
	b.DeletedAt = &now
	if b.Orderable() {
		t.Error("soft-deleted book should not be orderable")
	}
}
