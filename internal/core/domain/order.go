package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one requested (book, quantity) pair before placement.
type OrderLine struct {
	BookID   string
	Quantity int
}

// OrderItem is a committed line: quantity plus the unit price captured at
// order time. The snapshot keeps historical totals stable when catalog
// prices change later.
type OrderItem struct {
	ID        string
	BookID    string
	Quantity  int
	UnitPrice decimal.Decimal
	Book      *Book
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        string
	UserID    string
	Items     []OrderItem
	CreatedAt time.Time
}

func (o *Order) Total() decimal.Decimal {
	return ComputeTotal(o.Items)
}

// ComputeTotal is the single source of truth for order amounts. Every read
// path (placement response, list, detail, statistics) derives totals here so
// they cannot drift apart.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type GenreSales struct {
	Name      string
	UnitsSold int
}

type OrderStatistics struct {
	TotalOrders   int
	TotalAmount   decimal.Decimal
	AverageAmount decimal.Decimal
	GenreSales    []GenreSales // sorted by units sold, descending
}
