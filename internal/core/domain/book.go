package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID              string
	Title           string
	Writer          string
	Publisher       string
	PublicationYear int
	Description     string
	Price           decimal.Decimal
	StockQuantity   int
	GenreID         string
	Genre           *Genre
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Orderable reports whether the book can appear on a new order.
// Soft-deleted books stay in the catalog tables but are never sold.
func (b *Book) Orderable() bool {
	return b.DeletedAt == nil
}

// BookFilter narrows and pages catalog listings.
type BookFilter struct {
	Search       string // matches title or writer
	GenreID      string
	OrderByTitle string // "asc" or "desc", empty to skip
	OrderByYear  string // "asc" or "desc", empty to skip
	Offset       int
	Limit        int
}
