package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type BookRepository interface {
	// ResolveBooks batch-reads books by id, excluding soft-deleted rows.
	// Result order is unspecified; callers re-associate by id.
	ResolveBooks(ctx context.Context, ids []string) ([]domain.Book, error)

	ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error)
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// FindBookByTitle looks up a live book by exact title, for duplicate checks.
	FindBookByTitle(ctx context.Context, title string) (*domain.Book, error)

	CreateBook(ctx context.Context, book *domain.Book) error
	UpdateBook(ctx context.Context, book *domain.Book) error
	SoftDeleteBook(ctx context.Context, id string) error
}

type GenreRepository interface {
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	GetGenre(ctx context.Context, id string) (*domain.Genre, error)
	FindGenreByName(ctx context.Context, name string) (*domain.Genre, error)
	CreateGenre(ctx context.Context, genre *domain.Genre) error
	UpdateGenre(ctx context.Context, genre *domain.Genre) error
	SoftDeleteGenre(ctx context.Context, id string) error
}

type OrderRepository interface {
	// CreateOrder persists the order and its items and decrements stock for
	// every line in one transaction. The decrement is conditional on
	// sufficient stock; a shortfall aborts the whole transaction with
	// domain.ErrInsufficientStock.
	CreateOrder(ctx context.Context, order *domain.Order) error

	ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, int, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	OrderStatistics(ctx context.Context) (*domain.OrderStatistics, error)
}
