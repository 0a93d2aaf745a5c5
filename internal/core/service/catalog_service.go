package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

// CatalogService covers book and genre management. Stock is only ever
// incremented here (restocks and corrections); decrements belong to order
// placement.
type CatalogService struct {
	books  port.BookRepository
	genres port.GenreRepository
	cache  port.CacheRepository
}

func NewCatalogService(books port.BookRepository, genres port.GenreRepository, cache port.CacheRepository) *CatalogService {
	return &CatalogService{
		books:  books,
		genres: genres,
		cache:  cache,
	}
}

func (s *CatalogService) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}

	existing, err := s.books.FindBookByTitle(ctx, book.Title)
	if err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateTitle
	}

	genre, err := s.genres.GetGenre(ctx, book.GenreID)
	if err != nil {
		return nil, fmt.Errorf("check genre: %w", err)
	}
	if genre == nil {
		return nil, domain.ErrGenreNotFound
	}

	now := time.Now()
	book.ID = uuid.New().String()
	book.CreatedAt = now
	book.UpdatedAt = now

	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	s.syncMirror(ctx, book.ID, book.StockQuantity)
	log.WithFields(log.Fields{"book_id": book.ID, "title": book.Title}).Info("book created")
	return book, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}

	current, err := s.books.GetBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrBookNotFound
	}

	if book.Title != current.Title {
		existing, err := s.books.FindBookByTitle(ctx, book.Title)
		if err != nil {
			return nil, fmt.Errorf("check title: %w", err)
		}
		if existing != nil {
			return nil, domain.ErrDuplicateTitle
		}
	}

	genre, err := s.genres.GetGenre(ctx, book.GenreID)
	if err != nil {
		return nil, fmt.Errorf("check genre: %w", err)
	}
	if genre == nil {
		return nil, domain.ErrGenreNotFound
	}

	book.CreatedAt = current.CreatedAt
	book.UpdatedAt = time.Now()

	if err := s.books.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	s.syncMirror(ctx, book.ID, book.StockQuantity)
	return book, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	if err := s.books.SoftDeleteBook(ctx, id); err != nil {
		return err
	}

	// Zero the mirror so the placement gate fast-fails for the delisted book.
	s.syncMirror(ctx, id, 0)
	return nil
}

func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (s *CatalogService) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.books.ListBooks(ctx, filter)
}

func (s *CatalogService) syncMirror(ctx context.Context, bookID string, stock int) {
	if err := s.cache.SetStock(ctx, bookID, stock); err != nil {
		log.WithError(err).WithField("book_id", bookID).Warn("failed to sync stock mirror")
	}
}

func validateBook(book *domain.Book) error {
	switch {
	case strings.TrimSpace(book.Title) == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	case strings.TrimSpace(book.Writer) == "":
		return fmt.Errorf("%w: writer is required", domain.ErrInvalidRequest)
	case strings.TrimSpace(book.Publisher) == "":
		return fmt.Errorf("%w: publisher is required", domain.ErrInvalidRequest)
	case book.PublicationYear <= 0:
		return fmt.Errorf("%w: publication year must be positive", domain.ErrInvalidRequest)
	case book.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidRequest)
	case book.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity must not be negative", domain.ErrInvalidRequest)
	case book.GenreID == "":
		return fmt.Errorf("%w: genre id is required", domain.ErrInvalidRequest)
	}
	return nil
}

// --- genres ---

func (s *CatalogService) CreateGenre(ctx context.Context, genre *domain.Genre) (*domain.Genre, error) {
	if strings.TrimSpace(genre.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}

	existing, err := s.genres.FindGenreByName(ctx, genre.Name)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateGenre
	}

	now := time.Now()
	genre.ID = uuid.New().String()
	genre.CreatedAt = now
	genre.UpdatedAt = now

	if err := s.genres.CreateGenre(ctx, genre); err != nil {
		return nil, err
	}
	return genre, nil
}

func (s *CatalogService) UpdateGenre(ctx context.Context, genre *domain.Genre) (*domain.Genre, error) {
	if strings.TrimSpace(genre.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}

	current, err := s.genres.GetGenre(ctx, genre.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrGenreNotFound
	}

	if genre.Name != current.Name {
		existing, err := s.genres.FindGenreByName(ctx, genre.Name)
		if err != nil {
			return nil, fmt.Errorf("check name: %w", err)
		}
		if existing != nil {
			return nil, domain.ErrDuplicateGenre
		}
	}

	genre.CreatedAt = current.CreatedAt
	genre.UpdatedAt = time.Now()

	if err := s.genres.UpdateGenre(ctx, genre); err != nil {
		return nil, err
	}
	return genre, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, id string) error {
	return s.genres.SoftDeleteGenre(ctx, id)
}

func (s *CatalogService) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	genre, err := s.genres.GetGenre(ctx, id)
	if err != nil {
		return nil, err
	}
	if genre == nil {
		return nil, domain.ErrGenreNotFound
	}
	return genre, nil
}

func (s *CatalogService) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	return s.genres.ListGenres(ctx)
}
