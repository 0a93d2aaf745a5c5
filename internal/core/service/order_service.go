package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/metrics"
	"github.com/rl1809/bookstore/internal/port"
)

type OrderService struct {
	books  port.BookRepository
	orders port.OrderRepository
	cache  port.CacheRepository
}

func NewOrderService(books port.BookRepository, orders port.OrderRepository, cache port.CacheRepository) *OrderService {
	return &OrderService{
		books:  books,
		orders: orders,
		cache:  cache,
	}
}

// PlaceOrder validates the requested lines, reserves stock and persists the
// order atomically. requestID is optional; when present, replays of the same
// (user, request) pair are rejected with domain.ErrDuplicateRequest.
//
// Stock is enforced in the database transaction. The cache mirror and the
// pre-check on resolved rows only exist to reject doomed requests early with
// a specific error; they decide nothing.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, requestID string, lines []domain.OrderLine) (*domain.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing buyer identity", domain.ErrInvalidRequest)
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	if requestID != "" {
		key := fmt.Sprintf("order:%s:%s", userID, requestID)
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			log.WithError(err).Warn("idempotency check unavailable, continuing")
		} else if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	reserved, shortID, gateErr := s.reserveMirror(ctx, lines)
	if shortID != "" {
		metrics.OrdersTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, fmt.Errorf("%w: book %s", domain.ErrInsufficientStock, shortID)
	}
	if gateErr != nil {
		log.WithError(gateErr).Warn("cache stock gate unavailable, falling through to database")
	}

	order, err := s.placeOrderTx(ctx, userID, lines)
	if err != nil {
		s.releaseMirror(ctx, reserved)
		return nil, err
	}

	// The gate already took the mirrored stock for reserved lines; sync the
	// rest so the mirror tracks the committed decrements.
	if len(reserved) < len(lines) {
		s.takeMirror(ctx, unreservedLines(lines, reserved))
	}

	metrics.OrdersTotal.WithLabelValues("created").Inc()
	log.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"lines":    len(order.Items),
		"total":    order.Total().String(),
	}).Info("order placed")

	return order, nil
}

// placeOrderTx runs the resolve → check → price → commit pipeline.
func (s *OrderService) placeOrderTx(ctx context.Context, userID string, lines []domain.OrderLine) (*domain.Order, error) {
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.BookID
	}

	books, err := s.books.ResolveBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve books: %w", err)
	}

	byID := make(map[string]*domain.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}

	for _, line := range lines {
		if _, ok := byID[line.BookID]; !ok {
			metrics.OrdersTotal.WithLabelValues("book_not_found").Inc()
			return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, line.BookID)
		}
	}

	// Advisory check against the rows just read. A race can still slip past
	// this; the transaction's conditional decrement catches it.
	for _, line := range lines {
		if book := byID[line.BookID]; book.StockQuantity < line.Quantity {
			metrics.OrdersTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, book.Title)
		}
	}

	order := &domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	for _, line := range lines {
		book := byID[line.BookID]
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New().String(),
			BookID:    book.ID,
			Quantity:  line.Quantity,
			UnitPrice: book.Price,
			Book:      book,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			// Lost the race between pre-check and commit. The store rolled
			// everything back; report it as a stock failure, not a 5xx.
			metrics.StockConflicts.Inc()
			metrics.OrdersTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, err
		}
		metrics.OrdersTotal.WithLabelValues("commit_failed").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrCommitFailed, err)
	}

	return order, nil
}

// reserveMirror decrements the cached stock mirror for each line. It returns
// the lines actually reserved, the book id that lacked mirrored stock (if
// any), and the first cache error. On shortfall or error the already-reserved
// lines are restored. Lines the mirror does not track, and cache errors, are
// not fatal: those decisions fall through to the database.
func (s *OrderService) reserveMirror(ctx context.Context, lines []domain.OrderLine) ([]domain.OrderLine, string, error) {
	var reserved []domain.OrderLine
	for _, line := range lines {
		gate, err := s.cache.DecrementStock(ctx, line.BookID, line.Quantity)
		if err != nil {
			s.releaseMirror(ctx, reserved)
			return nil, "", err
		}
		switch gate {
		case port.StockReserved:
			reserved = append(reserved, line)
		case port.StockInsufficient:
			s.releaseMirror(ctx, reserved)
			return nil, line.BookID, nil
		case port.StockUnknown:
			// untracked book, the transaction's conditional decrement decides
		}
	}
	return reserved, "", nil
}

func (s *OrderService) releaseMirror(ctx context.Context, reserved []domain.OrderLine) {
	for _, line := range reserved {
		if err := s.cache.IncrementStock(ctx, line.BookID, line.Quantity); err != nil {
			log.WithError(err).WithField("book_id", line.BookID).
				Warn("failed to restore stock mirror")
		}
	}
}

func (s *OrderService) takeMirror(ctx context.Context, lines []domain.OrderLine) {
	for _, line := range lines {
		if _, err := s.cache.DecrementStock(ctx, line.BookID, line.Quantity); err != nil {
			log.WithError(err).WithField("book_id", line.BookID).
				Debug("failed to sync stock mirror")
		}
	}
}

func unreservedLines(lines, reserved []domain.OrderLine) []domain.OrderLine {
	taken := make(map[string]bool, len(reserved))
	for _, line := range reserved {
		taken[line.BookID] = true
	}

	var rest []domain.OrderLine
	for _, line := range lines {
		if !taken[line.BookID] {
			rest = append(rest, line)
		}
	}
	return rest
}

func validateLines(lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: order items are required", domain.ErrInvalidRequest)
	}

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.BookID == "" {
			return fmt.Errorf("%w: book id is required", domain.ErrInvalidRequest)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
		}
		if seen[line.BookID] {
			return fmt.Errorf("%w: duplicate book %s", domain.ErrInvalidRequest, line.BookID)
		}
		seen[line.BookID] = true
	}
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context, page, limit int) ([]domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.orders.ListOrders(ctx, (page-1)*limit, limit)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) Statistics(ctx context.Context) (*domain.OrderStatistics, error) {
	stats, err := s.orders.OrderStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if stats.TotalOrders > 0 {
		stats.AverageAmount = stats.TotalAmount.
			Div(decimal.NewFromInt(int64(stats.TotalOrders))).
			Round(2)
	}
	return stats, nil
}
