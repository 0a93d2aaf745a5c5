package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const bookColumns = `id, title, writer, publisher, publication_year, description,
	price, stock_quantity, genre_id, created_at, updated_at, deleted_at`

func scanBook(row interface{ Scan(...any) error }) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Writer, &b.Publisher, &b.PublicationYear,
		&b.Description, &b.Price, &b.StockQuantity, &b.GenreID,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// --- BookRepository ---

func (m *MySQLAdapter) ResolveBooks(ctx context.Context, ids []string) ([]domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM books
		WHERE id IN (%s) AND deleted_at IS NULL`, bookColumns, placeholders(len(ids))),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (m *MySQLAdapter) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	where := "WHERE deleted_at IS NULL"
	var args []any

	if filter.Search != "" {
		where += " AND (title LIKE ? OR writer LIKE ?)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.GenreID != "" {
		where += " AND genre_id = ?"
		args = append(args, filter.GenreID)
	}

	var total int
	if err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	orderBy := "ORDER BY created_at DESC"
	if dir, ok := sortDirection(filter.OrderByTitle); ok {
		orderBy = "ORDER BY title " + dir
	} else if dir, ok := sortDirection(filter.OrderByYear); ok {
		orderBy = "ORDER BY publication_year " + dir
	}

	query := fmt.Sprintf("SELECT %s FROM books %s %s LIMIT ? OFFSET ?",
		bookColumns, where, orderBy)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, total, rows.Err()
}

// sortDirection whitelists sort input so it can be spliced into ORDER BY.
func sortDirection(v string) (string, bool) {
	switch strings.ToLower(v) {
	case "asc":
		return "ASC", true
	case "desc":
		return "DESC", true
	default:
		return "", false
	}
}

func (m *MySQLAdapter) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := m.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM books WHERE id = ? AND deleted_at IS NULL`, bookColumns), id)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return b, nil
}

func (m *MySQLAdapter) FindBookByTitle(ctx context.Context, title string) (*domain.Book, error) {
	row := m.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM books WHERE title = ? AND deleted_at IS NULL`, bookColumns), title)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query book by title: %w", err)
	}
	return b, nil
}

func (m *MySQLAdapter) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO books (id, title, writer, publisher, publication_year,
			description, price, stock_quantity, genre_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Writer, book.Publisher, book.PublicationYear,
		book.Description, book.Price, book.StockQuantity, book.GenreID,
		book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateBook(ctx context.Context, book *domain.Book) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE books
		SET title = ?, writer = ?, publisher = ?, publication_year = ?,
			description = ?, price = ?, stock_quantity = ?, genre_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		book.Title, book.Writer, book.Publisher, book.PublicationYear,
		book.Description, book.Price, book.StockQuantity, book.GenreID,
		book.UpdatedAt, book.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (m *MySQLAdapter) SoftDeleteBook(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE books SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete book: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// --- GenreRepository ---

func (m *MySQLAdapter) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at, deleted_at
		FROM genres WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []domain.Genre
	for rows.Next() {
		var g domain.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Description,
			&g.CreatedAt, &g.UpdatedAt, &g.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (m *MySQLAdapter) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	return m.queryGenre(ctx, "id = ?", id)
}

func (m *MySQLAdapter) FindGenreByName(ctx context.Context, name string) (*domain.Genre, error) {
	return m.queryGenre(ctx, "name = ?", name)
}

func (m *MySQLAdapter) queryGenre(ctx context.Context, cond string, arg any) (*domain.Genre, error) {
	var g domain.Genre
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at, deleted_at
		FROM genres WHERE `+cond+` AND deleted_at IS NULL`, arg,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt, &g.DeletedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query genre: %w", err)
	}
	return &g, nil
}

func (m *MySQLAdapter) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO genres (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		genre.ID, genre.Name, genre.Description, genre.CreatedAt, genre.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert genre: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateGenre(ctx context.Context, genre *domain.Genre) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE genres SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		genre.Name, genre.Description, genre.UpdatedAt, genre.ID,
	)
	if err != nil {
		return fmt.Errorf("update genre: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrGenreNotFound
	}
	return nil
}

func (m *MySQLAdapter) SoftDeleteGenre(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE genres SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete genre: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrGenreNotFound
	}
	return nil
}

// --- OrderRepository ---

// CreateOrder commits the order, its items and the stock decrements as one
// transaction. The decrement predicate `stock_quantity >= ?` is the
// authoritative no-oversell check: zero affected rows means another
// transaction won the remaining stock, and the whole unit of work rolls back.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, created_at)
		VALUES (?, ?, ?)`,
		order.ID, order.UserID, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		result, err := tx.ExecContext(ctx, `
			UPDATE books
			SET stock_quantity = stock_quantity - ?, updated_at = NOW()
			WHERE id = ? AND deleted_at IS NULL AND stock_quantity >= ?`,
			item.Quantity, item.BookID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: book %s", domain.ErrInsufficientStock, item.BookID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, book_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			item.ID, order.ID, item.BookID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, int, error) {
	var total int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, created_at FROM orders
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var orderIDs []string
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := m.attachItems(ctx, orders, orderIDs); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	orders := []domain.Order{o}
	if err := m.attachItems(ctx, orders, []string{o.ID}); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachItems loads order items (with their books) for the given orders.
// Books are joined without the soft-delete filter: an order keeps its lines
// even after the book leaves the catalog.
func (m *MySQLAdapter) attachItems(ctx context.Context, orders []domain.Order, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}

	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT oi.id, oi.order_id, oi.book_id, oi.quantity, oi.unit_price,
			b.id, b.title, b.writer, b.publisher, b.publication_year, b.description,
			b.price, b.stock_quantity, b.genre_id, b.created_at, b.updated_at, b.deleted_at
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id IN (%s)`, placeholders(len(orderIDs))),
		args...,
	)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		byOrder[orders[i].ID] = &orders[i]
	}

	for rows.Next() {
		var item domain.OrderItem
		var orderID string
		var b domain.Book
		err := rows.Scan(
			&item.ID, &orderID, &item.BookID, &item.Quantity, &item.UnitPrice,
			&b.ID, &b.Title, &b.Writer, &b.Publisher, &b.PublicationYear,
			&b.Description, &b.Price, &b.StockQuantity, &b.GenreID,
			&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.Book = &b

		if o, ok := byOrder[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (m *MySQLAdapter) OrderStatistics(ctx context.Context) (*domain.OrderStatistics, error) {
	stats := &domain.OrderStatistics{}

	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	err = m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(unit_price * quantity), 0) FROM order_items`,
	).Scan(&stats.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("sum order amounts: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT g.name, COALESCE(SUM(oi.quantity), 0) AS units
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		JOIN genres g ON g.id = b.genre_id
		GROUP BY g.name
		ORDER BY units DESC, g.name`)
	if err != nil {
		return nil, fmt.Errorf("genre sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gs domain.GenreSales
		if err := rows.Scan(&gs.Name, &gs.UnitsSold); err != nil {
			return nil, fmt.Errorf("scan genre sales: %w", err)
		}
		stats.GenreSales = append(stats.GenreSales, gs)
	}
	return stats, rows.Err()
}
