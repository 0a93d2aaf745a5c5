package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/adapter/auth"
	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
	"github.com/rl1809/bookstore/internal/port"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore backs the services during handler tests with just enough behavior
// to exercise the HTTP surface.
type fakeStore struct {
	mu     sync.Mutex
	books  map[string]*domain.Book
	genres map[string]*domain.Genre
	orders map[string]*domain.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:  make(map[string]*domain.Book),
		genres: make(map[string]*domain.Genre),
		orders: make(map[string]*domain.Order),
	}
}

func (f *fakeStore) ResolveBooks(ctx context.Context, ids []string) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Book
	for _, id := range ids {
		if b, ok := f.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Book
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) FindBookByTitle(ctx context.Context, title string) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.Title == title {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateBook(ctx context.Context, book *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[book.ID] = book
	return nil
}

func (f *fakeStore) UpdateBook(ctx context.Context, book *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[book.ID] = book
	return nil
}

func (f *fakeStore) SoftDeleteBook(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Genre
	for _, g := range f.genres {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeStore) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.genres[id]
	if !ok {
		return nil, nil
	}
	copied := *g
	return &copied, nil
}

func (f *fakeStore) FindGenreByName(ctx context.Context, name string) (*domain.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.genres {
		if g.Name == name {
			copied := *g
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genres[genre.ID] = genre
	return nil
}

func (f *fakeStore) UpdateGenre(ctx context.Context, genre *domain.Genre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genres[genre.ID] = genre
	return nil
}

func (f *fakeStore) SoftDeleteGenre(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.genres[id]; !ok {
		return domain.ErrGenreNotFound
	}
	delete(f.genres, id)
	return nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range order.Items {
		b, ok := f.books[item.BookID]
		if !ok || b.StockQuantity < item.Quantity {
			return fmt.Errorf("%w: book %s", domain.ErrInsufficientStock, item.BookID)
		}
	}
	for _, item := range order.Items {
		f.books[item.BookID].StockQuantity -= item.Quantity
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (f *fakeStore) OrderStatistics(ctx context.Context) (*domain.OrderStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domain.OrderStatistics{TotalOrders: len(f.orders), TotalAmount: decimal.Zero}
	for _, o := range f.orders {
		stats.TotalAmount = stats.TotalAmount.Add(domain.ComputeTotal(o.Items))
	}
	return stats, nil
}

type fakeCache struct {
	mu          sync.Mutex
	idempotency map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{idempotency: make(map[string]bool)}
}

func (f *fakeCache) DecrementStock(ctx context.Context, bookID string, quantity int) (port.StockGate, error) {
	return port.StockUnknown, nil
}

func (f *fakeCache) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	return nil
}

func (f *fakeCache) SetStock(ctx context.Context, bookID string, quantity int) error {
	return nil
}

func (f *fakeCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idempotency[key] {
		return false, nil
	}
	f.idempotency[key] = true
	return true, nil
}

func newTestRouter() (*gin.Engine, *fakeStore) {
	store := newFakeStore()
	cache := newFakeCache()

	orders := service.NewOrderService(store, store, cache)
	catalog := service.NewCatalogService(store, store, cache)
	verifier := auth.NewStaticVerifier(map[string]string{"test-token": "test-user"})

	return NewRouter(orders, catalog, verifier), store
}

func seedCatalog(store *fakeStore) string {
	store.genres["g1"] = &domain.Genre{ID: "g1", Name: "Programming"}
	store.books["b1"] = &domain.Book{
		ID:            "b1",
		Title:         "Learning Go",
		Writer:        "Bodner",
		Publisher:     "O'Reilly",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 5,
		GenreID:       "g1",
	}
	return "b1"
}

func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
	return body
}

func TestCreateTransaction_NoToken(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/transactions", "", map[string]any{
		"orderItems": []map[string]any{{"bookId": "b1", "quantity": 1}},
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	body := decodeResponse(t, w)
	if body["success"] != false {
		t.Error("expected success false")
	}
	if body["message"] != "Unauthorized: no token provided" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestCreateTransaction_InvalidToken(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/transactions", "wrong-token", map[string]any{
		"orderItems": []map[string]any{{"bookId": "b1", "quantity": 1}},
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Unauthorized: invalid token" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestCreateTransaction_InvalidBody(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	cases := []struct {
		name string
		body any
	}{
		{"no items", map[string]any{"orderItems": []map[string]any{}}},
		{"missing book id", map[string]any{"orderItems": []map[string]any{{"quantity": 1}}}},
		{"zero quantity", map[string]any{"orderItems": []map[string]any{{"bookId": "b1", "quantity": 0}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/transactions", "test-token", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateTransaction_Success(t *testing.T) {
	router, store := newTestRouter()
	bookID := seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/transactions", "test-token", map[string]any{
		"orderItems": []map[string]any{{"bookId": bookID, "quantity": 3}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeResponse(t, w)
	if body["success"] != true {
		t.Error("expected success true")
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	if data["userId"] != "test-user" {
		t.Errorf("expected userId test-user, got %v", data["userId"])
	}
	total, _ := data["totalAmount"].(string)
	if parsed, err := decimal.NewFromString(total); err != nil || !parsed.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("expected totalAmount 30.00, got %v", data["totalAmount"])
	}

	if store.books[bookID].StockQuantity != 2 {
		t.Errorf("expected stock 2, got %d", store.books[bookID].StockQuantity)
	}
}

func TestCreateTransaction_InsufficientStock(t *testing.T) {
	router, store := newTestRouter()
	bookID := seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/transactions", "test-token", map[string]any{
		"orderItems": []map[string]any{{"bookId": bookID, "quantity": 99}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeResponse(t, w); body["success"] != false {
		t.Error("expected success false")
	}
	if store.books[bookID].StockQuantity != 5 {
		t.Errorf("expected stock unchanged at 5, got %d", store.books[bookID].StockQuantity)
	}
}

func TestCreateTransaction_UnknownBook(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/transactions", "test-token", map[string]any{
		"orderItems": []map[string]any{{"bookId": "missing", "quantity": 1}},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateTransaction_DuplicateRequest(t *testing.T) {
	router, store := newTestRouter()
	bookID := seedCatalog(store)

	body := map[string]any{
		"orderItems": []map[string]any{{"bookId": bookID, "quantity": 1}},
	}

	send := func() *httptest.ResponseRecorder {
		var buf bytes.Buffer
		json.NewEncoder(&buf).Encode(body)
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer test-token")
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first request, got %d", w.Code)
	}
	if w := send(); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on replay, got %d", w.Code)
	}
	if store.books[bookID].StockQuantity != 4 {
		t.Errorf("stock should only be decremented once, got %d", store.books[bookID].StockQuantity)
	}
}

func TestGetTransaction_NotFound(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	w := doRequest(router, http.MethodGet, "/api/transactions/missing", "test-token", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListTransactions(t *testing.T) {
	router, store := newTestRouter()
	bookID := seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/transactions", "test-token", map[string]any{
		"orderItems": []map[string]any{{"bookId": bookID, "quantity": 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed order failed: %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/transactions?page=1&limit=10", "test-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeResponse(t, w)
	pag, ok := body["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("expected pagination object, got %T", body["pagination"])
	}
	if total, _ := pag["total"].(float64); total != 1 {
		t.Errorf("expected total 1, got %v", pag["total"])
	}
}

func TestListBooks_Open(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	// Catalog reads require no token.
	w := doRequest(router, http.MethodGet, "/api/books", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCreateBook_RequiresAuth(t *testing.T) {
	router, store := newTestRouter()
	seedCatalog(store)

	w := doRequest(router, http.MethodPost, "/api/books", "", map[string]any{
		"title": "New Book",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
