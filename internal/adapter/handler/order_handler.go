package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemInput struct {
	BookID   string `json:"bookId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type createTransactionRequest struct {
	OrderItems []orderItemInput `json:"orderItems" binding:"required,min=1,dive"`
}

type orderItemResponse struct {
	ID        string          `json:"id"`
	BookID    string          `json:"bookId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Book      *bookResponse   `json:"book,omitempty"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	OrderItems  []orderItemResponse `json:"orderItems"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	resp := orderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		TotalAmount: order.Total(),
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		ir := orderItemResponse{
			ID:        item.ID,
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		}
		if item.Book != nil {
			br := toBookResponse(item.Book)
			ir.Book = &br
		}
		resp.OrderItems = append(resp.OrderItems, ir)
	}
	return resp
}

func (h *OrderHandler) Create(c *gin.Context) {
	userID := c.GetString(userIDKey)

	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "orderItems are required",
		})
		return
	}

	lines := make([]domain.OrderLine, len(req.OrderItems))
	for i, item := range req.OrderItems {
		lines[i] = domain.OrderLine{BookID: item.BookID, Quantity: item.Quantity}
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), userID, c.GetHeader("X-Request-ID"), lines)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Transaction created successfully", toOrderResponse(order))
}

func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, total, err := h.orders.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]orderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, toOrderResponse(&orders[i]))
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	c.JSON(http.StatusOK, response{
		Success:    true,
		Data:       data,
		Pagination: newPagination(page, limit, total),
	})
}

func (h *OrderHandler) Detail(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", toOrderResponse(order))
}

type genreStatResponse struct {
	Name      string `json:"name"`
	TotalSold int    `json:"totalSold"`
}

type statisticsResponse struct {
	TotalTransactions        int                `json:"totalTransactions"`
	AverageTransactionAmount decimal.Decimal    `json:"averageTransactionAmount"`
	MostPopularGenre         *genreStatResponse `json:"mostPopularGenre"`
	LeastPopularGenre        *genreStatResponse `json:"leastPopularGenre"`
}

func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orders.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := statisticsResponse{
		TotalTransactions:        stats.TotalOrders,
		AverageTransactionAmount: stats.AverageAmount,
	}
	if n := len(stats.GenreSales); n > 0 {
		first, last := stats.GenreSales[0], stats.GenreSales[n-1]
		resp.MostPopularGenre = &genreStatResponse{Name: first.Name, TotalSold: first.UnitsSold}
		resp.LeastPopularGenre = &genreStatResponse{Name: last.Name, TotalSold: last.UnitsSold}
	}

	respondOK(c, http.StatusOK, "", resp)
}
