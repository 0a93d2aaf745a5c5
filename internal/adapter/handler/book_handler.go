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

type BookHandler struct {
	catalog *service.CatalogService
}

func NewBookHandler(catalog *service.CatalogService) *BookHandler {
	return &BookHandler{catalog: catalog}
}

type bookRequest struct {
	Title           string          `json:"title" binding:"required"`
	Writer          string          `json:"writer" binding:"required"`
	Publisher       string          `json:"publisher" binding:"required"`
	PublicationYear int             `json:"publication_year" binding:"required,gt=0"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	StockQuantity   int             `json:"stock_quantity" binding:"gte=0"`
	GenreID         string          `json:"genre_id" binding:"required"`
}

type bookResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Writer          string          `json:"writer"`
	Publisher       string          `json:"publisher"`
	PublicationYear int             `json:"publicationYear"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	StockQuantity   int             `json:"stockQuantity"`
	GenreID         string          `json:"genreId"`
	Genre           *genreResponse  `json:"genre,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toBookResponse(b *domain.Book) bookResponse {
	resp := bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Writer:          b.Writer,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Description:     b.Description,
		Price:           b.Price,
		StockQuantity:   b.StockQuantity,
		GenreID:         b.GenreID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.Genre != nil {
		gr := toGenreResponse(b.Genre)
		resp.Genre = &gr
	}
	return resp
}

func (r bookRequest) toDomain() *domain.Book {
	return &domain.Book{
		Title:           r.Title,
		Writer:          r.Writer,
		Publisher:       r.Publisher,
		PublicationYear: r.PublicationYear,
		Description:     r.Description,
		Price:           r.Price,
		StockQuantity:   r.StockQuantity,
		GenreID:         r.GenreID,
	}
}

func (h *BookHandler) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "All required fields must be provided",
		})
		return
	}

	book, err := h.catalog.CreateBook(c.Request.Context(), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Book added successfully", toBookResponse(book))
}

func (h *BookHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := domain.BookFilter{
		Search:       c.Query("search"),
		GenreID:      c.Query("genre_id"),
		OrderByTitle: c.Query("orderByTitle"),
		OrderByYear:  c.Query("orderByPublishDate"),
		Offset:       (page - 1) * limit,
		Limit:        limit,
	}

	books, total, err := h.catalog.ListBooks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]bookResponse, 0, len(books))
	for i := range books {
		data = append(data, toBookResponse(&books[i]))
	}

	c.JSON(http.StatusOK, response{
		Success:    true,
		Data:       data,
		Pagination: newPagination(page, limit, total),
	})
}

func (h *BookHandler) Detail(c *gin.Context) {
	book, err := h.catalog.GetBook(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", toBookResponse(book))
}

func (h *BookHandler) Update(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "All required fields must be provided",
		})
		return
	}

	book := req.toDomain()
	book.ID = c.Param("book_id")

	updated, err := h.catalog.UpdateBook(c.Request.Context(), book)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Book updated successfully", toBookResponse(updated))
}

func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteBook(c.Request.Context(), c.Param("book_id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Book deleted successfully", nil)
}
