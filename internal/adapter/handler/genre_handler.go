package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

type GenreHandler struct {
	catalog *service.CatalogService
}

func NewGenreHandler(catalog *service.CatalogService) *GenreHandler {
	return &GenreHandler{catalog: catalog}
}

type genreRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type genreResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toGenreResponse(g *domain.Genre) genreResponse {
	return genreResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func (h *GenreHandler) Create(c *gin.Context) {
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "name is required",
		})
		return
	}

	genre, err := h.catalog.CreateGenre(c.Request.Context(), &domain.Genre{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Genre added successfully", toGenreResponse(genre))
}

func (h *GenreHandler) List(c *gin.Context) {
	genres, err := h.catalog.ListGenres(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]genreResponse, 0, len(genres))
	for i := range genres {
		data = append(data, toGenreResponse(&genres[i]))
	}
	respondOK(c, http.StatusOK, "", data)
}

func (h *GenreHandler) Detail(c *gin.Context) {
	genre, err := h.catalog.GetGenre(c.Request.Context(), c.Param("genre_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", toGenreResponse(genre))
}

func (h *GenreHandler) Update(c *gin.Context) {
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "name is required",
		})
		return
	}

	genre, err := h.catalog.UpdateGenre(c.Request.Context(), &domain.Genre{
		ID:          c.Param("genre_id"),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Genre updated successfully", toGenreResponse(genre))
}

func (h *GenreHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteGenre(c.Request.Context(), c.Param("genre_id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Genre deleted successfully", nil)
}
