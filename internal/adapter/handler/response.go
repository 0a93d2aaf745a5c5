package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(page, limit, total int) *pagination {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, response{Success: true, Message: message, Data: data})
}

// respondError maps the domain error taxonomy onto HTTP statuses. A commit
// failure that turns out to be a stock conflict never reaches here as
// ErrCommitFailed; the service re-reports it as ErrInsufficientStock.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrDuplicateTitle),
		errors.Is(err, domain.ErrDuplicateGenre):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrGenreNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateRequest):
		status = http.StatusConflict
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, response{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	c.JSON(status, response{Success: false, Message: err.Error()})
}
