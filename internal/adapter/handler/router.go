package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rl1809/bookstore/internal/core/service"
	"github.com/rl1809/bookstore/internal/metrics"
	"github.com/rl1809/bookstore/internal/port"
)

// NewRouter wires all HTTP routes. Order placement requires a verified buyer
// identity; catalog reads are open, catalog writes and order reads sit behind
// the same auth middleware as in the original API.
func NewRouter(orders *service.OrderService, catalog *service.CatalogService, verifier port.TokenVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orderHandler := NewOrderHandler(orders)
	bookHandler := NewBookHandler(catalog)
	genreHandler := NewGenreHandler(catalog)

	api := router.Group("/api")

	books := api.Group("/books")
	{
		books.GET("", bookHandler.List)
		books.GET("/:book_id", bookHandler.Detail)

		authed := books.Group("", Auth(verifier))
		authed.POST("", bookHandler.Create)
		authed.PUT("/:book_id", bookHandler.Update)
		authed.DELETE("/:book_id", bookHandler.Delete)
	}

	genres := api.Group("/genres")
	{
		genres.GET("", genreHandler.List)
		genres.GET("/:genre_id", genreHandler.Detail)

		authed := genres.Group("", Auth(verifier))
		authed.POST("", genreHandler.Create)
		authed.PUT("/:genre_id", genreHandler.Update)
		authed.DELETE("/:genre_id", genreHandler.Delete)
	}

	transactions := api.Group("/transactions", Auth(verifier))
	{
		transactions.POST("", orderHandler.Create)
		transactions.GET("", orderHandler.List)
		transactions.GET("/statistics", orderHandler.Statistics)
		transactions.GET("/:transaction_id", orderHandler.Detail)
	}

	return router
}
