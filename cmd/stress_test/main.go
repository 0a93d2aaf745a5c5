// Concurrent oversell probe. Points at a running server, fires more order
// requests at one book than it has stock, and verifies that exactly the
// available quantity was sold.
//
// Usage:
//
//	BASE_URL=http://localhost:8080 AUTH_TOKEN=dev-token BOOK_ID=<id> go run ./cmd/stress_test
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

type bookPayload struct {
	Data struct {
		ID            string `json:"id"`
		StockQuantity int    `json:"stockQuantity"`
	} `json:"data"`
}

func main() {
	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	token := getEnv("AUTH_TOKEN", "dev-token")
	bookID := os.Getenv("BOOK_ID")
	if bookID == "" {
		log.Fatal("BOOK_ID is required")
	}
	totalRequests := getEnvInt("TOTAL_REQUESTS", 50)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetAuthToken(token)

	// Read starting stock
	var before bookPayload
	resp, err := client.R().SetResult(&before).Get("/api/books/" + bookID)
	if err != nil || resp.StatusCode() != http.StatusOK {
		log.Fatalf("failed to read book %s: %v (status %d)", bookID, err, resp.StatusCode())
	}
	initialStock := before.Data.StockQuantity

	// Counters
	var successCount atomic.Int32
	var stockFailCount atomic.Int32
	var otherFailCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			resp, err := client.R().
				SetHeader("X-Request-ID", fmt.Sprintf("stress-%d-%d", start.UnixNano(), n)).
				SetBody(map[string]any{
					"orderItems": []map[string]any{
						{"bookId": bookID, "quantity": 1},
					},
				}).
				Post("/api/transactions")

			switch {
			case err != nil:
				otherFailCount.Add(1)
			case resp.StatusCode() == http.StatusCreated:
				successCount.Add(1)
			case resp.StatusCode() == http.StatusBadRequest:
				stockFailCount.Add(1)
			default:
				otherFailCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Read final stock
	var after bookPayload
	if _, err := client.R().SetResult(&after).Get("/api/books/" + bookID); err != nil {
		log.Fatalf("failed to re-read book: %v", err)
	}
	finalStock := after.Data.StockQuantity

	success := int(successCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of Stock:     %d\n", stockFailCount.Load())
	fmt.Printf("Other Failures:   %d\n", otherFailCount.Load())
	fmt.Printf("Final Stock:      %d\n", finalStock)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// No oversell: sold quantity must equal the stock that disappeared, and
	// never exceed what was there to begin with.
	if success > initialStock {
		fmt.Printf("FAIL: sold %d units against initial stock %d (oversell)\n", success, initialStock)
		os.Exit(1)
	}
	if initialStock-finalStock != success {
		fmt.Printf("FAIL: stock dropped by %d but %d orders succeeded\n", initialStock-finalStock, success)
		os.Exit(1)
	}
	fmt.Printf("PASS: %d orders committed, stock %d -> %d, no oversell\n", success, initialStock, finalStock)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
