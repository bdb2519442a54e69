package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	// Configuration
	// Ensure this URL matches the one defined in your LOCALTESTING.md
	loginURL := "http://localhost:8080/api/v1/sessions/login"
	logoutURL := "http://localhost:8080/api/v1/sessions/logout"
	contentType := "application/json"

	numEmployees := 5000
	totalRequests := numEmployees * 2 // one login and one logout each
	concurrency := 50                 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d employees (login + logout each) with concurrency %d\n", numEmployees, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	for i := 0; i < numEmployees; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		userID := int64(i + 1)

		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			payload := []byte(fmt.Sprintf(`{"userId": %d}`, id))

			for _, url := range []string{loginURL, logoutURL} {
				resp, err := http.Post(url, contentType, bytes.NewBuffer(payload))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(userID)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}
