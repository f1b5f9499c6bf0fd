package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/storage"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const (
	redisAddr     = "localhost:6379"
	bookISBN      = "9780441172719"
	initialCopies = 20
	totalPatrons  = 50
)

func main() {
	ctx := context.Background()

	// Lock backend: Redis when reachable, in-process otherwise
	var cache port.CacheRepository
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable (%v), using in-memory locks", err)
		cache = storage.NewMemoryCache()
	} else {
		defer rdb.Close()
		keys, _ := rdb.Keys(ctx, "lock:*").Result()
		for _, k := range keys {
			rdb.Del(ctx, k)
		}
		cache = storage.NewRedisAdapter(rdb)
	}

	repo := storage.NewMemoryAdapter()
	catalog := service.NewCatalogService(repo, nil)
	if _, err := catalog.AddBook(ctx, "Dune", "Frank Herbert", bookISBN, initialCopies); err != nil {
		log.Fatalf("failed to add book: %v", service.Message(err))
	}
	book, err := repo.GetBookByISBN(ctx, bookISBN)
	if err != nil || book == nil {
		log.Fatalf("failed to load book: %v", err)
	}

	loans := service.NewLoanService(repo, cache, nil, nil)

	var successCount atomic.Int32
	var failCount atomic.Int32
	var busyCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalPatrons; i++ {
		wg.Add(1)
		go func(patron int) {
			defer wg.Done()

			_, err := loans.BorrowBook(ctx, fmt.Sprintf("%06d", patron+1), book.ID)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrBusy):
				busyCount.Add(1)
				failCount.Add(1)
			default:
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Copies:   %d\n", initialCopies)
	fmt.Printf("Total Patrons:    %d\n", totalPatrons)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d (busy: %d)\n", fail, busyCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialCopies) && fail == int32(totalPatrons-initialCopies) {
		fmt.Printf("PASS: Exactly %d loans succeeded, %d failed\n", initialCopies, totalPatrons-initialCopies)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialCopies, totalPatrons-initialCopies, success, fail)
	}

	final, err := repo.GetBookByID(ctx, book.ID)
	if err != nil || final == nil {
		log.Fatalf("failed to reload book: %v", err)
	}
	fmt.Printf("Final Available:  %d\n", final.AvailableCopies)

	if final.AvailableCopies == 0 {
		fmt.Println("PASS: Copies depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected 0 available copies, got %d\n", final.AvailableCopies)
	}
}
