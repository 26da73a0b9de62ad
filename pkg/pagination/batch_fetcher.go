package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// PerPage is the page size requested from the API
	PerPage int
	// MaxPages stops the walk when the API never returns a short page
	MaxPages int
}

// DefaultConfig returns safe default configuration for the catalog API
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		PerPage:        DefaultPerPage,
		MaxPages:       10000,
	}
}

// PageFetcher fetches a single page of T
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, cursor Cursor) ([]T, PageInfo, error)
}

// PageResult represents the result of fetching a single page
type PageResult[T any] struct {
	PageNumber int
	Items      []T
	Info       PageInfo
	Error      error
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.PerPage <= 0 {
		config.PerPage = DefaultPerPage
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 10000
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAllPages fetches every page of the collection.
// Returns map of pageNumber -> items for successful pages.
func (bf *BatchFetcher[T]) FetchAllPages(ctx context.Context) (map[int][]T, error) {
	start := time.Now()

	first := Cursor{Page: 1, PerPage: bf.config.PerPage}
	firstItems, firstInfo, err := bf.fetcher.FetchPage(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	results := map[int][]T{1: firstItems}

	if !firstInfo.HasNext() {
		log.Info().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	if firstInfo.TotalPages > 0 {
		log.Info().
			Int("total_pages", firstInfo.TotalPages).
			Msg("Starting parallel page fetch")

		last := firstInfo.TotalPages
		if last > bf.config.MaxPages {
			last = bf.config.MaxPages
		}
		_, err := bf.collect(ctx, pageRange(2, last), results)
		bf.logDone(start, len(results), firstInfo.TotalPages, err)
		return results, err
	}

	// No total available: walk forward in waves until a short page.
	log.Info().
		Int("wave_size", bf.config.MaxConcurrency).
		Msg("Starting wave page fetch (total unknown)")

	for next := 2; next <= bf.config.MaxPages; next += bf.config.MaxConcurrency {
		last := next + bf.config.MaxConcurrency - 1
		if last > bf.config.MaxPages {
			last = bf.config.MaxPages
		}

		end, err := bf.collect(ctx, pageRange(next, last), results)
		if err != nil {
			bf.logDone(start, len(results), 0, err)
			return results, err
		}
		if end > 0 {
			// Pages past the short one are beyond the collection.
			for page := range results {
				if page > end {
					delete(results, page)
				}
			}
			break
		}
	}

	bf.logDone(start, len(results), 0, nil)
	return results, nil
}

// collect fetches pages with the worker pool and merges them into results.
// It returns the lowest page number that ended the collection (0 if none did).
func (bf *BatchFetcher[T]) collect(ctx context.Context, pages []int, results map[int][]T) (int, error) {
	pageQueue := make(chan int, len(pages))
	pageResults := make(chan PageResult[T], len(pages))
	errors := make(chan error, bf.config.MaxConcurrency)

	for _, page := range pages {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	workers := bf.config.MaxConcurrency
	if workers > len(pages) {
		workers = len(pages)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, errors, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
		close(errors)
	}()

	end := 0
	for result := range pageResults {
		results[result.PageNumber] = result.Items
		if !result.Info.HasNext() && (end == 0 || result.PageNumber < end) {
			end = result.PageNumber
		}

		if len(results)%50 == 0 {
			log.Info().
				Int("fetched", len(results)).
				Msg("Fetch progress")
		}
	}

	if err, ok := <-errors; ok && err != nil {
		return end, fmt.Errorf("worker error (partial data: %d pages): %w", len(results), err)
	}

	return end, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], errors chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			select {
			case errors <- ctx.Err():
			default:
			}
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, info, err := bf.fetcher.FetchPage(pageCtx, Cursor{Page: pageNum, PerPage: bf.config.PerPage})
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")

			select {
			case errors <- err:
			default:
			}
			return
		}

		results <- PageResult[T]{
			PageNumber: pageNum,
			Items:      items,
			Info:       info,
		}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

func (bf *BatchFetcher[T]) logDone(start time.Time, fetched, total int, err error) {
	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Int("pages", fetched).
		Int("total", total).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")
}

// Flatten concatenates page results in page order.
func Flatten[T any](pages map[int][]T) []T {
	numbers := make([]int, 0, len(pages))
	size := 0
	for page, items := range pages {
		numbers = append(numbers, page)
		size += len(items)
	}
	sort.Ints(numbers)

	out := make([]T, 0, size)
	for _, page := range numbers {
		out = append(out, pages[page]...)
	}
	return out
}

func pageRange(from, to int) []int {
	if to < from {
		return nil
	}
	pages := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		pages = append(pages, p)
	}
	return pages
}
