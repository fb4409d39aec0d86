package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch fetcher configuration
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// MaxPages caps how many pages are fetched (0 = all)
	MaxPages int
}

// DefaultBatchConfig returns a conservative configuration for the Voog API
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageResult represents the result of fetching a single page
type PageResult struct {
	PageNumber int
	Items      []json.RawMessage
	Error      error
}

// BatchFetcher fetches every page of a listing in parallel
type BatchFetcher struct {
	fetcher Fetcher
	builder urlcodec.RequestURLBuilder
	config  BatchConfig
}

// NewBatchFetcher creates a new batch fetcher. A nil builder uses
// urlcodec.DefaultBuilder.
func NewBatchFetcher(fetcher Fetcher, builder urlcodec.RequestURLBuilder, config BatchConfig) *BatchFetcher {
	if builder == nil {
		builder = urlcodec.DefaultBuilder
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher{
		fetcher: fetcher,
		builder: builder,
		config:  config,
	}
}

// FetchAllPages fetches every page of the listing described by opts.
// Returns map of pageNumber -> items for successful pages. On a worker
// error the pages fetched so far are returned with the error.
func (bf *BatchFetcher) FetchAllPages(ctx context.Context, opts options.Options) (map[int][]json.RawMessage, error) {
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()
	endpoint := urlcodec.Endpoint(opts)

	// Fetch first page to get total page count
	firstCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	first, err := bf.fetcher.Fetch(firstCtx, bf.builder.BuildRequestURL(1, opts), opts.CachePages)
	cancel()
	if err != nil {
		batchPagesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	batchPagesTotal.WithLabelValues("ok").Inc()

	totalPages := first.TotalPages
	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		totalPages = bf.config.MaxPages
	}

	log.Info().
		Str("endpoint", endpoint).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	results := map[int][]json.RawMessage{1: first.Items}

	// Single page optimization
	if totalPages <= 1 {
		log.Info().
			Str("endpoint", endpoint).
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	pageQueue := make(chan int, totalPages-1)
	pageResults := make(chan PageResult, totalPages-1)
	errs := make(chan error, bf.config.MaxConcurrency)

	// Fill page queue (skip page 1, already fetched)
	for page := 2; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, opts, pageQueue, pageResults, errs, &wg, i)
	}

	// Close results channel when all workers done
	go func() {
		wg.Wait()
		close(pageResults)
		close(errs)
	}()

	fetchedPages := 1
	for result := range pageResults {
		results[result.PageNumber] = result.Items
		fetchedPages++
	}

	if err := <-errs; err != nil {
		log.Warn().
			Err(err).
			Int("fetched_pages", fetchedPages).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return results, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
	}

	if err := ctx.Err(); err != nil && fetchedPages < totalPages {
		return results, fmt.Errorf("cancelled (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
	}

	log.Info().
		Str("endpoint", endpoint).
		Int("pages", fetchedPages).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher) worker(ctx context.Context, opts options.Options, pageQueue <-chan int, results chan<- PageResult, errs chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		page, err := bf.fetcher.Fetch(pageCtx, bf.builder.BuildRequestURL(pageNum, opts), opts.CachePages)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
			batchPagesTotal.WithLabelValues("error").Inc()

			// Non-blocking error send
			select {
			case errs <- fmt.Errorf("page %d: %w", pageNum, err):
			default:
			}
			return
		}

		batchPagesTotal.WithLabelValues("ok").Inc()
		results <- PageResult{PageNumber: pageNum, Items: page.Items}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

// Flatten joins the pages of FetchAllPages in page order.
func Flatten(pages map[int][]json.RawMessage) []json.RawMessage {
	maxPage := 0
	for page := range pages {
		if page > maxPage {
			maxPage = page
		}
	}

	var items []json.RawMessage
	for page := 1; page <= maxPage; page++ {
		items = append(items, pages[page]...)
	}
	return items
}
