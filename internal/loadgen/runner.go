package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/predictlink/verdict/pkg/logger"
)

// Config controls a load run.
type Config struct {
	BaseURL     string
	NumRequests int
	Workers     int
	BatchEvery  int // every Nth submission goes through the batch endpoint; 0 disables
	BatchSize   int
	Timeout     time.Duration
	Seed        int64
}

// Stats summarizes a completed run.
type Stats struct {
	Submitted  int
	Successful int
	Failed     int
	Elapsed    time.Duration
}

// Run submits synthetic traffic against a running service and reports
// aggregate outcomes.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Get().Named("loadgen")

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}

	client := &http.Client{Timeout: cfg.Timeout}

	var successful, failed int64
	start := time.Now()

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		// Per-worker generator; the rng is not safe for concurrent use.
		go func(gen *Generator) {
			defer wg.Done()
			for i := range jobs {
				var err error
				if cfg.BatchEvery > 0 && i%cfg.BatchEvery == 0 {
					err = postJSON(ctx, client, cfg.BaseURL+"/api/v1/batch-analyze", gen.Batch(cfg.BatchSize))
				} else {
					err = postJSON(ctx, client, cfg.BaseURL+"/api/v1/analyze", gen.Request())
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
				} else {
					atomic.AddInt64(&successful, 1)
				}
			}
		}(NewGenerator(cfg.Seed + int64(w)))
	}

	for i := 0; i < cfg.NumRequests; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Stats{}, fmt.Errorf("load run cancelled: %w", ctx.Err())
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stats := Stats{
		Submitted:  cfg.NumRequests,
		Successful: int(atomic.LoadInt64(&successful)),
		Failed:     int(atomic.LoadInt64(&failed)),
		Elapsed:    time.Since(start),
	}

	log.Info(ctx, "load run complete",
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.String("elapsed", stats.Elapsed.String()),
	)

	return stats, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}
