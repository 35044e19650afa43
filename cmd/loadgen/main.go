package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/predictlink/verdict/internal/loadgen"
	"github.com/predictlink/verdict/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumRequests = 1000
	defaultWorkers     = 8
	defaultBatchEvery  = 10
	defaultBatchSize   = 8
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8000", "Base URL of the service")
		numRequests = flag.Int("requests", defaultNumRequests, "Number of requests to submit")
		workers     = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		batchEvery  = flag.Int("batch-every", defaultBatchEvery, "Every Nth submission uses the batch endpoint (0 disables)")
		batchSize   = flag.Int("batch-size", defaultBatchSize, "Requests per batch submission")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated traffic")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	stats, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:     *baseURL,
		NumRequests: *numRequests,
		Workers:     *workers,
		BatchEvery:  *batchEvery,
		BatchSize:   *batchSize,
		Timeout:     *timeout,
		Seed:        *seed,
	})
	if err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		return
	}

	fmt.Printf("submitted=%d successful=%d failed=%d elapsed=%s\n",
		stats.Submitted, stats.Successful, stats.Failed, stats.Elapsed)
}
