package crawling

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/privacy-lens/internal/types"
)

// DetectBatch runs Detect over urls one at a time with the batch delay
// between them. It returns one record per URL in input order; a failure is
// recorded and does not stop the batch.
func (d *Detector) DetectBatch(ctx context.Context, urls []string, opts Options) []types.BatchRecord {
	records := make([]types.BatchRecord, 0, len(urls))

	for i, u := range urls {
		if i > 0 {
			sleep(ctx, d.delays.Batch)
		}

		result, err := d.detectSafe(ctx, u, opts)
		if err != nil {
			if d.verbose {
				log.Printf("[CRAWL] Batch item %d/%d failed: %v", i+1, len(urls), err)
			}
			records = append(records, types.BatchRecord{
				URL:              u,
				Success:          false,
				Error:            err.Error(),
				DetectedTrackers: []string{},
			})
			continue
		}

		records = append(records, types.BatchRecord{
			URL:              u,
			Success:          true,
			DetectedTrackers: result.Trackers,
			TrackerCount:     len(result.Trackers),
		})
	}

	return records
}

// detectSafe converts a panic inside one detection into an error.
func (d *Detector) detectSafe(ctx context.Context, u string, opts Options) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &BrowserError{Message: "detection panicked", Cause: fmt.Errorf("%v", r)}
		}
	}()
	return d.Detect(ctx, u, opts)
}
