package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/farewatch/internal/formatter"
	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// BulkExportOpts contains configuration for bulk price history exports.
type BulkExportOpts struct {
	Format     string // Export format: csv, markdown, text
	OutputDir  string // Base output directory (default: farewatch_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 5)
}

// RequestExportResult records the outcome of exporting one tracking request.
type RequestExportResult struct {
	RequestID string   `json:"request_id"`
	Route     string   `json:"route"`
	Success   bool     `json:"success"`
	Files     []string `json:"files"`
	Error     string   `json:"error,omitempty"`

	Err error `json:"-"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalRequests     int                   `json:"total_requests"`
	SuccessfulExports int                   `json:"successful_exports"`
	FailedExports     int                   `json:"failed_exports"`
	OutputDirectory   string                `json:"output_directory"`
	ManifestPath      string                `json:"manifest_path,omitempty"`
	Results           []RequestExportResult `json:"results"`
}

type exportJob struct {
	req    *models.TrackingRequest
	points []*models.PricePoint
}

// BulkExport writes the price history of multiple tracking requests
// concurrently and generates a manifest file summarizing the run.
//
// An empty ids slice exports every non-deleted request. Per-request failures
// are recorded in the result and do not abort the run.
func (e *MonitorEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	switch opts.Format {
	case "csv", "markdown", "text":
	case "md":
		opts.Format = "markdown"
	case "txt":
		opts.Format = "text"
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want csv, markdown, or text)", shared.ErrInvalidFlag, opts.Format)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("farewatch_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	if len(ids) == 0 {
		all, err := e.requests.List(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list requests: %w", err)
		}
		for _, req := range all {
			ids = append(ids, req.ID())
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalRequests:   len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]RequestExportResult, 0, len(ids)),
	}

	jobs := make(chan exportJob, len(ids))
	results := make(chan RequestExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		e.sendProgress(prog, exportStartedUpdate(len(ids)))
		for i, id := range ids {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			req, err := e.requests.Get(id)
			if err != nil {
				results <- failedExport(id, fmt.Sprintf("Unknown (%s)", id), fmt.Errorf("failed to load request: %w", err))
				continue
			}

			points, err := e.prices.List(map[string]any{"tracking_request_id": req.ID()})
			if err != nil {
				results <- failedExport(req.ID(), req.Route(), fmt.Errorf("failed to load price history: %w", err))
				continue
			}

			jobs <- exportJob{req: req, points: points}
			e.sendProgress(prog, exportingRequestUpdate(i+1, len(ids), req.Route()))
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.Route, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.Route, res.Err))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished",
		"total", result.TotalRequests,
		"succeeded", result.SuccessfulExports,
		"failed", result.FailedExports,
		"dir", result.OutputDirectory,
	)

	return result, nil
}

// exportWorker drains the jobs channel, writing one export per job.
func (e *MonitorEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- RequestExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportOne(job, opts)
	}
}

// exportOne writes a single request's price history in the requested format.
func (e *MonitorEngine) exportOne(job exportJob, opts BulkExportOpts) RequestExportResult {
	result := RequestExportResult{
		RequestID: job.req.ID(),
		Route:     job.req.Route(),
		Files:     []string{},
	}

	export := &formatter.PriceHistoryExport{Request: job.req, Points: job.points}

	switch opts.Format {
	case "csv":
		base := filepath.Join(opts.OutputDir, job.req.ID())
		csvRes, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			return failedExport(job.req.ID(), job.req.Route(), fmt.Errorf("CSV export failed: %w", err))
		}
		result.Files = []string{csvRes.PricesFile, csvRes.MetadataFile}

	case "markdown":
		dir := filepath.Join(opts.OutputDir, job.req.ID())
		file, err := formatter.WriteMarkdownExport(export, dir)
		if err != nil {
			return failedExport(job.req.ID(), job.req.Route(), fmt.Errorf("markdown export failed: %w", err))
		}
		result.Files = []string{file}

	case "text":
		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_prices.txt", job.req.ID()))
		file, err := formatter.WriteTextExport(export, path)
		if err != nil {
			return failedExport(job.req.ID(), job.req.Route(), fmt.Errorf("text export failed: %w", err))
		}
		result.Files = []string{file}
	}

	result.Success = true
	return result
}

func failedExport(id, route string, err error) RequestExportResult {
	return RequestExportResult{
		RequestID: id,
		Route:     route,
		Files:     []string{},
		Error:     err.Error(),
		Err:       err,
	}
}
