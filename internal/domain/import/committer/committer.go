// Package committer persists validated LAIA rows. Sector creations run first, then
// rows are written one by one in file order; each row succeeds or fails on its own and
// nothing is rolled back.
package committer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/resolver"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/validator"
)

// CancelledMessage is attached to rows that were never attempted because the import was cancelled
const CancelledMessage = "import cancelled before this row was written"

// Progress is reported after every row
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ProgressFunc receives progress synchronously from the committing goroutine
type ProgressFunc func(Progress)

// ImportResult is the outcome of a commit. Imported+Failed always equals the number of rows given.
type ImportResult struct {
	Success                  bool                        `json:"success"`
	Imported                 int                         `json:"imported"`
	Failed                   int                         `json:"failed"`
	CreatedReferenceEntities []string                    `json:"createdReferenceEntities"`
	Errors                   []validator.ValidationIssue `json:"errors"`
	ReferenceErrors          []validator.ValidationIssue `json:"referenceErrors"`
	Cancelled                bool                        `json:"cancelled"`
	RecordIDs                map[int]uuid.UUID           `json:"recordIds"` // rowNumber -> record id
}

// ImportCommitter writes rows through the repository
type ImportCommitter struct {
	repo    repository.Repository
	logger  *slog.Logger
	limiter *rate.Limiter
	metrics *Metrics
	tracer  trace.Tracer
}

// Option configures an ImportCommitter
type Option func(*ImportCommitter)

// WithRateLimit throttles every repository write through limiter
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *ImportCommitter) {
		c.limiter = limiter
	}
}

// WithMetrics records row and sector outcomes
func WithMetrics(m *Metrics) Option {
	return func(c *ImportCommitter) {
		c.metrics = m
	}
}

// WithTracer overrides the global OpenTelemetry tracer
func WithTracer(t trace.Tracer) Option {
	return func(c *ImportCommitter) {
		c.tracer = t
	}
}

// New creates a new import committer
func New(repo repository.Repository, logger *slog.Logger, opts ...Option) *ImportCommitter {
	c := &ImportCommitter{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("github.com/FACorreiaa/esg-laia-import/committer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit creates the planned sectors and then writes rows in order. It never returns
// an error: persistence failures become issues on the result. Cancelling ctx stops
// new writes; unattempted rows are counted as failed with CancelledMessage. A row the
// write throttle cannot fit before ctx's deadline fails on its own without cancelling.
func (c *ImportCommitter) Commit(ctx context.Context, target repository.Target, rows []repository.ParsedRow, plan *resolver.CreationPlan, onProgress ProgressFunc) *ImportResult {
	ctx, span := c.tracer.Start(ctx, "committer.Commit", trace.WithAttributes(
		attribute.String("tenant_id", target.TenantID.String()),
		attribute.Int("rows", len(rows)),
	))
	defer span.End()
	start := time.Now()

	result := &ImportResult{
		CreatedReferenceEntities: []string{},
		Errors:                   []validator.ValidationIssue{},
		ReferenceErrors:          []validator.ValidationIssue{},
		RecordIDs:                make(map[int]uuid.UUID, len(rows)),
	}

	sectors := make(map[string]repository.ReferenceEntity)
	var requests []resolver.CreationRequest
	if plan != nil {
		for k, v := range plan.Existing {
			sectors[k] = v
		}
		requests = plan.Requests
	}

	creationErrs := c.createSectors(ctx, target, requests, sectors, result)

	total := len(rows)
	for i, row := range rows {
		if err := c.wait(ctx); err != nil {
			if ctx.Err() != nil {
				c.cancelRemaining(rows[i:], result)
				break
			}
			// the throttle refused to wait, ctx itself is still live
			c.failRow(row, fmt.Sprintf("row not written: %v", err), result)
		} else {
			c.commitRow(ctx, target, row, sectors, creationErrs, result)
		}

		if onProgress != nil {
			onProgress(Progress{
				Current: i + 1,
				Total:   total,
				Message: fmt.Sprintf("Importing row %d of %d", i+1, total),
			})
		}
	}

	result.Success = result.Failed == 0
	elapsed := time.Since(start)
	c.metrics.observe(elapsed.Seconds())

	span.SetAttributes(
		attribute.Int("imported", result.Imported),
		attribute.Int("failed", result.Failed),
		attribute.Int("sectors_created", len(result.CreatedReferenceEntities)),
	)
	if !result.Success {
		span.SetStatus(codes.Error, fmt.Sprintf("%d rows failed", result.Failed))
	}

	c.logger.Info("import committed",
		slog.String("tenant_id", target.TenantID.String()),
		slog.Int("imported", result.Imported),
		slog.Int("failed", result.Failed),
		slog.Int("sectors_created", len(result.CreatedReferenceEntities)),
		slog.Bool("cancelled", result.Cancelled),
		slog.Duration("elapsed", elapsed))
	return result
}

// createSectors runs the planned creations sequentially, recording failures per code
func (c *ImportCommitter) createSectors(ctx context.Context, target repository.Target, requests []resolver.CreationRequest, sectors map[string]repository.ReferenceEntity, result *ImportResult) map[string]error {
	failed := make(map[string]error)

	for _, req := range requests {
		key := repository.CodeKey(req.Code)
		if err := c.wait(ctx); err != nil {
			c.metrics.sector("failed")
			failed[key] = err
			result.ReferenceErrors = append(result.ReferenceErrors, referenceIssue(req.Code, err))
			continue
		}

		entity, err := c.repo.CreateReferenceEntity(ctx, target.TenantID, req.Code, req.Name)
		if err != nil {
			c.logger.Error("failed to create sector",
				slog.String("code", req.Code),
				slog.Any("error", err))
			c.metrics.sector("failed")
			failed[key] = err
			result.ReferenceErrors = append(result.ReferenceErrors, referenceIssue(req.Code, err))
			continue
		}

		c.metrics.sector("created")
		sectors[key] = *entity
		result.CreatedReferenceEntities = append(result.CreatedReferenceEntities, req.Code)
	}
	return failed
}

func (c *ImportCommitter) commitRow(ctx context.Context, target repository.Target, row repository.ParsedRow, sectors map[string]repository.ReferenceEntity, creationErrs map[string]error, result *ImportResult) {
	key := repository.CodeKey(row.SectorCode)
	sector, ok := sectors[key]
	if !ok {
		msg := fmt.Sprintf("sector %s does not exist", row.SectorCode)
		if err, failed := creationErrs[key]; failed {
			msg = fmt.Sprintf("sector %s could not be created: %v", row.SectorCode, err)
		}
		c.failRow(row, msg, result)
		return
	}

	id, err := c.repo.CreateRecord(ctx, repository.Record{
		TenantID:    target.TenantID,
		ScopeID:     target.ScopeID,
		ReferenceID: sector.ID,
		Row:         row,
	})
	if err != nil {
		c.logger.Warn("failed to import row",
			slog.Int("row", row.RowNumber),
			slog.Any("error", err))
		c.failRow(row, err.Error(), result)
		return
	}

	c.metrics.row("imported")
	result.Imported++
	result.RecordIDs[row.RowNumber] = id
}

func (c *ImportCommitter) failRow(row repository.ParsedRow, msg string, result *ImportResult) {
	c.metrics.row("failed")
	result.Failed++
	result.Errors = append(result.Errors, validator.ValidationIssue{
		Row:      row.RowNumber,
		Message:  msg,
		Severity: validator.SeverityError,
	})
}

func (c *ImportCommitter) cancelRemaining(rows []repository.ParsedRow, result *ImportResult) {
	c.logger.Warn("import cancelled", slog.Int("remaining", len(rows)))
	result.Cancelled = true
	for _, row := range rows {
		c.metrics.row("cancelled")
		result.Failed++
		result.Errors = append(result.Errors, validator.ValidationIssue{
			Row:      row.RowNumber,
			Message:  CancelledMessage,
			Severity: validator.SeverityError,
		})
	}
}

// wait honours cancellation and the optional write throttle
func (c *ImportCommitter) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func referenceIssue(code string, err error) validator.ValidationIssue {
	return validator.ValidationIssue{
		Field:    sniffer.FieldSectorCode,
		Message:  fmt.Sprintf("failed to create sector %s: %v", code, err),
		Severity: validator.SeverityError,
	}
}
