// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/committer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/parser"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/resolver"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/session"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/validator"
	"github.com/FACorreiaa/esg-laia-import/pkg/storage"
)

// Config tunes the pipeline components shared by every session
type Config struct {
	Parser         parser.Config
	DuplicateCheck bool
	WritesPerSec   float64 // 0 disables throttling
	Metrics        *committer.Metrics
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Parser:         parser.DefaultConfig(),
		DuplicateCheck: true,
	}
}

// AnalyzeResult describes an upload before it is parsed
type AnalyzeResult struct {
	Format      sniffer.Format
	Delimiter   rune // CSV only
	HeaderLine  int  // 1-based, CSV only
	Fingerprint string
}

// RunInput is a headless import request
type RunInput struct {
	Target   repository.Target
	FileName string
	Data     []byte
	DryRun   bool // validate only, nothing is written
}

// RunReport is the outcome of a headless import
type RunReport struct {
	File       *storage.FileInfo           `json:"file,omitempty"` // nil when no archive is configured or archiving failed
	Rows       int                         `json:"rows"`
	Validation *validator.ValidationResult `json:"validation,omitempty"`
	Result     *committer.ImportResult     `json:"result,omitempty"` // nil on dry runs
}

// ImportService wires the pipeline components and hands out sessions
type ImportService struct {
	repo      repository.Repository
	files     storage.Storage // Optional: nil disables upload archiving
	parser    *parser.Parser
	validator *validator.RowValidator
	resolver  *resolver.ReferenceResolver
	committer *committer.ImportCommitter
	logger    *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(repo repository.Repository, files storage.Storage, cfg Config, logger *slog.Logger) *ImportService {
	opts := []committer.Option{committer.WithMetrics(cfg.Metrics)}
	if cfg.WritesPerSec > 0 {
		opts = append(opts, committer.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.WritesPerSec), 1)))
	}

	return &ImportService{
		repo:      repo,
		files:     files,
		parser:    parser.New(cfg.Parser),
		validator: validator.New(validator.WithDuplicateDetection(cfg.DuplicateCheck)),
		resolver:  resolver.New(repo, logger),
		committer: committer.New(repo, logger, opts...),
		logger:    logger,
	}
}

// NewSession starts an interactive import for a tenant
func (s *ImportService) NewSession(tenantID uuid.UUID, opts ...session.Option) *session.Session {
	return session.New(tenantID, session.Deps{
		Repo:      s.repo,
		Parser:    s.parser,
		Validator: s.validator,
		Resolver:  s.resolver,
		Committer: s.committer,
		Logger:    s.logger,
	}, opts...)
}

// Analyze sniffs an upload's format and, for delimited text, its dialect
func (s *ImportService) Analyze(fileName string, data []byte) (*AnalyzeResult, error) {
	result := &AnalyzeResult{Format: sniffer.DetectFormat(fileName, data)}
	if result.Format != sniffer.FormatCSV {
		return result, nil
	}

	cfg, err := sniffer.DetectConfig(data, sniffer.DefaultHeaderMatcher())
	if err != nil {
		return nil, fmt.Errorf("failed to analyze file: %w", err)
	}
	result.Delimiter = cfg.Delimiter
	result.HeaderLine = cfg.HeaderIndex + 1
	result.Fingerprint = cfg.Fingerprint
	return result, nil
}

// Run drives a whole import without user interaction: parse, confirm the target, validate
// and, unless DryRun is set, archive the upload and commit. Row-level problems are reported on the
// report; only parse errors, sector lookup failures and cancellation return an error.
func (s *ImportService) Run(ctx context.Context, in RunInput, opts ...session.Option) (*RunReport, error) {
	report := &RunReport{}
	if !in.DryRun {
		report.File = s.archive(ctx, in)
	}

	sess := s.NewSession(in.Target.TenantID, opts...)
	rows, err := sess.Load(ctx, in.FileName, in.Data)
	if err != nil {
		return report, err
	}
	report.Rows = len(rows)

	if err := sess.ConfirmTarget(in.Target); err != nil {
		return report, err
	}

	report.Validation, err = sess.Validate(ctx)
	if err != nil {
		return report, err
	}
	if in.DryRun {
		s.logger.Info("dry run finished, nothing written",
			slog.String("tenant_id", in.Target.TenantID.String()),
			slog.Int("valid", report.Validation.Stats.Valid))
		return report, nil
	}

	report.Result, err = sess.Commit(ctx)
	return report, err
}

// archive keeps a copy of the upload; failures are logged and never block the import
func (s *ImportService) archive(ctx context.Context, in RunInput) *storage.FileInfo {
	if s.files == nil {
		return nil
	}

	info, err := s.files.Archive(ctx, in.Target.TenantID, in.FileName, contentType(in.FileName), bytes.NewReader(in.Data))
	if err != nil {
		s.logger.Warn("failed to archive upload",
			slog.String("file_name", in.FileName),
			slog.Any("error", err))
		return nil
	}
	return info
}

func contentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".tsv":
		return "text/tab-separated-values"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
