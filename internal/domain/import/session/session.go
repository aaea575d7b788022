// Package session sequences one spreadsheet import through parse, target selection,
// validation and commit. A Session is safe for concurrent use; its mutex is never held
// while parsing or talking to the repository.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/committer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/parser"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/resolver"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/validator"
)

// Deps are the pipeline components a session drives
type Deps struct {
	Repo      repository.Repository
	Parser    *parser.Parser
	Validator *validator.RowValidator
	Resolver  *resolver.ReferenceResolver
	Committer *committer.ImportCommitter
	Logger    *slog.Logger
}

// State is a snapshot of the session. Slices are shared and must be treated as read-only.
type State struct {
	Step       Step
	FileName   string
	Rows       []repository.ParsedRow
	Target     *repository.Target
	Validation *validator.ValidationResult
	Result     *committer.ImportResult
	Progress   committer.Progress
}

// Option configures a Session
type Option func(*Session)

// WithProgress registers an observer for every commit progress value
func WithProgress(fn func(committer.Progress)) Option {
	return func(s *Session) {
		s.onProgress = fn
	}
}

// WithTracer overrides the global OpenTelemetry tracer
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// Session owns the state of one import
type Session struct {
	tenantID   uuid.UUID
	deps       Deps
	logger     *slog.Logger
	tracer     trace.Tracer
	onProgress func(committer.Progress)

	mu         sync.Mutex
	state      State
	snapshot   []repository.ReferenceEntity
	generation uint64
	cancelRun  context.CancelFunc
}

// New creates a session for a tenant, starting at StepUpload
func New(tenantID uuid.UUID, deps Deps, opts ...Option) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		tenantID: tenantID,
		deps:     deps,
		logger:   logger.With(slog.String("tenant_id", tenantID.String())),
		tracer:   otel.Tracer("github.com/FACorreiaa/esg-laia-import/session"),
		state:    State{Step: StepUpload},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load parses a file. On failure the session stays at StepUpload with no rows retained.
func (s *Session) Load(ctx context.Context, fileName string, data []byte) ([]repository.ParsedRow, error) {
	ctx, span := s.tracer.Start(ctx, "session.Load", trace.WithAttributes(
		attribute.String("file_name", fileName),
		attribute.Int("bytes", len(data)),
	))
	defer span.End()

	s.mu.Lock()
	if _, err := Transition(s.state.Step, EventParsed); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.deps.Parser.Parse(fileName, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrCancelled
	}
	if err != nil {
		s.logger.Warn("failed to parse import file",
			slog.String("file_name", fileName),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		s.state.Step, _ = Transition(s.state.Step, EventParseFailed)
		s.clear()
		return nil, err
	}

	s.state.Step, _ = Transition(s.state.Step, EventParsed)
	s.state.FileName = fileName
	s.state.Rows = rows
	span.SetAttributes(attribute.Int("rows", len(rows)))
	s.logger.Info("import file parsed",
		slog.String("file_name", fileName),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// ConfirmTarget records where the rows will be imported. The tenant is always the session's.
func (s *Session) ConfirmTarget(target repository.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Transition(s.state.Step, EventTargetConfirmed)
	if err != nil {
		return err
	}
	if len(s.state.Rows) == 0 {
		return fmt.Errorf("%w: no parsed rows", ErrInvalidTransition)
	}

	target.TenantID = s.tenantID
	s.state.Target = &target
	s.state.Step = next
	return nil
}

// Validate loads the tenant's sectors once and validates every parsed row. If the sectors
// cannot be loaded the session returns to StepPreview and the error is returned.
func (s *Session) Validate(ctx context.Context) (*validator.ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "session.Validate")
	defer span.End()

	s.mu.Lock()
	next, err := Transition(s.state.Step, EventValidate)
	if err == nil && s.state.Target == nil {
		err = fmt.Errorf("%w: no target selected", ErrInvalidTransition)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state.Step = next
	rows := s.state.Rows
	runCtx, gen := s.begin(ctx)
	s.mu.Unlock()

	existing, listErr := s.deps.Repo.ListReferenceEntities(runCtx, s.tenantID)
	var result *validator.ValidationResult
	if listErr == nil {
		result = s.deps.Validator.Validate(rows, existing)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrCancelled
	}
	s.finish()

	if listErr != nil {
		s.logger.Error("failed to load sectors for validation", slog.Any("error", listErr))
		span.RecordError(listErr)
		span.SetStatus(codes.Error, "sector lookup failed")
		s.state.Step, _ = Transition(s.state.Step, EventValidationFailed)
		return nil, fmt.Errorf("failed to load sectors: %w", listErr)
	}

	s.state.Step, _ = Transition(s.state.Step, EventValidated)
	s.state.Validation = result
	s.snapshot = existing
	span.SetAttributes(
		attribute.Int("valid", result.Stats.Valid),
		attribute.Int("invalid", result.Stats.Invalid),
	)
	s.logger.Info("import validated",
		slog.Int("total", result.Stats.Total),
		slog.Int("valid", result.Stats.Valid),
		slog.Int("invalid", result.Stats.Invalid),
		slog.Int("new_sectors", len(result.Stats.NewReferenceEntities)))
	return result, nil
}

// Commit creates missing sectors and writes the valid rows. If Cancel is called meanwhile,
// the partial result is returned together with ErrCancelled and the session is back at upload.
func (s *Session) Commit(ctx context.Context) (*committer.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "session.Commit")
	defer span.End()

	s.mu.Lock()
	next, err := Transition(s.state.Step, EventCommit)
	if err == nil && s.state.Validation == nil {
		err = fmt.Errorf("%w: not validated", ErrInvalidTransition)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state.Step = next
	target := *s.state.Target
	validation := s.state.Validation
	snapshot := s.snapshot
	runCtx, gen := s.begin(ctx)
	s.mu.Unlock()

	plan := s.deps.Resolver.Plan(runCtx, target, validation.Stats.NewReferenceEntities,
		resolver.SectorNames(validation.ValidRows), snapshot)
	result := s.deps.Committer.Commit(runCtx, target, validation.ValidRows, plan, func(p committer.Progress) {
		s.mu.Lock()
		current := gen == s.generation
		if current {
			s.state.Progress = p
		}
		s.mu.Unlock()
		if current && s.onProgress != nil {
			s.onProgress(p)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return result, ErrCancelled
	}
	s.finish()

	s.state.Step, _ = Transition(s.state.Step, EventCommitted)
	s.state.Result = result
	span.SetAttributes(
		attribute.Int("imported", result.Imported),
		attribute.Int("failed", result.Failed),
	)
	return result, nil
}

// Reset discards the finished import and returns to StepUpload
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Transition(s.state.Step, EventReset)
	if err != nil {
		return err
	}
	s.generation++
	s.clear()
	s.state.Step = next
	return nil
}

// Cancel aborts any running step, discards all derived state and returns to StepUpload.
// It is safe to call from any goroutine.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.generation++
	s.clear()
	s.state.Step, _ = Transition(s.state.Step, EventCancel)
	s.logger.Info("import session cancelled")
}

// begin starts a cancellable run; callers hold s.mu
func (s *Session) begin(ctx context.Context) (context.Context, uint64) {
	runCtx, cancel := context.WithCancel(ctx)
	s.generation++
	s.cancelRun = cancel
	return runCtx, s.generation
}

// finish releases the run context of a completed step; callers hold s.mu
func (s *Session) finish() {
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
}

// clear drops every artifact; callers hold s.mu
func (s *Session) clear() {
	s.cancelRun = nil
	s.snapshot = nil
	s.state = State{Step: s.state.Step}
}
