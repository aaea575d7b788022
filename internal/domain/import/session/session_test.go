package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/committer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/fixtures"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/parser"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/resolver"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/validator"
)

func newTestSession(t *testing.T, opts ...Option) (*Session, *repository.MemoryRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemoryRepository()
	deps := Deps{
		Repo:      repo,
		Parser:    parser.New(parser.DefaultConfig()),
		Validator: validator.New(),
		Resolver:  resolver.New(repo, logger),
		Committer: committer.New(repo, logger),
		Logger:    logger,
	}
	return New(uuid.New(), deps, opts...), repo
}

func sampleFile(t *testing.T, count int) []byte {
	t.Helper()
	rows := fixtures.NewGeneratorWithSeed(7).Rows(count)
	rows[0].SectorCode = "SEC-99"
	return fixtures.CSV(rows, ';')
}

func TestSession_HappyPath(t *testing.T) {
	var progress []committer.Progress
	s, repo := newTestSession(t, WithProgress(func(p committer.Progress) {
		progress = append(progress, p)
	}))
	repo.Seed(s.tenantID, fixtures.SectorCodes()...)
	ctx := context.Background()

	rows, err := s.Load(ctx, "laia.csv", sampleFile(t, 6))
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.Equal(t, StepTargetSelection, s.State().Step)

	scope := uuid.New()
	require.NoError(t, s.ConfirmTarget(repository.Target{ScopeID: scope, ScopeName: "Matriz"}))
	state := s.State()
	assert.Equal(t, StepPreview, state.Step)
	assert.Equal(t, s.tenantID, state.Target.TenantID)

	validation, err := s.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, validation.Stats.Valid)
	assert.Equal(t, []string{"SEC-99"}, validation.Stats.NewReferenceEntities)
	assert.Equal(t, StepValidating, s.State().Step)

	result, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 6, result.Imported)
	assert.Equal(t, []string{"SEC-99"}, result.CreatedReferenceEntities)

	state = s.State()
	assert.Equal(t, StepResult, state.Step)
	assert.Same(t, result, state.Result)
	assert.Equal(t, committer.Progress{Current: 6, Total: 6, Message: "Importing row 6 of 6"}, state.Progress)
	assert.Len(t, progress, 6)
	for _, rec := range repo.Records() {
		assert.Equal(t, scope, rec.ScopeID)
	}

	require.NoError(t, s.Reset())
	assert.Equal(t, State{Step: StepUpload}, s.State())
}

func TestSession_ParseErrorStaysAtUpload(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Load(context.Background(), "notes.csv", []byte("hello;world\n1;2\n"))

	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, parser.ErrMissingHeader)
	assert.Equal(t, State{Step: StepUpload}, s.State())
}

func TestSession_AdvancingWithoutArtifactsFailsFast(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.ConfirmTarget(repository.Target{}), ErrInvalidTransition)
	_, err := s.Validate(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StepUpload, s.State().Step)

	_, err = s.Load(ctx, "laia.csv", sampleFile(t, 2))
	require.NoError(t, err)
	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.Reset(), ErrInvalidTransition)
	assert.Equal(t, StepTargetSelection, s.State().Step)
}

func TestSession_ValidationLookupFailureReturnsToPreview(t *testing.T) {
	s, repo := newTestSession(t)
	ctx := context.Background()
	_, err := s.Load(ctx, "laia.csv", sampleFile(t, 3))
	require.NoError(t, err)
	require.NoError(t, s.ConfirmTarget(repository.Target{}))

	repo.ListErr = func(uuid.UUID) error { return errors.New("connection refused") }
	_, err = s.Validate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, StepPreview, s.State().Step)
	assert.Nil(t, s.State().Validation)

	repo.ListErr = nil
	result, err := s.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stats.Total)
}

func TestSession_CancelDuringCommit(t *testing.T) {
	var s *Session
	s, repo := newTestSession(t, WithProgress(func(p committer.Progress) {
		if p.Current == 2 {
			s.Cancel()
		}
	}))
	repo.Seed(s.tenantID, fixtures.SectorCodes()...)
	ctx := context.Background()

	_, err := s.Load(ctx, "laia.csv", sampleFile(t, 5))
	require.NoError(t, err)
	require.NoError(t, s.ConfirmTarget(repository.Target{}))
	_, err = s.Validate(ctx)
	require.NoError(t, err)

	result, err := s.Commit(ctx)

	require.ErrorIs(t, err, ErrCancelled)
	require.NotNil(t, result)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Failed)
	assert.Len(t, repo.Records(), 2)
	assert.Equal(t, State{Step: StepUpload}, s.State())
}

func TestSession_CancelDuringValidate(t *testing.T) {
	s, repo := newTestSession(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "laia.csv", sampleFile(t, 3))
	require.NoError(t, err)
	require.NoError(t, s.ConfirmTarget(repository.Target{}))

	entered := make(chan struct{})
	release := make(chan struct{})
	repo.ListErr = func(uuid.UUID) error {
		close(entered)
		<-release
		return nil
	}

	type outcome struct {
		result *validator.ValidationResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.Validate(ctx)
		done <- outcome{result, err}
	}()

	<-entered
	assert.Equal(t, StepValidating, s.State().Step)
	s.Cancel()
	close(release)
	got := <-done

	require.ErrorIs(t, got.err, ErrCancelled)
	assert.Nil(t, got.result)
	assert.Equal(t, State{Step: StepUpload}, s.State())

	repo.ListErr = nil
	_, err = s.Load(ctx, "laia.csv", sampleFile(t, 2))
	require.NoError(t, err)
	assert.Equal(t, StepTargetSelection, s.State().Step)
}

func TestSession_CancelDiscardsState(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Load(context.Background(), "laia.csv", sampleFile(t, 2))
	require.NoError(t, err)

	s.Cancel()

	assert.Equal(t, State{Step: StepUpload}, s.State())
}
