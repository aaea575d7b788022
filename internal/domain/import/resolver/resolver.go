// Package resolver turns the unknown sector codes found during validation into a
// creation plan, re-checking the store so a retried import never re-creates sectors.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
)

// CreationRequest is one sector to create
type CreationRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreationPlan is the resolver's output consumed by the committer
type CreationPlan struct {
	Target repository.Target
	// Existing indexes every known sector by repository.CodeKey
	Existing map[string]repository.ReferenceEntity
	// Requests holds one entry per distinct code still missing, in input order
	Requests []CreationRequest
	// Skipped lists requested codes that already exist in the store
	Skipped []string
	// LookupErr is set when the store could not be re-read and the snapshot was used
	LookupErr error
}

// Lookup returns the sector for a code, if known
func (p *CreationPlan) Lookup(code string) (repository.ReferenceEntity, bool) {
	e, ok := p.Existing[repository.CodeKey(code)]
	return e, ok
}

// ReferenceResolver builds creation plans
type ReferenceResolver struct {
	repo   repository.Repository
	logger *slog.Logger
}

// New creates a new reference resolver
func New(repo repository.Repository, logger *slog.Logger) *ReferenceResolver {
	return &ReferenceResolver{repo: repo, logger: logger}
}

// Plan builds the creation plan for codes. names maps repository.CodeKey to the sector
// name given in the file (see SectorNames); codes without one get DisplayName.
// It never fails: if the store cannot be listed, the validation-time snapshot is used
// and the error is kept on the plan.
func (r *ReferenceResolver) Plan(ctx context.Context, target repository.Target, codes []string, names map[string]string, snapshot []repository.ReferenceEntity) *CreationPlan {
	plan := &CreationPlan{
		Target:   target,
		Requests: []CreationRequest{},
		Skipped:  []string{},
	}

	current, err := r.repo.ListReferenceEntities(ctx, target.TenantID)
	if err != nil {
		r.logger.Warn("failed to refresh sectors, using validation snapshot",
			slog.String("tenant_id", target.TenantID.String()),
			slog.Any("error", err))
		plan.LookupErr = err
		current = snapshot
	}
	plan.Existing = repository.IndexByCode(current)

	seen := make(map[string]bool, len(codes))
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		key := repository.CodeKey(code)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if _, ok := plan.Existing[key]; ok {
			plan.Skipped = append(plan.Skipped, code)
			continue
		}
		name := names[key]
		if name == "" {
			name = DisplayName(code)
		}
		plan.Requests = append(plan.Requests, CreationRequest{Code: code, Name: name})
	}

	r.logger.Debug("sector creation plan ready",
		slog.String("tenant_id", target.TenantID.String()),
		slog.Int("to_create", len(plan.Requests)),
		slog.Int("skipped", len(plan.Skipped)))
	return plan
}

// SectorNames collects the first non-blank sector name per code, keyed by repository.CodeKey
func SectorNames(rows []repository.ParsedRow) map[string]string {
	names := make(map[string]string)
	for _, row := range rows {
		key := repository.CodeKey(row.SectorCode)
		name := strings.TrimSpace(row.SectorName)
		if key == "" || name == "" {
			continue
		}
		if _, ok := names[key]; !ok {
			names[key] = name
		}
	}
	return names
}

// DisplayName generates the name given to an auto-created sector
func DisplayName(code string) string {
	return "Setor " + strings.ToUpper(strings.TrimSpace(code))
}
