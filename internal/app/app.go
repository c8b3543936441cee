package app

import (
	"context"
	"fmt"
	"strings"

	"clinicalcopilot/internal/store"
	"clinicalcopilot/pkg/ai"
	"clinicalcopilot/pkg/domain"
)

// Config holds the injected dependencies for the application core.
// Store is required; Generator may be nil when no AI credential is
// configured, in which case generation requests fail with
// ErrGeneratorNotConfigured.
type Config struct {
	Store     store.Store
	Generator ai.ReportGenerator
}

// App orchestrates the case store and the report generator. It holds no
// per-request state; all dependencies are constructed once at process start.
type App struct {
	store     store.Store
	generator ai.ReportGenerator
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &App{store: cfg.Store, generator: cfg.Generator}, nil
}

// Login returns the user for email, creating the row on first login. The
// submitted password is stored verbatim in place of a hash; this mirrors the
// deployed behavior and is a documented weakness, not an invitation.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := a.store.CreateOrGetUserByEmail(ctx, email, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	return user, nil
}

// CreateCase persists a new patient encounter and returns its id.
func (a *App) CreateCase(ctx context.Context, userID string, input domain.CaseInput) (string, error) {
	return a.store.CreateCase(ctx, userID, input)
}

// CreateOutput attaches generated report content to a case and returns the
// output id.
func (a *App) CreateOutput(ctx context.Context, caseID string, content domain.ClinicalReport) (string, error) {
	return a.store.CreateOutput(ctx, caseID, content)
}

// History returns the user's cases newest-first. The demo sentinel user has
// no persisted history regardless of which store is configured.
func (a *App) History(ctx context.Context, userID string) ([]domain.Case, error) {
	if strings.TrimSpace(userID) == domain.DemoUserID {
		return []domain.Case{}, nil
	}
	return a.store.ListCasesByUser(ctx, userID)
}

// GenerateReport produces a ClinicalReport for the given case data. One
// outbound call per invocation; results are never cached, so identical input
// may yield different content across calls.
func (a *App) GenerateReport(ctx context.Context, input domain.CaseInput, images []ai.InlineImage, lang domain.Language) (domain.ClinicalReport, error) {
	if a.generator == nil {
		return domain.ClinicalReport{}, ErrGeneratorNotConfigured
	}
	return a.generator.GenerateReport(ctx, input, images, lang)
}
