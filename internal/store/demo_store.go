package store

import (
	"context"
	"time"

	"clinicalcopilot/internal/util"
	"clinicalcopilot/pkg/domain"
)

// DemoStore is the null store used when no database is configured. Writes
// return synthetic ids without persisting anything and history is always
// empty, so the application runs end-to-end with no backing services.
type DemoStore struct{}

// NewDemoStore returns the no-persistence store.
func NewDemoStore() *DemoStore { return &DemoStore{} }

// CreateOrGetUserByEmail returns the fixed demo identity for any email.
func (*DemoStore) CreateOrGetUserByEmail(_ context.Context, email, _ string) (domain.User, error) {
	return domain.User{
		ID:        domain.DemoUserID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CreateCase returns a synthetic id without persisting.
func (*DemoStore) CreateCase(_ context.Context, _ string, _ domain.CaseInput) (string, error) {
	return "demo-case-" + util.NewID(), nil
}

// CreateOutput returns a synthetic id without persisting.
func (*DemoStore) CreateOutput(_ context.Context, _ string, _ domain.ClinicalReport) (string, error) {
	return "demo-output-" + util.NewID(), nil
}

// ListCasesByUser always reports an empty history.
func (*DemoStore) ListCasesByUser(_ context.Context, _ string) ([]domain.Case, error) {
	return []domain.Case{}, nil
}
