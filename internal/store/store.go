package store

import (
	"context"

	"clinicalcopilot/pkg/domain"
)

// Store defines persistence operations for users, cases, and outputs.
// Implementations: GormStore (Postgres), MemoryStore (in-process), and
// DemoStore (no persistence, synthetic ids). Handlers never branch on which
// one is in use; the choice is made once at startup.
type Store interface {
	// CreateOrGetUserByEmail inserts a user row for email if none exists and
	// returns the row, atomically with respect to concurrent logins.
	CreateOrGetUserByEmail(ctx context.Context, email, password string) (domain.User, error)

	// CreateCase persists a new case and returns its id.
	CreateCase(ctx context.Context, userID string, input domain.CaseInput) (string, error)

	// CreateOutput persists the generated report for a case and returns the
	// output id. Fails when the referenced case does not exist.
	CreateOutput(ctx context.Context, caseID string, content domain.ClinicalReport) (string, error)

	// ListCasesByUser returns the user's cases newest-first, each with the
	// associated output's content collapsed into the Report field.
	ListCasesByUser(ctx context.Context, userID string) ([]domain.Case, error)
}
