package ai

import (
	"context"
	"errors"

	"clinicalcopilot/pkg/domain"
)

// ErrNotConfigured indicates no credential is available for the external
// generation service. It is returned before any network call is attempted.
var ErrNotConfigured = errors.New("gemini api key required")

// ReportGenerator produces a structured clinical report from case data.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, input domain.CaseInput, images []InlineImage, lang domain.Language) (domain.ClinicalReport, error)
}
