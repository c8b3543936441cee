package ai

import (
	"context"
	"fmt"
	"strings"

	"clinicalcopilot/pkg/domain"
)

// GeminiReportGenerator wraps GeminiClient with a fixed model for report generation.
type GeminiReportGenerator struct {
	client *GeminiClient
	model  string
}

// NewGeminiReportGenerator builds a Gemini-backed ReportGenerator.
func NewGeminiReportGenerator(client *GeminiClient, model string) *GeminiReportGenerator {
	return &GeminiReportGenerator{client: client, model: model}
}

// GenerateReport implements ReportGenerator using Gemini structured output.
// A single attempt is made; any call, empty-payload, or parse failure is
// propagated to the caller unretried.
func (g *GeminiReportGenerator) GenerateReport(ctx context.Context, input domain.CaseInput, images []InlineImage, lang domain.Language) (domain.ClinicalReport, error) {
	prompt := buildReportPrompt(input, lang)
	text, err := g.client.GenerateStructured(ctx, g.model, prompt, images, reportSchema())
	if err != nil {
		return domain.ClinicalReport{}, fmt.Errorf("generate report: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ClinicalReport{}, fmt.Errorf("generate report: empty payload")
	}
	report, err := domain.ParseClinicalReport([]byte(text))
	if err != nil {
		return domain.ClinicalReport{}, fmt.Errorf("generate report: %w", err)
	}
	return report, nil
}

func buildReportPrompt(input domain.CaseInput, lang domain.Language) string {
	var sb strings.Builder
	sb.WriteString("You are a clinical decision support assistant. Analyze the following patient data and provide a structured clinical report.\n\n")
	fmt.Fprintf(&sb, "IMPORTANT: The entire response MUST be in %s, except the urgency field which must always be exactly one of High, Medium, or Low.\n\n", lang.Name())
	fmt.Fprintf(&sb, "Complaint: %s\n", input.Complaint)
	fmt.Fprintf(&sb, "Symptoms: %s\n", input.Symptoms)
	fmt.Fprintf(&sb, "Vitals: %s\n", input.Vitals)
	fmt.Fprintf(&sb, "Labs: %s", input.Labs)
	return sb.String()
}

func reportSchema() *Schema {
	stringList := func(desc string) *Schema {
		return &Schema{
			Type:        "ARRAY",
			Items:       &Schema{Type: "STRING"},
			Description: desc,
		}
	}
	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"urgency": {
				Type:        "STRING",
				Enum:        []string{string(domain.UrgencyHigh), string(domain.UrgencyMedium), string(domain.UrgencyLow)},
				Description: "Urgency level: High, Medium, or Low",
			},
			"differential_dx":     stringList("List of potential differential diagnoses"),
			"workup":              stringList("Recommended next steps for workup and investigations"),
			"management":          stringList("Management plan and immediate actions"),
			"dosing_safety":       stringList("Medication dosing, safety considerations, and contraindications"),
			"monitoring_followup": stringList("Follow-up plan and monitoring parameters"),
		},
		Required: []string{"urgency", "differential_dx", "workup", "management", "dosing_safety", "monitoring_followup"},
	}
}
