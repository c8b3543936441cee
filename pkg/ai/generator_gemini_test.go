package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinicalcopilot/pkg/domain"
)

func geminiReply(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return body
}

func validReportJSON() string {
	return `{
		"urgency": "High",
		"differential_dx": ["community-acquired pneumonia"],
		"workup": ["chest x-ray"],
		"management": ["empiric antibiotics"],
		"dosing_safety": ["adjust for renal function"],
		"monitoring_followup": ["repeat vitals in 4h"]
	}`
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) (*GeminiReportGenerator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGeminiClient("test-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.WithBaseURL(srv.URL)
	return NewGeminiReportGenerator(client, "gemini-3-flash-preview"), srv
}

func TestGenerateReportParsesStructuredOutput(t *testing.T) {
	var captured generateRequest
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		_, _ = w.Write(geminiReply(t, validReportJSON()))
	})

	input := domain.CaseInput{Complaint: "fever", Symptoms: "cough", Vitals: "BP 120/80", Labs: "WBC 14"}
	report, err := gen.GenerateReport(context.Background(), input, nil, domain.LangEnglish)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Urgency != domain.UrgencyHigh {
		t.Fatalf("unexpected urgency: %q", report.Urgency)
	}
	if len(report.DifferentialDx) != 1 || report.DifferentialDx[0] != "community-acquired pneumonia" {
		t.Fatalf("unexpected differential list: %v", report.DifferentialDx)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected upstream contents: %+v", captured.Contents)
	}
	prompt := captured.Contents[0].Parts[0].Text
	for _, want := range []string{"Complaint: fever", "Symptoms: cough", "Vitals: BP 120/80", "Labs: WBC 14", "English"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON structured-output config, got %+v", captured.GenerationConfig)
	}
	if got := len(captured.GenerationConfig.ResponseSchema.Required); got != 6 {
		t.Fatalf("expected 6 required schema fields, got %d", got)
	}
}

func TestGenerateReportAttachesInlineImages(t *testing.T) {
	var captured generateRequest
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write(geminiReply(t, validReportJSON()))
	})

	img := InlineImage{MIMEType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}}
	if _, err := gen.GenerateReport(context.Background(), domain.CaseInput{Complaint: "rash"}, []InlineImage{img}, domain.LangEnglish); err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := captured.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected text + image parts, got %d", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/png" {
		t.Fatalf("missing inline image part: %+v", parts[1])
	}
	if parts[1].InlineData.Data != base64.StdEncoding.EncodeToString(img.Data) {
		t.Fatalf("inline image payload mismatch")
	}
}

func TestGenerateReportUsesLanguageDirective(t *testing.T) {
	var captured generateRequest
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write(geminiReply(t, validReportJSON()))
	})

	if _, err := gen.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangArabic); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(captured.Contents[0].Parts[0].Text, "Arabic") {
		t.Fatalf("prompt missing Arabic directive")
	}
}

func TestGenerateReportNormalizesLocalizedUrgency(t *testing.T) {
	reply := strings.Replace(validReportJSON(), `"High"`, `"عالية"`, 1)
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(geminiReply(t, reply))
	})

	report, err := gen.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangArabic)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Urgency != domain.UrgencyHigh {
		t.Fatalf("expected normalized High urgency, got %q", report.Urgency)
	}
}

func TestGenerateReportRejectsMissingFields(t *testing.T) {
	reply := `{"urgency": "Low", "workup": [], "management": [], "dosing_safety": [], "monitoring_followup": []}`
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(geminiReply(t, reply))
	})

	_, err := gen.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangEnglish)
	if err == nil || !strings.Contains(err.Error(), "differential_dx") {
		t.Fatalf("expected missing-field error, got %v", err)
	}
}

func TestGenerateReportFailsOnEmptyCandidates(t *testing.T) {
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	if _, err := gen.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangEnglish); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestGenerateReportPropagatesAPIError(t *testing.T) {
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	})

	_, err := gen.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangEnglish)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upstream error message, got %v", err)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("  "); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
