package app

import (
	"context"
	"errors"
	"testing"

	"clinicalcopilot/internal/store"
	"clinicalcopilot/pkg/ai"
	"clinicalcopilot/pkg/domain"
)

type stubGenerator struct {
	report domain.ClinicalReport
	err    error
	calls  int
}

func (g *stubGenerator) GenerateReport(_ context.Context, _ domain.CaseInput, _ []ai.InlineImage, _ domain.Language) (domain.ClinicalReport, error) {
	g.calls++
	if g.err != nil {
		return domain.ClinicalReport{}, g.err
	}
	return g.report, nil
}

func testReport() domain.ClinicalReport {
	return domain.ClinicalReport{
		Urgency:            domain.UrgencyLow,
		DifferentialDx:     []string{"tension headache"},
		Workup:             []string{"none indicated"},
		Management:         []string{"hydration"},
		DosingSafety:       []string{"ibuprofen with food"},
		MonitoringFollowup: []string{"return if worsening"},
	}
}

func TestLoginCreatesUserLazily(t *testing.T) {
	a, err := New(Config{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	user, err := a.Login(context.Background(), "doc@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID == "" || user.Email != "doc@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	again, err := a.Login(context.Background(), "doc@x.com", "pw")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected stable user id, got %q then %q", user.ID, again.ID)
	}
}

func TestHistoryDemoSentinelIsEmptyEvenWithRealStore(t *testing.T) {
	mem := store.NewMemoryStore()
	a, err := New(Config{Store: mem})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	if _, err := a.CreateCase(context.Background(), domain.DemoUserID, domain.CaseInput{Complaint: "fever"}); err != nil {
		t.Fatalf("create case: %v", err)
	}
	history, err := a.History(context.Background(), domain.DemoUserID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history for demo sentinel, got %d", len(history))
	}
}

func TestGenerateReportWithoutGenerator(t *testing.T) {
	a, err := New(Config{Store: store.NewDemoStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	_, err = a.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangEnglish)
	if !errors.Is(err, ErrGeneratorNotConfigured) {
		t.Fatalf("expected ErrGeneratorNotConfigured, got %v", err)
	}
}

func TestGenerateReportSingleAttempt(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream unavailable")}
	a, err := New(Config{Store: store.NewMemoryStore(), Generator: gen})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	if _, err := a.GenerateReport(context.Background(), domain.CaseInput{Complaint: "fever"}, nil, domain.LangEnglish); err == nil {
		t.Fatal("expected generation error")
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", gen.calls)
	}
}

func TestGeneratePersistReadBack(t *testing.T) {
	gen := &stubGenerator{report: testReport()}
	a, err := New(Config{Store: store.NewMemoryStore(), Generator: gen})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ctx := context.Background()

	user, err := a.Login(ctx, "doc@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	caseID, err := a.CreateCase(ctx, user.ID, domain.CaseInput{Complaint: "headache"})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	report, err := a.GenerateReport(ctx, domain.CaseInput{Complaint: "headache"}, nil, domain.LangEnglish)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.CreateOutput(ctx, caseID, report); err != nil {
		t.Fatalf("create output: %v", err)
	}

	history, err := a.History(ctx, user.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Complaint != "headache" || history[0].Report == nil {
		t.Fatalf("unexpected history: %+v", history)
	}
}
