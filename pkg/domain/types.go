package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Language selects the language the generated report is written in.
type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
)

// Name returns the human-readable language name used in model instructions.
func (l Language) Name() string {
	if l == LangArabic {
		return "Arabic"
	}
	return "English"
}

// ParseLanguage maps a request value to a supported language, defaulting to English.
func ParseLanguage(raw string) Language {
	if strings.ToLower(strings.TrimSpace(raw)) == string(LangArabic) {
		return LangArabic
	}
	return LangEnglish
}

// Urgency is the canonical, language-independent urgency level of a report.
// Localized values coming back from the model are normalized at parse time;
// translation happens only at display time via Display.
type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

var urgencyAliases = map[string]Urgency{
	"high":   UrgencyHigh,
	"medium": UrgencyMedium,
	"low":    UrgencyLow,
	"عالية":  UrgencyHigh,
	"عاجلة":  UrgencyHigh,
	"متوسطة": UrgencyMedium,
	"منخفضة": UrgencyLow,
}

var urgencyDisplayArabic = map[Urgency]string{
	UrgencyHigh:   "عالية",
	UrgencyMedium: "متوسطة",
	UrgencyLow:    "منخفضة",
}

// ParseUrgency normalizes a model-emitted urgency literal to its canonical value.
func ParseUrgency(raw string) (Urgency, bool) {
	u, ok := urgencyAliases[strings.ToLower(strings.TrimSpace(raw))]
	return u, ok
}

// Display returns the localized urgency label for the given language.
func (u Urgency) Display(lang Language) string {
	if lang == LangArabic {
		if s, ok := urgencyDisplayArabic[u]; ok {
			return s
		}
	}
	return string(u)
}

// DemoUserID is the sentinel identity used when no database is configured.
const DemoUserID = "demo-user"

// User is a practitioner account, created lazily on first login.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CaseInput carries the patient data a practitioner submits for one encounter.
type CaseInput struct {
	Complaint string `json:"complaint"`
	Symptoms  string `json:"symptoms"`
	Vitals    string `json:"vitals"`
	Labs      string `json:"labs"`
}

// Case is a persisted patient encounter. Report holds the JSON-string
// serialization of the associated output's content in history reads, or nil
// when no output exists yet.
type Case struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Complaint string    `json:"complaint"`
	Symptoms  string    `json:"symptoms"`
	Vitals    string    `json:"vitals"`
	Labs      string    `json:"labs"`
	CreatedAt time.Time `json:"created_at"`
	Report    *string   `json:"report"`
}

// ClinicalReport is the structured report generated for a case. All six
// fields are required; a payload missing any of them is a contract violation.
type ClinicalReport struct {
	Urgency            Urgency  `json:"urgency"`
	DifferentialDx     []string `json:"differential_dx"`
	Workup             []string `json:"workup"`
	Management         []string `json:"management"`
	DosingSafety       []string `json:"dosing_safety"`
	MonitoringFollowup []string `json:"monitoring_followup"`
}

type clinicalReportPayload struct {
	Urgency            *string   `json:"urgency"`
	DifferentialDx     *[]string `json:"differential_dx"`
	Workup             *[]string `json:"workup"`
	Management         *[]string `json:"management"`
	DosingSafety       *[]string `json:"dosing_safety"`
	MonitoringFollowup *[]string `json:"monitoring_followup"`
}

// ParseClinicalReport decodes raw JSON into a ClinicalReport, rejecting
// payloads that omit any of the six required fields or carry an unknown
// urgency literal.
func ParseClinicalReport(data []byte) (ClinicalReport, error) {
	var payload clinicalReportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ClinicalReport{}, fmt.Errorf("parse report: %w", err)
	}
	if payload.Urgency == nil {
		return ClinicalReport{}, fmt.Errorf("report missing required field %q", "urgency")
	}
	urgency, ok := ParseUrgency(*payload.Urgency)
	if !ok {
		return ClinicalReport{}, fmt.Errorf("report has unknown urgency %q", *payload.Urgency)
	}
	lists := []struct {
		name  string
		value *[]string
	}{
		{"differential_dx", payload.DifferentialDx},
		{"workup", payload.Workup},
		{"management", payload.Management},
		{"dosing_safety", payload.DosingSafety},
		{"monitoring_followup", payload.MonitoringFollowup},
	}
	for _, l := range lists {
		if l.value == nil {
			return ClinicalReport{}, fmt.Errorf("report missing required field %q", l.name)
		}
	}
	return ClinicalReport{
		Urgency:            urgency,
		DifferentialDx:     *payload.DifferentialDx,
		Workup:             *payload.Workup,
		Management:         *payload.Management,
		DosingSafety:       *payload.DosingSafety,
		MonitoringFollowup: *payload.MonitoringFollowup,
	}, nil
}
