package domain

import (
	"encoding/json"
	"time"
)

type CaseStatus string

const (
	CaseInvestigating CaseStatus = "investigating"
	CaseCompleted     CaseStatus = "completed"
)

// CaseEvidence is one entry of a case's evidence log.
type CaseEvidence struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
}

// TimelineEntry is one entry of a case's timeline.
type TimelineEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Event     string          `json:"event"`
	Source    string          `json:"source,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Case is the persisted audit trail of one investigation.
type Case struct {
	CaseID          string          `json:"case_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Status          CaseStatus      `json:"status"`
	Evidence        []CaseEvidence  `json:"evidence"`
	Timeline        []TimelineEntry `json:"timeline"`
	InitialData     json.RawMessage `json:"initial_data"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Verdict         Verdict         `json:"verdict,omitempty"`
	RiskScore       *int            `json:"risk_score,omitempty"`
	Summary         string          `json:"summary,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
}

// CaseSummary is the short view of a case.
type CaseSummary struct {
	CaseID        string     `json:"case_id"`
	Status        CaseStatus `json:"status"`
	EvidenceCount int        `json:"evidence_count"`
	Verdict       Verdict    `json:"verdict,omitempty"`
	RiskScore     *int       `json:"risk_score,omitempty"`
}

func (c Case) Summarize() CaseSummary {
	return CaseSummary{
		CaseID:        c.CaseID,
		Status:        c.Status,
		EvidenceCount: len(c.Evidence),
		Verdict:       c.Verdict,
		RiskScore:     c.RiskScore,
	}
}

// InitialData is recorded when a case is opened.
type InitialData struct {
	ImagePath     string    `json:"image_path"`
	ExtractedData EntityBag `json:"extracted_data"`
}

type ReportStatus string

const (
	ReportCompleted ReportStatus = "completed"
	ReportError     ReportStatus = "error"
)

// InvestigationReport is the terminal output of an investigation. Error
// reports carry only CaseID, Status and Error.
type InvestigationReport struct {
	CaseID                string          `json:"case_id"`
	Status                ReportStatus    `json:"status"`
	Verdict               Verdict         `json:"verdict,omitempty"`
	RiskScore             int             `json:"risk_score"`
	RiskFactors           []string        `json:"risk_factors,omitempty"`
	Summary               string          `json:"summary,omitempty"`
	Recommendations       []string        `json:"recommendations,omitempty"`
	Evidence              *EvidenceBundle `json:"evidence,omitempty"`
	Entities              *EntityBag      `json:"entities,omitempty"`
	InitialData           *InitialData    `json:"initial_data,omitempty"`
	ImageType             string          `json:"image_type,omitempty"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	Error                 string          `json:"error,omitempty"`
}

// ErrorReport builds the report returned when an investigation fails.
func ErrorReport(caseID string, err error) InvestigationReport {
	return InvestigationReport{CaseID: caseID, Status: ReportError, Error: errText(err)}
}

// CaseCompleted is published after a case is finalized.
type CaseCompleted struct {
	CaseID      string    `json:"case_id"`
	Verdict     Verdict   `json:"verdict"`
	RiskScore   int       `json:"risk_score"`
	RiskFactors []string  `json:"risk_factors"`
	CompletedAt time.Time `json:"completed_at"`
}
