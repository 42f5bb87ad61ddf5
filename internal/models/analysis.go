package models

import (
	"time"
)

// StageName identifies one of the four fixed pipeline stages
type StageName string

const (
	StageDocAnalysis        StageName = "doc_analysis"
	StageInvestmentAnalysis StageName = "investment_analysis"
	StageRiskAssessment     StageName = "risk_assessment"
	StageExecutiveSummary   StageName = "executive_summary"
)

// Title returns the human-readable stage heading used in assembled output
func (s StageName) Title() string {
	switch s {
	case StageDocAnalysis:
		return "Financial Analysis"
	case StageInvestmentAnalysis:
		return "Investment Analysis"
	case StageRiskAssessment:
		return "Risk Assessment"
	case StageExecutiveSummary:
		return "Executive Summary"
	default:
		return string(s)
	}
}

// StageResult is the output of one stage.
// Narrative is always usable; Structured is nil when the structured payload failed validation.
type StageResult struct {
	Stage       StageName         `json:"stage"`
	Role        string            `json:"role"`
	Narrative   string            `json:"narrative"`
	Sections    map[string]string `json:"sections,omitempty"` // Heading text -> body markdown
	Structured  interface{}       `json:"structured,omitempty"`
	SchemaError string            `json:"schema_error,omitempty"`
	Iterations  int               `json:"iterations"`
	ToolCalls   []string          `json:"tool_calls,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// HasStructured reports whether a validated structured payload is attached
func (r *StageResult) HasStructured() bool {
	return r != nil && r.Structured != nil
}

// FinancialAnalysis is the structured payload of the doc analysis stage
type FinancialAnalysis struct {
	Metrics  map[string]string `json:"metrics" validate:"required,min=1"`
	Trends   []string          `json:"trends" validate:"required"`
	Insights []string          `json:"insights" validate:"required"`
}

// InvestmentRecommendation is the structured payload of the investment analysis stage
type InvestmentRecommendation struct {
	Recommendation string   `json:"recommendation" validate:"required,oneof=Buy Hold Sell"`
	Confidence     float64  `json:"confidence" validate:"gte=0,lte=1"`
	TimeHorizon    string   `json:"time_horizon" validate:"required"`
	KeyFactors     []string `json:"key_factors" validate:"required,min=1"`
	Risks          []string `json:"risks"`
}

// RiskAssessment is the structured payload of the risk assessment stage
type RiskAssessment struct {
	RiskFactors map[string]string `json:"risk_factors" validate:"required"`
	Impact      string            `json:"impact" validate:"required"`
	Mitigation  []string          `json:"mitigation" validate:"required,min=1"`
	Monitoring  []string          `json:"monitoring" validate:"required,min=1"`
}

// ExecutiveSummary is the structured payload of the executive summary stage
type ExecutiveSummary struct {
	Overview        string   `json:"overview" validate:"required"`
	Recommendations []string `json:"recommendations" validate:"required,min=1"`
	Risks           []string `json:"risks"`
	NextSteps       []string `json:"next_steps" validate:"required,min=1"`
}

// RiskLevel is the band derived from the weighted risk score
type RiskLevel string

const (
	RiskLevelLow            RiskLevel = "Low"
	RiskLevelLowToModerate  RiskLevel = "Low to Moderate"
	RiskLevelModerateToHigh RiskLevel = "Moderate to High"
	RiskLevelHigh           RiskLevel = "High"
)

// RiskProfile is the heuristic risk breakdown of a document.
// Category lists keep detection-table order.
type RiskProfile struct {
	Financial   []string  `json:"financial"`
	Operational []string  `json:"operational"`
	Market      []string  `json:"market"`
	Score       float64   `json:"score"`
	Level       RiskLevel `json:"level"`
	Summary     string    `json:"summary"`
}

// AnalysisResponse is the body of a successful POST /analyze
type AnalysisResponse struct {
	Status           string `json:"status"`
	Analysis         string `json:"analysis"`
	ExecutiveSummary string `json:"executive_summary"`
	FileProcessed    string `json:"file_processed"`
}

// HealthResponse is the body of GET /
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

const (
	StatusSuccess = "success"
	StatusRunning = "running"
	ServiceName   = "Financial Document Analyzer API"
	APIVersion    = "1.0.0"
)
