package analysis

import (
	"fmt"

	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
	"github.com/ternarybob/finanalyzer/internal/services/heuristics"
)

// ToolInputKind selects what a role's bound tool receives as input
type ToolInputKind int

const (
	// ToolInputText passes the extracted document text
	ToolInputText ToolInputKind = iota
	// ToolInputPath passes the document path on disk
	ToolInputPath
)

// Role is an analyst persona. Roles are values and are never mutated after construction.
type Role struct {
	Key       string
	Name      string
	Goal      string
	Backstory string
	MaxIter   int
	MaxRPM    int
	Tool      string
	ToolInput ToolInputKind
}

// Persona renders the system instruction for the role
func (r Role) Persona() string {
	return fmt.Sprintf("You are the %s.\n\nGoal: %s\n\nBackground: %s", r.Name, r.Goal, r.Backstory)
}

// Roles holds the three analyst personas used by the pipeline
type Roles struct {
	FinancialAnalyst  Role
	InvestmentAdvisor Role
	RiskAssessor      Role
}

// All returns the roles in a stable order
func (r Roles) All() []Role {
	return []Role{r.FinancialAnalyst, r.InvestmentAdvisor, r.RiskAssessor}
}

// NewRoles builds the personas, applying per-role limit overrides from config.
// Zero or negative overrides keep the built-in limits.
func NewRoles(config *common.AnalysisConfig) Roles {
	roles := Roles{
		FinancialAnalyst: Role{
			Key:  "financial_analyst",
			Name: "Senior Financial Analyst",
			Goal: "Provide accurate, comprehensive, and insightful financial analysis " +
				"based on documents including financial statements, annual reports, " +
				"and market data.",
			Backstory: "You are a CFA-certified financial analyst with 15+ years of experience " +
				"in equity research and financial modeling. You have a proven track record " +
				"of identifying key financial trends, performing ratio analysis, and " +
				"providing actionable investment theses. Your analysis is known for " +
				"being thorough, data-driven, and forward-looking.",
			MaxIter:   15,
			MaxRPM:    10,
			Tool:      documents.ReaderToolName,
			ToolInput: ToolInputPath,
		},
		InvestmentAdvisor: Role{
			Key:  "investment_advisor",
			Name: "Senior Investment Advisor",
			Goal: "Generate well-researched, risk-adjusted investment recommendations " +
				"based on thorough financial analysis and market conditions.",
			Backstory: "You are a seasoned investment advisor with 12+ years of experience " +
				"in portfolio management and wealth advisory. You hold an MBA from a " +
				"top business school and are a CFA charterholder. Your expertise lies " +
				"in fundamental analysis, valuation techniques, and portfolio " +
				"construction across various asset classes.",
			MaxIter:   12,
			MaxRPM:    8,
			Tool:      heuristics.InvestmentToolName,
			ToolInput: ToolInputText,
		},
		RiskAssessor: Role{
			Key:  "risk_assessor",
			Name: "Chief Risk Officer",
			Goal: "Identify, assess, and mitigate financial, operational, and market risks " +
				"to protect organizational value and ensure regulatory compliance.",
			Backstory: "You are a seasoned risk management professional with 18+ years of " +
				"experience in enterprise risk management across global financial " +
				"institutions. You hold an FRM certification and have deep expertise " +
				"in risk modeling, stress testing, and regulatory compliance " +
				"frameworks like Basel III and Solvency II.",
			MaxIter:   10,
			MaxRPM:    6,
			Tool:      heuristics.RiskToolName,
			ToolInput: ToolInputText,
		},
	}

	if config != nil {
		roles.FinancialAnalyst = roles.FinancialAnalyst.withLimits(config.FinancialAnalyst)
		roles.InvestmentAdvisor = roles.InvestmentAdvisor.withLimits(config.InvestmentAdvisor)
		roles.RiskAssessor = roles.RiskAssessor.withLimits(config.RiskAssessor)
	}

	return roles
}

func (r Role) withLimits(limits common.RoleLimits) Role {
	if limits.MaxIter > 0 {
		r.MaxIter = limits.MaxIter
	}
	if limits.MaxRPM > 0 {
		r.MaxRPM = limits.MaxRPM
	}
	return r
}
