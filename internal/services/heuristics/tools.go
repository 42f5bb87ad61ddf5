package heuristics

import (
	"context"

	"github.com/ternarybob/finanalyzer/internal/interfaces"
)

const (
	InvestmentToolName = "investment_analysis"
	RiskToolName       = "risk_assessment"
)

// InvestmentTool exposes InvestmentReport to the investment advisor role
type InvestmentTool struct{}

// RiskTool exposes RiskReport to the risk assessor role
type RiskTool struct{}

var (
	_ interfaces.Tool = InvestmentTool{}
	_ interfaces.Tool = RiskTool{}
)

func (InvestmentTool) Name() string { return InvestmentToolName }

func (InvestmentTool) Description() string {
	return "Analyzes document text for key financial metrics and investment opportunities."
}

func (InvestmentTool) Run(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return InvestmentReport(input), nil
}

func (RiskTool) Name() string { return RiskToolName }

func (RiskTool) Description() string {
	return "Identifies financial, operational and market risks in document text and rates the overall risk level."
}

func (RiskTool) Run(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return RiskReport(input), nil
}
