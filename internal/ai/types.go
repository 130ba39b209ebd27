package ai

type ScenarioSnapshot struct {
	Name                  string  `json:"name"`
	MonthsToDebtFree      *int    `json:"months_to_debt_free"`
	TotalInterestPaid     float64 `json:"total_interest_paid"`
	InvestmentValueMedium float64 `json:"investment_value_medium"`
	NetWorthMedium        float64 `json:"net_worth_medium"`
}

type DebtSnapshot struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Balance        float64 `json:"balance"`
	AnnualRate     float64 `json:"annual_rate"`
	MinimumPayment float64 `json:"minimum_payment"`
}

// NarrativeInput — числа плана, которые модель должна пересказать без изменений.
type NarrativeInput struct {
	Strategy               string             `json:"strategy"`
	RiskTolerance          string             `json:"risk_tolerance"`
	Currency               string             `json:"currency"`
	MonthlySurplus         float64            `json:"monthly_surplus"`
	DebtShare              float64            `json:"debt_share"`
	InvestShare            float64            `json:"invest_share"`
	ExtraDebtPayment       float64            `json:"extra_debt_payment"`
	InvestmentContribution float64            `json:"investment_contribution"`
	MonthsToDebtFree       *int               `json:"months_to_debt_free"`
	TotalInterestPaid      float64            `json:"total_interest_paid"`
	InterestSaved          *float64           `json:"interest_saved"`
	Debts                  []DebtSnapshot     `json:"debts"`
	Scenarios              []ScenarioSnapshot `json:"scenarios"`
	Warnings               []string           `json:"warnings,omitempty"`
}

type NarrativeResponse struct {
	ExecutiveSummary string   `json:"executive_summary"`
	TradeoffSummary  string   `json:"tradeoff_summary"`
	ActionSteps      []string `json:"action_steps"`
}
