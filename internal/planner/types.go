package planner

import (
	"fmt"
	"strings"

	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/narrative"
)

const (
	NarrativeDeterministic = "deterministic"
	NarrativeAI            = "ai"
)

// Request — входные данные для построения плана.
type Request struct {
	Profile           cashflow.Profile
	Debts             []engine.Debt
	Strategy          engine.Strategy
	UseSafeSurplus    bool
	CustomDebtShare   *float64
	CustomInvestShare *float64
	IncludeSchedule   bool
}

// Plan — рекомендованный план погашения и инвестирования.
type Plan struct {
	Strategy               engine.Strategy        `json:"strategy"`
	RiskTolerance          cashflow.RiskTolerance `json:"risk_tolerance"`
	MonthlySurplus         float64                `json:"monthly_surplus"`
	DebtShare              float64                `json:"debt_share"`
	InvestShare            float64                `json:"invest_share"`
	ExtraDebtPayment       float64                `json:"extra_debt_payment"`
	InvestmentContribution float64                `json:"investment_contribution"`
	Returns                engine.Returns         `json:"expected_returns"`
	Funds                  []allocation.Fund      `json:"funds"`
	PayoffOrder            []string               `json:"payoff_order"`
	MonthsToDebtFree       *int                   `json:"months_to_debt_free"`
	TotalInterestPaid      float64                `json:"total_interest_paid"`
	InterestSaved          *float64               `json:"interest_saved"`
	InvestmentAtDebtFree   engine.Estimates       `json:"investment_at_debt_free"`
	FinalInvestment        engine.Estimates       `json:"final_investment"`
	RemainingDebt          float64                `json:"remaining_debt"`
	Unresolved             []string               `json:"unresolved"`
	Warnings               []string               `json:"warnings"`
	Recommendations        []string               `json:"recommendations"`
}

// DebtLine — строка сводки по долгу.
type DebtLine struct {
	Name              string          `json:"name"`
	Type              engine.DebtType `json:"type"`
	Balance           float64         `json:"balance"`
	AnnualRate        float64         `json:"annual_rate"`
	MinimumPayment    float64         `json:"minimum_payment"`
	MonthlyInterest   float64         `json:"monthly_interest"`
	MonthsMinimumOnly *float64        `json:"months_minimum_only"`
}

// DebtSummary — сводка по портфелю долгов.
type DebtSummary struct {
	TotalBalance         float64    `json:"total_balance"`
	TotalMinimumPayments float64    `json:"total_minimum_payments"`
	WeightedAverageRate  float64    `json:"weighted_avg_rate"`
	TotalMonthlyInterest float64    `json:"total_monthly_interest"`
	Count                int        `json:"num_debts"`
	HasHighInterest      bool       `json:"has_high_interest"`
	Debts                []DebtLine `json:"debts"`
}

// NarrationTrace — запрос и ответ AI для журнала; не сериализуется в ответ API.
type NarrationTrace struct {
	Prompt   string
	Raw      []byte
	Response []byte
	Err      error
}

// Output — полный результат планирования.
type Output struct {
	Plan            Plan                     `json:"recommended_plan"`
	Scenarios       engine.ScenarioSet       `json:"scenarios"`
	Table           []narrative.Row          `json:"comparison_table"`
	Cashflow        cashflow.Summary         `json:"cashflow"`
	Debts           DebtSummary              `json:"debt_summary"`
	Report          narrative.Report         `json:"report"`
	NarrativeSource string                   `json:"narrative_source"`
	Schedule        []engine.MonthlySnapshot `json:"schedule,omitempty"`
	Narration       *NarrationTrace          `json:"-"`
}

// ValidationError — входные данные содержат критические проблемы, план не строится.
type ValidationError struct {
	Critical []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plan inputs are invalid: %s", strings.Join(e.Critical, "; "))
}

func isCritical(warning string) bool {
	return strings.HasPrefix(warning, "CRITICAL") || strings.Contains(warning, "CRITICAL:") || strings.Contains(warning, "cannot be negative")
}

// Summarize строит сводку по портфелю.
func Summarize(portfolio engine.Portfolio, highInterest float64) DebtSummary {
	summary := DebtSummary{
		TotalBalance:         portfolio.TotalBalance(),
		TotalMinimumPayments: portfolio.TotalMinimumPayments(),
		WeightedAverageRate:  portfolio.WeightedAverageRate(),
		TotalMonthlyInterest: portfolio.TotalMonthlyInterest(),
		Count:                len(portfolio.Debts),
		HasHighInterest:      portfolio.HasHighInterest(highInterest),
		Debts:                make([]DebtLine, 0, len(portfolio.Debts)),
	}

	for _, debt := range portfolio.Debts {
		summary.Debts = append(summary.Debts, DebtLine{
			Name:              debt.Name,
			Type:              debt.Type,
			Balance:           debt.Balance,
			AnnualRate:        debt.AnnualRate,
			MinimumPayment:    debt.MinimumPayment,
			MonthlyInterest:   debt.InterestThisMonth(),
			MonthsMinimumOnly: debt.MonthsToPayoffMinimumOnly(),
		})
	}
	return summary
}
