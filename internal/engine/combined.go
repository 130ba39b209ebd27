package engine

import (
	"fmt"
)

// CombinedInput — параметры совместной симуляции погашения и инвестирования.
type CombinedInput struct {
	ExtraDebtPayment       float64
	InvestmentContribution float64
	Strategy               Strategy
	Returns                Returns
	InitialInvestment      float64
	MaxMonths              int
}

// CombinedResult — итог совместной симуляции на всем горизонте.
type CombinedResult struct {
	Payoff                       PayoffResult `json:"payoff"`
	Horizon                      int          `json:"horizon"`
	MonthsToDebtFree             *int         `json:"months_to_debt_free"`
	TotalInterestPaid            float64      `json:"total_interest_paid"`
	TotalDebtPayments            float64      `json:"total_debt_payments"`
	TotalInvestmentContributions float64      `json:"total_investment_contributions"`
	ContributionAfterPayoff      float64      `json:"contribution_after_payoff"`
	InvestmentAtDebtFree         Estimates    `json:"investment_at_debt_free"`
	FinalInvestment              Estimates    `json:"final_investment"`
	Investment                   Trajectories `json:"investment"`
	RemainingDebt                float64      `json:"remaining_debt"`
}

// NetWorth возвращает стоимость инвестиций на горизонте за вычетом непогашенного долга.
func (r CombinedResult) NetWorth() Estimates {
	return r.FinalInvestment.Sub(r.RemainingDebt)
}

// SimulateCombined прогоняет погашение долгов и параллельно наращивает инвестиционный счет.
// После погашения взнос увеличивается на extra и сумму всех минимальных платежей.
func (e *Engine) SimulateCombined(debts []Debt, input CombinedInput) (CombinedResult, error) {
	if err := checkBudget("investment contribution", input.InvestmentContribution); err != nil {
		return CombinedResult{}, err
	}
	if err := checkBudget("initial investment balance", input.InitialInvestment); err != nil {
		return CombinedResult{}, err
	}
	if err := input.Returns.Validate(); err != nil {
		return CombinedResult{}, err
	}

	horizon := e.horizon(input.MaxMonths)
	payoff, err := e.SimulatePayoff(cloneDebts(debts), input.ExtraDebtPayment, input.Strategy, horizon)
	if err != nil {
		return CombinedResult{}, err
	}

	payoffMonths := payoff.MonthsSimulated
	if payoffMonths > horizon {
		payoffMonths = horizon
	}
	afterMonths := horizon - payoffMonths
	afterContribution := input.InvestmentContribution + input.ExtraDebtPayment + NewPortfolio(debts...).TotalMinimumPayments()

	account := newGrowth(input.Returns, input.InitialInvestment, horizon)
	for month := 0; month < payoffMonths; month++ {
		account.step(input.InvestmentContribution)
	}
	atDebtFree := account.balances

	for month := 0; month < afterMonths; month++ {
		account.step(afterContribution)
	}

	result := CombinedResult{
		Payoff:                       payoff,
		Horizon:                      horizon,
		MonthsToDebtFree:             payoff.MonthsToDebtFree,
		TotalInterestPaid:            payoff.TotalInterest,
		TotalDebtPayments:            payoff.TotalPayments,
		TotalInvestmentContributions: input.InvestmentContribution*float64(payoffMonths) + afterContribution*float64(afterMonths),
		InvestmentAtDebtFree:         atDebtFree,
		FinalInvestment:              account.balances,
		Investment:                   account.values,
		RemainingDebt:                payoff.RemainingBalance,
	}
	if afterMonths > 0 {
		result.ContributionAfterPayoff = afterContribution
	}

	return result, nil
}

type ScenarioKind string

const (
	ScenarioMinimumOnly ScenarioKind = "minimum_only"
	ScenarioDebtOnly    ScenarioKind = "debt_only"
	ScenarioBalanced    ScenarioKind = "balanced"
)

// ScenarioComparison — неизменяемая сводка одного сценария для отчета.
type ScenarioComparison struct {
	Kind                         ScenarioKind `json:"kind"`
	Name                         string       `json:"name"`
	Description                  string       `json:"description"`
	ExtraDebtPayment             float64      `json:"extra_debt_payment"`
	InvestmentContribution       float64      `json:"investment_contribution"`
	MonthsToDebtFree             *int         `json:"months_to_debt_free"`
	TotalInterestPaid            float64      `json:"total_interest_paid"`
	TotalDebtPayments            float64      `json:"total_debt_payments"`
	TotalInvestmentContributions float64      `json:"total_investment_contributions"`
	InvestmentAtDebtFree         Estimates    `json:"investment_at_debt_free"`
	InvestmentValue              Estimates    `json:"investment_value"`
	NetWorth                     Estimates    `json:"net_worth"`
	RemainingDebt                float64      `json:"remaining_debt"`
	Unresolved                   []string     `json:"unresolved"`
}

// NewScenarioComparison собирает сводку сценария из результата совместной симуляции.
func NewScenarioComparison(kind ScenarioKind, name, description string, input CombinedInput, result CombinedResult) ScenarioComparison {
	return ScenarioComparison{
		Kind:                         kind,
		Name:                         name,
		Description:                  description,
		ExtraDebtPayment:             input.ExtraDebtPayment,
		InvestmentContribution:       input.InvestmentContribution,
		MonthsToDebtFree:             result.MonthsToDebtFree,
		TotalInterestPaid:            result.TotalInterestPaid,
		TotalDebtPayments:            result.TotalDebtPayments,
		TotalInvestmentContributions: result.TotalInvestmentContributions,
		InvestmentAtDebtFree:         result.InvestmentAtDebtFree,
		InvestmentValue:              result.FinalInvestment,
		NetWorth:                     result.NetWorth(),
		RemainingDebt:                result.RemainingDebt,
		Unresolved:                   result.Payoff.Unresolved,
	}
}

// CreateScenario запускает совместную симуляцию и возвращает сводку сценария.
func (e *Engine) CreateScenario(debts []Debt, kind ScenarioKind, name, description string, input CombinedInput) (ScenarioComparison, error) {
	result, err := e.SimulateCombined(debts, input)
	if err != nil {
		return ScenarioComparison{}, fmt.Errorf("scenario %s: %w", kind, err)
	}

	return NewScenarioComparison(kind, name, description, input, result), nil
}
