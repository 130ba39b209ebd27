package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ScenarioSet — три стандартных сценария для сравнения.
type ScenarioSet struct {
	MinimumOnly ScenarioComparison `json:"minimum_only"`
	DebtOnly    ScenarioComparison `json:"debt_only"`
	Balanced    ScenarioComparison `json:"balanced"`
}

// All возвращает сценарии в порядке отображения.
func (s ScenarioSet) All() []ScenarioComparison {
	return []ScenarioComparison{s.MinimumOnly, s.DebtOnly, s.Balanced}
}

// CompareScenarios считает три сценария: только минимальные платежи, 100% в долг и сбалансированный.
// Сценарии независимы и выполняются параллельно, каждый на своей копии портфеля.
func (e *Engine) CompareScenarios(debts []Debt, surplus float64, strategy Strategy, returns Returns, initialInvestment float64) (ScenarioSet, error) {
	if err := checkBudget("monthly surplus", surplus); err != nil {
		return ScenarioSet{}, err
	}
	if !strategy.Valid() {
		return ScenarioSet{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
	if err := checkDebts(debts); err != nil {
		return ScenarioSet{}, err
	}

	debtShare := e.settings.BalancedDebtShare
	investShare := 1 - debtShare
	base := CombinedInput{
		Strategy:          strategy,
		Returns:           returns,
		InitialInvestment: initialInvestment,
		MaxMonths:         e.settings.MaxMonths,
	}

	minimumOnly := base

	debtOnly := base
	debtOnly.ExtraDebtPayment = surplus

	balanced := base
	balanced.ExtraDebtPayment = surplus * debtShare
	balanced.InvestmentContribution = surplus * investShare

	var set ScenarioSet
	var group errgroup.Group

	group.Go(func() error {
		scenario, err := e.CreateScenario(cloneDebts(debts), ScenarioMinimumOnly,
			"Minimum Payments Only",
			"Pay only minimum payments on all debts with no extra allocation.",
			minimumOnly)
		set.MinimumOnly = scenario
		return err
	})
	group.Go(func() error {
		scenario, err := e.CreateScenario(cloneDebts(debts), ScenarioDebtOnly,
			"100% Debt Payoff",
			"Allocate 100% of surplus to extra debt payments.",
			debtOnly)
		set.DebtOnly = scenario
		return err
	})
	group.Go(func() error {
		scenario, err := e.CreateScenario(cloneDebts(debts), ScenarioBalanced,
			fmt.Sprintf("Balanced (%.0f%% Debt / %.0f%% Invest)", debtShare*100, investShare*100),
			fmt.Sprintf("Allocate %.0f%% of surplus to debt and %.0f%% to investing.", debtShare*100, investShare*100),
			balanced)
		set.Balanced = scenario
		return err
	})

	if err := group.Wait(); err != nil {
		return ScenarioSet{}, err
	}

	return set, nil
}
