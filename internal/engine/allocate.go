package engine

import (
	"fmt"
	"math"
)

// Allocation — результат распределения дополнительного бюджета за один период.
// Surplus содержит остаток бюджета, который не понадобился ни одному долгу.
type Allocation struct {
	Order   []string           `json:"order"`
	Extra   map[string]float64 `json:"extra"`
	Surplus float64            `json:"surplus"`
}

// AllocateExtra распределяет дополнительный бюджет каскадом по порядку стратегии.
// Каждый долг получает не больше остатка после начисления процентов и минимального платежа.
func (e *Engine) AllocateExtra(debts []Debt, budget float64, strategy Strategy) (Allocation, error) {
	if err := checkBudget("extra payment budget", budget); err != nil {
		return Allocation{}, err
	}
	if !strategy.Valid() {
		return Allocation{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
	if err := checkDebts(debts); err != nil {
		return Allocation{}, err
	}

	book := newLedger(debts)
	order := e.order(book, strategy, 0)

	remaining := make([]float64, len(debts))
	for _, idx := range order {
		due := book.balances[idx] * (1 + book.rates[idx]/12)
		remaining[idx] = math.Max(0, due-math.Min(book.minimums[idx], due))
	}

	extra, left := waterfall(order, remaining, budget)

	allocation := Allocation{
		Order:   make([]string, 0, len(order)),
		Extra:   make(map[string]float64, len(order)),
		Surplus: left,
	}
	for _, idx := range order {
		allocation.Order = append(allocation.Order, book.names[idx])
		allocation.Extra[book.names[idx]] = extra[idx]
	}
	return allocation, nil
}

// SplitSurplus делит профицит между долгом и инвестициями по паре долей.
func (e *Engine) SplitSurplus(surplus, debtShare, investShare float64) (float64, float64, error) {
	if err := checkBudget("surplus", surplus); err != nil {
		return 0, 0, err
	}
	if err := e.ValidateSplit(debtShare, investShare); err != nil {
		return 0, 0, err
	}

	return surplus * debtShare, surplus * investShare, nil
}

// ValidateSplit проверяет, что доли лежат в [0,1] и в сумме дают единицу.
func (e *Engine) ValidateSplit(debtShare, investShare float64) error {
	if !isFinite(debtShare) || debtShare < 0 || debtShare > 1 {
		return fmt.Errorf("%w: debt share must be between 0 and 1", ErrInvalidAllocation)
	}
	if !isFinite(investShare) || investShare < 0 || investShare > 1 {
		return fmt.Errorf("%w: investment share must be between 0 and 1", ErrInvalidAllocation)
	}
	if math.Abs(debtShare+investShare-1) > e.settings.SplitTolerance {
		return fmt.Errorf("%w: shares must sum to 1 (got %.4f)", ErrInvalidAllocation, debtShare+investShare)
	}
	return nil
}

func waterfall(order []int, remaining []float64, budget float64) ([]float64, float64) {
	extra := make([]float64, len(remaining))
	left := budget

	for _, idx := range order {
		if left <= 0 {
			break
		}

		amount := math.Min(remaining[idx], left)
		if amount <= 0 {
			continue
		}

		extra[idx] = amount
		left -= amount
	}

	return extra, math.Max(0, left)
}

func checkBudget(name string, value float64) error {
	if !isFinite(value) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidAllocation, name)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s cannot be negative", ErrInvalidAllocation, name)
	}
	return nil
}
