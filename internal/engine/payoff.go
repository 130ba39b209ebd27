package engine

import (
	"fmt"
	"math"
)

// DebtPayment — строка ежемесячной ведомости по одному долгу.
type DebtPayment struct {
	Name             string  `json:"name"`
	Payment          float64 `json:"payment"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	Extra            float64 `json:"extra"`
	RemainingBalance float64 `json:"remaining_balance"`
	Closed           bool    `json:"closed"`
}

// MonthlySnapshot агрегирует платежи за месяц по всем открытым долгам.
type MonthlySnapshot struct {
	Month            int           `json:"month"`
	Payments         []DebtPayment `json:"payments"`
	TotalPayment     float64       `json:"total_payment"`
	TotalInterest    float64       `json:"total_interest"`
	TotalPrincipal   float64       `json:"total_principal"`
	RemainingBalance float64       `json:"remaining_balance"`
	UnallocatedExtra float64       `json:"unallocated_extra"`
}

// PayoffResult — траектория погашения портфеля.
// MonthsToDebtFree равен nil, если горизонт исчерпан раньше полного погашения.
type PayoffResult struct {
	Snapshots        []MonthlySnapshot `json:"snapshots"`
	TotalInterest    float64           `json:"total_interest"`
	TotalPayments    float64           `json:"total_payments"`
	MonthsSimulated  int               `json:"months_simulated"`
	MonthsToDebtFree *int              `json:"months_to_debt_free"`
	HorizonExceeded  bool              `json:"horizon_exceeded"`
	RemainingBalance float64           `json:"remaining_balance"`
	Unresolved       []string          `json:"unresolved"`
}

// MonthsToPayoff возвращает срок погашения либо горизонт, если погашения не произошло.
func (r PayoffResult) MonthsToPayoff() int {
	if r.MonthsToDebtFree != nil {
		return *r.MonthsToDebtFree
	}
	return r.MonthsSimulated
}

// SimulatePayoff помесячно гасит портфель: проценты, минимальные платежи, затем каскад extra.
// Входной срез не изменяется, симуляция работает на собственной копии балансов.
func (e *Engine) SimulatePayoff(debts []Debt, extraPayment float64, strategy Strategy, maxMonths int) (PayoffResult, error) {
	if err := checkBudget("extra payment", extraPayment); err != nil {
		return PayoffResult{}, err
	}
	if !strategy.Valid() {
		return PayoffResult{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
	if err := checkDebts(debts); err != nil {
		return PayoffResult{}, err
	}

	horizon := e.horizon(maxMonths)
	tolerance := e.settings.Tolerance
	book := newLedger(debts)

	result := PayoffResult{
		Snapshots:  make([]MonthlySnapshot, 0),
		Unresolved: unresolvedDebts(book, tolerance),
	}

	interest := make([]float64, len(debts))
	minimum := make([]float64, len(debts))
	remaining := make([]float64, len(debts))

	for month := 1; month <= horizon; month++ {
		if book.settled(tolerance) {
			break
		}

		order := e.order(book, strategy, tolerance)
		for _, idx := range order {
			interest[idx] = book.balances[idx] * book.rates[idx] / 12
			due := book.balances[idx] + interest[idx]
			minimum[idx] = math.Min(book.minimums[idx], due)
			remaining[idx] = due - minimum[idx]
		}

		extra, left := waterfall(order, remaining, extraPayment)

		snapshot := MonthlySnapshot{
			Month:            month,
			Payments:         make([]DebtPayment, 0, len(order)),
			UnallocatedExtra: left,
		}

		// Ведомость выводится в порядке добавления долгов, а не в порядке приоритета.
		for idx := range book.balances {
			if book.balances[idx] <= tolerance {
				continue
			}

			payment := minimum[idx] + extra[idx]
			balance := remaining[idx] - extra[idx]
			if balance <= tolerance {
				payment += math.Max(0, balance)
				balance = 0
			}

			line := DebtPayment{
				Name:             book.names[idx],
				Payment:          payment,
				Interest:         interest[idx],
				Principal:        payment - interest[idx],
				Extra:            extra[idx],
				RemainingBalance: balance,
				Closed:           balance == 0,
			}
			book.balances[idx] = balance

			snapshot.Payments = append(snapshot.Payments, line)
			snapshot.TotalPayment += line.Payment
			snapshot.TotalInterest += line.Interest
			snapshot.TotalPrincipal += line.Principal
		}

		snapshot.RemainingBalance = book.total()
		result.TotalInterest += snapshot.TotalInterest
		result.TotalPayments += snapshot.TotalPayment
		result.MonthsSimulated = month
		result.Snapshots = append(result.Snapshots, snapshot)
	}

	if book.settled(tolerance) {
		months := result.MonthsSimulated
		result.MonthsToDebtFree = &months
	} else {
		result.HorizonExceeded = true
	}
	result.RemainingBalance = book.total()

	return result, nil
}

// InterestComparison — проценты с дополнительным платежом и без него.
// Суммы конечны всегда: если прогон не погасил долг, сумма ограничена горизонтом и флаг Resolved сброшен.
type InterestComparison struct {
	WithExtra           float64 `json:"with_extra"`
	MinimumOnly         float64 `json:"minimum_only"`
	WithExtraResolved   bool    `json:"with_extra_resolved"`
	MinimumOnlyResolved bool    `json:"minimum_only_resolved"`
}

// Saved возвращает экономию на процентах; ok=false, если хотя бы один прогон не завершился погашением.
func (c InterestComparison) Saved() (float64, bool) {
	if !c.WithExtraResolved || !c.MinimumOnlyResolved {
		return 0, false
	}
	return c.MinimumOnly - c.WithExtra, true
}

// CalculateInterestSaved запускает два независимых прогона: с extra и только с минимальными платежами.
func (e *Engine) CalculateInterestSaved(debts []Debt, extraPayment float64, strategy Strategy) (InterestComparison, error) {
	withExtra, err := e.SimulatePayoff(cloneDebts(debts), extraPayment, strategy, e.settings.MaxMonths)
	if err != nil {
		return InterestComparison{}, err
	}

	minimumOnly, err := e.SimulatePayoff(cloneDebts(debts), 0, strategy, e.settings.MaxMonths)
	if err != nil {
		return InterestComparison{}, err
	}

	return InterestComparison{
		WithExtra:           withExtra.TotalInterest,
		MinimumOnly:         minimumOnly.TotalInterest,
		WithExtraResolved:   withExtra.MonthsToDebtFree != nil,
		MinimumOnlyResolved: minimumOnly.MonthsToDebtFree != nil,
	}, nil
}

func unresolvedDebts(book *ledger, tolerance float64) []string {
	names := make([]string, 0)
	for idx, balance := range book.balances {
		if balance <= tolerance {
			continue
		}
		if book.minimums[idx] <= balance*book.rates[idx]/12 {
			names = append(names, book.names[idx])
		}
	}
	return names
}
