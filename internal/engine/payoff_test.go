package engine

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

// TestSimulatePayoffZeroInterest проверяет точное погашение без процентов.
func TestSimulatePayoffZeroInterest(t *testing.T) {
	e := newTestEngine(t)

	debts := []Debt{{Name: "Friend", Balance: 1000, MinimumPayment: 100}}
	result, err := e.SimulatePayoff(debts, 0, StrategyAvalanche, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.MonthsToDebtFree == nil || *result.MonthsToDebtFree != 10 {
		t.Fatalf("expected payoff in 10 months, got %v", result.MonthsToDebtFree)
	}
	if result.TotalInterest != 0 {
		t.Fatalf("expected zero interest, got %.4f", result.TotalInterest)
	}
	if !almostEqual(result.TotalPayments, 1000) {
		t.Fatalf("expected total payments 1000, got %.4f", result.TotalPayments)
	}
	if len(result.Snapshots) != 10 {
		t.Fatalf("expected 10 snapshots, got %d", len(result.Snapshots))
	}

	result, err = e.SimulatePayoff(debts, 200, StrategyAvalanche, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.MonthsToDebtFree == nil || *result.MonthsToDebtFree != 4 {
		t.Fatalf("expected payoff in 4 months with extra, got %v", result.MonthsToDebtFree)
	}
	if last := result.Snapshots[3]; !almostEqual(last.UnallocatedExtra, 200) {
		t.Fatalf("expected unused extra in the last month, got %.4f", last.UnallocatedExtra)
	}
}

// TestSimulatePayoffHorizon проверяет, что неамортизируемый долг не зацикливает симуляцию.
func TestSimulatePayoffHorizon(t *testing.T) {
	e := newTestEngine(t)

	debts := []Debt{{Name: "Card", Type: DebtTypeCreditCard, Balance: 1000, AnnualRate: 0.12, MinimumPayment: 5}}
	result, err := e.SimulatePayoff(debts, 0, StrategyAvalanche, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.MonthsToDebtFree != nil {
		t.Fatalf("expected never pays off, got %d", *result.MonthsToDebtFree)
	}
	if !result.HorizonExceeded {
		t.Fatal("expected horizon exceeded")
	}
	if result.MonthsSimulated != DefaultMaxMonths || result.MonthsToPayoff() != DefaultMaxMonths {
		t.Fatalf("expected %d simulated months, got %d", DefaultMaxMonths, result.MonthsSimulated)
	}
	if !reflect.DeepEqual(result.Unresolved, []string{"Card"}) {
		t.Fatalf("expected Card flagged as unresolved, got %v", result.Unresolved)
	}
	if result.RemainingBalance <= 1000 {
		t.Fatalf("expected growing balance, got %.2f", result.RemainingBalance)
	}
	if math.IsInf(result.TotalInterest, 0) || math.IsNaN(result.TotalInterest) {
		t.Fatalf("expected finite interest, got %v", result.TotalInterest)
	}
}

// TestSimulatePayoffExtraCoversNegativeAmortization проверяет, что extra может погасить долг, растущий на минимуме.
func TestSimulatePayoffExtraCoversNegativeAmortization(t *testing.T) {
	e := newTestEngine(t)

	debts := []Debt{{Name: "Card", Balance: 1000, AnnualRate: 0.12, MinimumPayment: 5}}
	result, err := e.SimulatePayoff(debts, 100, StrategyAvalanche, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.MonthsToDebtFree == nil {
		t.Fatal("expected payoff with extra")
	}
	if len(result.Unresolved) != 1 {
		t.Fatalf("expected advisory unresolved flag to stay, got %v", result.Unresolved)
	}
}

// TestSimulatePayoffMaxMonths проверяет ограничение горизонта.
func TestSimulatePayoffMaxMonths(t *testing.T) {
	e := newTestEngine(t)

	debts := []Debt{{Name: "Card", Balance: 1000, AnnualRate: 0.12, MinimumPayment: 5}}

	result, err := e.SimulatePayoff(debts, 0, StrategySnowball, 24)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.MonthsSimulated != 24 {
		t.Fatalf("expected 24 months, got %d", result.MonthsSimulated)
	}

	result, err = e.SimulatePayoff(debts, 0, StrategySnowball, 5000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.MonthsSimulated != DefaultMaxMonths {
		t.Fatalf("expected horizon capped at %d, got %d", DefaultMaxMonths, result.MonthsSimulated)
	}
}

// TestSimulatePayoffConservation проверяет баланс каждой строки ведомости и неотрицательность остатков.
func TestSimulatePayoffConservation(t *testing.T) {
	e := newTestEngine(t)

	for _, strategy := range []Strategy{StrategyAvalanche, StrategySnowball, StrategyHybrid} {
		debts := sampleDebts()
		result, err := e.SimulatePayoff(debts, 500, strategy, DefaultMaxMonths)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", strategy, err)
		}
		if result.MonthsToDebtFree == nil {
			t.Fatalf("%s: expected payoff", strategy)
		}

		previous := make(map[string]float64, len(debts))
		for _, debt := range debts {
			previous[debt.Name] = debt.Balance
		}

		for _, snapshot := range result.Snapshots {
			for _, line := range snapshot.Payments {
				if math.Abs(line.Payment-(line.Interest+line.Principal)) > 1e-9 {
					t.Fatalf("%s month %d: payment %.4f != interest %.4f + principal %.4f",
						strategy, snapshot.Month, line.Payment, line.Interest, line.Principal)
				}
				if line.RemainingBalance < 0 {
					t.Fatalf("%s month %d: negative balance %.4f", strategy, snapshot.Month, line.RemainingBalance)
				}
				if line.Principal > previous[line.Name]+1e-9 {
					t.Fatalf("%s month %d: principal %.4f exceeds balance %.4f",
						strategy, snapshot.Month, line.Principal, previous[line.Name])
				}
				if math.Abs(previous[line.Name]+line.Interest-line.Payment-line.RemainingBalance) > 1e-6 {
					t.Fatalf("%s month %d: balance does not reconcile for %s", strategy, snapshot.Month, line.Name)
				}
				previous[line.Name] = line.RemainingBalance
			}
		}

		for name, balance := range previous {
			if balance != 0 {
				t.Fatalf("%s: expected %s closed, got %.4f", strategy, name, balance)
			}
		}
	}
}

// TestSimulatePayoffSnapshotOrder проверяет, что строки ведомости идут в порядке добавления.
func TestSimulatePayoffSnapshotOrder(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.SimulatePayoff(sampleDebts(), 500, StrategyAvalanche, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	first := result.Snapshots[0]
	names := make([]string, 0, len(first.Payments))
	for _, line := range first.Payments {
		names = append(names, line.Name)
	}

	want := []string{"High Interest Small", "Low Interest Large", "Medium Interest Medium"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

// TestSimulatePayoffDoesNotMutateInput проверяет изоляцию входных данных.
func TestSimulatePayoffDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)

	debts := sampleDebts()
	original := sampleDebts()

	if _, err := e.SimulatePayoff(debts, 500, StrategyHybrid, DefaultMaxMonths); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(debts, original) {
		t.Fatalf("expected input untouched, got %+v", debts)
	}
}

// TestSimulatePayoffDeterministic проверяет воспроизводимость результата.
func TestSimulatePayoffDeterministic(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.SimulatePayoff(sampleDebts(), 300, StrategySnowball, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := e.SimulatePayoff(sampleDebts(), 300, StrategySnowball, DefaultMaxMonths)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical results for identical inputs")
	}
}

// TestSimulatePayoffInvalid проверяет отказ при некорректных параметрах.
func TestSimulatePayoffInvalid(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.SimulatePayoff(sampleDebts(), -5, StrategyAvalanche, 0); !errors.Is(err, ErrInvalidAllocation) {
		t.Fatalf("expected ErrInvalidAllocation, got %v", err)
	}
	if _, err := e.SimulatePayoff(sampleDebts(), 5, Strategy(""), 0); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("expected ErrInvalidStrategy, got %v", err)
	}

	debts := []Debt{{Name: "bad", Balance: math.NaN(), MinimumPayment: 10}}
	if _, err := e.SimulatePayoff(debts, 0, StrategyAvalanche, 0); !errors.Is(err, ErrInvalidPortfolio) {
		t.Fatalf("expected ErrInvalidPortfolio, got %v", err)
	}
}

// TestCalculateInterestSaved проверяет, что extra не увеличивает проценты.
func TestCalculateInterestSaved(t *testing.T) {
	e := newTestEngine(t)

	comparison, err := e.CalculateInterestSaved(sampleDebts(), 500, StrategyAvalanche)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	saved, ok := comparison.Saved()
	if !ok {
		t.Fatal("expected both runs resolved")
	}
	if saved <= 0 {
		t.Fatalf("expected positive savings, got %.2f", saved)
	}
	if comparison.WithExtra > comparison.MinimumOnly {
		t.Fatalf("expected extra to reduce interest: %.2f > %.2f", comparison.WithExtra, comparison.MinimumOnly)
	}
}

// TestCalculateInterestSavedUnresolved проверяет флаг неполного прогона.
func TestCalculateInterestSavedUnresolved(t *testing.T) {
	e := newTestEngine(t)

	debts := []Debt{{Name: "Card", Balance: 1000, AnnualRate: 0.12, MinimumPayment: 5}}
	comparison, err := e.CalculateInterestSaved(debts, 100, StrategyAvalanche)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if comparison.MinimumOnlyResolved {
		t.Fatal("expected minimum-only run unresolved")
	}
	if !comparison.WithExtraResolved {
		t.Fatal("expected run with extra resolved")
	}
	if _, ok := comparison.Saved(); ok {
		t.Fatal("expected savings to be undefined")
	}
}

// TestDebtMinimumOnlyEstimates проверяет аналитическую оценку срока погашения.
func TestDebtMinimumOnlyEstimates(t *testing.T) {
	debt := Debt{Name: "Friend", Balance: 1000, MinimumPayment: 100}
	months := debt.MonthsToPayoffMinimumOnly()
	if months == nil || !almostEqual(*months, 10) {
		t.Fatalf("expected 10 months, got %v", months)
	}

	card := Debt{Name: "Card", Balance: 1000, AnnualRate: 0.12, MinimumPayment: 5}
	if card.MonthsToPayoffMinimumOnly() != nil || card.TotalInterestMinimumOnly() != nil {
		t.Fatal("expected nil estimates for non-amortizing debt")
	}

	warnings := card.Validate()
	found := false
	for _, warning := range warnings {
		if strings.Contains(warning, "CRITICAL") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected critical warning, got %v", warnings)
	}
}

// TestPortfolioAggregates проверяет сводные показатели портфеля.
func TestPortfolioAggregates(t *testing.T) {
	portfolio := NewPortfolio(sampleDebts()...)

	if portfolio.TotalBalance() != 16000 {
		t.Fatalf("expected total balance 16000, got %.2f", portfolio.TotalBalance())
	}
	if portfolio.TotalMinimumPayments() != 300 {
		t.Fatalf("expected total minimums 300, got %.2f", portfolio.TotalMinimumPayments())
	}
	if !almostEqual(portfolio.WeightedAverageRate(), 1250.0/16000) {
		t.Fatalf("unexpected weighted rate %.6f", portfolio.WeightedAverageRate())
	}

	highest, ok := portfolio.HighestRate()
	if !ok || highest.Name != "High Interest Small" {
		t.Fatalf("unexpected highest rate debt %+v", highest)
	}
	if !portfolio.HasHighInterest(0.2) || portfolio.HasHighInterest(0.3) {
		t.Fatal("unexpected high interest detection")
	}

	clone := portfolio.Clone()
	clone.Debts[0].Balance = 1
	if portfolio.Debts[0].Balance != 1000 {
		t.Fatal("expected clone to be independent")
	}
}
