package engine

import (
	"fmt"
	"sort"
	"strings"
)

type Strategy string

const (
	StrategyAvalanche Strategy = "avalanche"
	StrategySnowball  Strategy = "snowball"
	StrategyHybrid    Strategy = "hybrid"
)

// ParseStrategy приводит строковый тег к стратегии.
func ParseStrategy(value string) (Strategy, error) {
	strategy := Strategy(strings.ToLower(strings.TrimSpace(value)))
	if !strategy.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, value)
	}

	return strategy, nil
}

func (s Strategy) Valid() bool {
	switch s {
	case StrategyAvalanche, StrategySnowball, StrategyHybrid:
		return true
	default:
		return false
	}
}

// StrategyDescription возвращает человекочитаемое описание стратегии.
func StrategyDescription(strategy Strategy) string {
	switch strategy {
	case StrategyAvalanche:
		return "Avalanche: extra payments go to the debt with the highest interest rate first. " +
			"This minimizes the total interest paid over the life of the plan."
	case StrategySnowball:
		return "Snowball: extra payments go to the debt with the smallest balance first. " +
			"Accounts close sooner, which keeps motivation high at a slightly higher interest cost."
	case StrategyHybrid:
		return "Hybrid: small balances below the threshold are cleared first (snowball), " +
			"then the remaining debts are attacked by interest rate (avalanche)."
	default:
		return ""
	}
}

// Prioritize возвращает имена долгов с положительным балансом в порядке погашения.
func (e *Engine) Prioritize(debts []Debt, strategy Strategy) ([]string, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
	if err := checkDebts(debts); err != nil {
		return nil, err
	}

	book := newLedger(debts)
	order := e.order(book, strategy, 0)

	names := make([]string, 0, len(order))
	for _, idx := range order {
		names = append(names, book.names[idx])
	}
	return names, nil
}

// order сортирует индексы долгов с балансом выше floor. Сортировка стабильна, поэтому
// при полном совпадении ключей сохраняется порядок добавления.
func (e *Engine) order(book *ledger, strategy Strategy, floor float64) []int {
	open := book.openIndices(floor)
	balances := book.balances
	rates := book.rates

	avalanche := func(a, b int) bool {
		if rates[a] != rates[b] {
			return rates[a] > rates[b]
		}
		return balances[a] > balances[b]
	}
	snowball := func(a, b int) bool {
		if balances[a] != balances[b] {
			return balances[a] < balances[b]
		}
		return rates[a] > rates[b]
	}

	var less func(a, b int) bool
	switch strategy {
	case StrategySnowball:
		less = snowball
	case StrategyHybrid:
		threshold := e.settings.HybridBalanceThreshold
		less = func(a, b int) bool {
			smallA := balances[a] < threshold
			smallB := balances[b] < threshold
			if smallA != smallB {
				return smallA
			}
			if smallA {
				return snowball(a, b)
			}
			return avalanche(a, b)
		}
	default:
		less = avalanche
	}

	sort.SliceStable(open, func(i, j int) bool {
		return less(open[i], open[j])
	})
	return open
}

// ledger хранит рабочие балансы одного прогона. Каждый прогон владеет своей копией.
type ledger struct {
	names    []string
	rates    []float64
	minimums []float64
	balances []float64
}

func newLedger(debts []Debt) *ledger {
	book := &ledger{
		names:    make([]string, len(debts)),
		rates:    make([]float64, len(debts)),
		minimums: make([]float64, len(debts)),
		balances: make([]float64, len(debts)),
	}

	for i, debt := range debts {
		book.names[i] = strings.TrimSpace(debt.Name)
		book.rates[i] = debt.AnnualRate
		book.minimums[i] = debt.MinimumPayment
		book.balances[i] = debt.Balance
	}
	return book
}

func (l *ledger) openIndices(floor float64) []int {
	open := make([]int, 0, len(l.balances))
	for i, balance := range l.balances {
		if balance > floor {
			open = append(open, i)
		}
	}
	return open
}

func (l *ledger) settled(tolerance float64) bool {
	for _, balance := range l.balances {
		if balance > tolerance {
			return false
		}
	}
	return true
}

func (l *ledger) total() float64 {
	total := 0.0
	for _, balance := range l.balances {
		if balance > 0 {
			total += balance
		}
	}
	return total
}
