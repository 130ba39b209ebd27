package engine

import "fmt"

// Returns — годовые доходности для низкой, средней и высокой оценки.
type Returns struct {
	Low    float64 `json:"low" yaml:"low"`
	Medium float64 `json:"medium" yaml:"medium"`
	High   float64 `json:"high" yaml:"high"`
}

// Validate проверяет, что доходности конечны и не ниже -100%.
func (r Returns) Validate() error {
	for _, value := range []float64{r.Low, r.Medium, r.High} {
		if !isFinite(value) || value < -1 {
			return fmt.Errorf("%w: annual return must be a finite number not below -1", ErrInvalidAllocation)
		}
	}
	return nil
}

// Estimates — тройка значений для низкой, средней и высокой оценки.
type Estimates struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// Sub вычитает одно и то же значение из каждой оценки.
func (e Estimates) Sub(value float64) Estimates {
	return Estimates{Low: e.Low - value, Medium: e.Medium - value, High: e.High - value}
}

// Trajectories хранит помесячные значения инвестиционного счета для трех оценок.
type Trajectories struct {
	Low    []float64 `json:"low"`
	Medium []float64 `json:"medium"`
	High   []float64 `json:"high"`
}

// SimulateGrowth моделирует рост счета: взнос в начале месяца, затем начисление доходности.
func SimulateGrowth(contribution, annualReturn float64, months int, initialBalance float64) []float64 {
	if months <= 0 {
		return []float64{}
	}

	monthly := annualReturn / 12
	balance := initialBalance
	values := make([]float64, 0, months)
	for month := 0; month < months; month++ {
		balance += contribution
		balance *= 1 + monthly
		values = append(values, balance)
	}
	return values
}

// growth ведет три параллельных счета с одинаковыми взносами и разной доходностью.
type growth struct {
	monthly  Returns
	balances Estimates
	values   Trajectories
}

func newGrowth(returns Returns, initial float64, months int) *growth {
	return &growth{
		monthly:  Returns{Low: returns.Low / 12, Medium: returns.Medium / 12, High: returns.High / 12},
		balances: Estimates{Low: initial, Medium: initial, High: initial},
		values: Trajectories{
			Low:    make([]float64, 0, months),
			Medium: make([]float64, 0, months),
			High:   make([]float64, 0, months),
		},
	}
}

func (g *growth) step(contribution float64) {
	g.balances.Low = (g.balances.Low + contribution) * (1 + g.monthly.Low)
	g.balances.Medium = (g.balances.Medium + contribution) * (1 + g.monthly.Medium)
	g.balances.High = (g.balances.High + contribution) * (1 + g.monthly.High)

	g.values.Low = append(g.values.Low, g.balances.Low)
	g.values.Medium = append(g.values.Medium, g.balances.Medium)
	g.values.High = append(g.values.High, g.balances.High)
}
