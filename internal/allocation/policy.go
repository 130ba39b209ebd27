package allocation

import (
	"fmt"

	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/money"
)

// Thresholds — пороги ставок, по которым выбирается доля профицита на долг.
type Thresholds struct {
	VeryHighInterest float64 `yaml:"very_high_interest"`
	HighInterest     float64 `yaml:"high_interest"`
	ModerateInterest float64 `yaml:"moderate_interest"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		VeryHighInterest: 0.20,
		HighInterest:     0.15,
		ModerateInterest: 0.10,
	}
}

// Validate проверяет, что пороги неотрицательны и упорядочены по убыванию.
func (t Thresholds) Validate() error {
	if t.ModerateInterest < 0 {
		return fmt.Errorf("allocation thresholds cannot be negative")
	}
	if !(t.VeryHighInterest >= t.HighInterest && t.HighInterest >= t.ModerateInterest) {
		return fmt.Errorf("allocation thresholds must satisfy very_high >= high >= moderate")
	}
	return nil
}

// Presets — ожидаемые доходности по уровням риска.
type Presets struct {
	Conservative engine.Returns `yaml:"conservative"`
	Moderate     engine.Returns `yaml:"moderate"`
	Aggressive   engine.Returns `yaml:"aggressive"`
}

func DefaultPresets() Presets {
	return Presets{
		Conservative: engine.Returns{Low: 0.03, Medium: 0.05, High: 0.07},
		Moderate:     engine.Returns{Low: 0.04, Medium: 0.07, High: 0.10},
		Aggressive:   engine.Returns{Low: 0.05, Medium: 0.08, High: 0.12},
	}
}

func (p Presets) Validate() error {
	for _, returns := range []engine.Returns{p.Conservative, p.Moderate, p.Aggressive} {
		if err := returns.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Split — рекомендованное деление профицита с пояснениями.
type Split struct {
	DebtShare   float64  `json:"debt_share"`
	InvestShare float64  `json:"invest_share"`
	Reasoning   []string `json:"reasoning"`
}

// Fund — пример категории фонда для инвестиционной части.
type Fund struct {
	Category      string  `json:"category"`
	Share         float64 `json:"share"`
	ExampleTicker string  `json:"example_ticker"`
	Description   string  `json:"description"`
}

// Policy выбирает деление профицита по профилю и портфелю.
type Policy struct {
	engine     *engine.Engine
	thresholds Thresholds
	presets    Presets
}

// NewPolicy создает политику распределения.
func NewPolicy(eng *engine.Engine, thresholds Thresholds, presets Presets) *Policy {
	return &Policy{engine: eng, thresholds: thresholds, presets: presets}
}

// Recommend применяет правила по порядку: нет профицита, нет резерва, очень высокая ставка,
// высокая ставка, умеренная ставка, низкая ставка.
func (p *Policy) Recommend(profile cashflow.Profile, portfolio engine.Portfolio, surplus float64) Split {
	if surplus <= 0 {
		return Split{DebtShare: 1, Reasoning: []string{"No surplus available for extra payments or investing."}}
	}

	if !profile.HasAdequateEmergencyFund() {
		return Split{DebtShare: 1, Reasoning: []string{
			"Emergency fund is below the recommended level. Prioritizing debt payoff over investing. " +
				"Consider building emergency savings alongside debt reduction.",
		}}
	}

	highest, _ := portfolio.HighestRate()

	if portfolio.HasHighInterest(p.thresholds.VeryHighInterest) {
		return Split{DebtShare: 1, Reasoning: []string{fmt.Sprintf(
			"Very high-interest debt detected (%s at %s APR). Paying it down is a guaranteed return "+
				"above typical market returns. Allocating 100%% to debt payoff.",
			highest.Name, money.Percent(highest.AnnualRate),
		)}}
	}

	if portfolio.HasHighInterest(p.thresholds.HighInterest) {
		reasoning := []string{fmt.Sprintf(
			"High-interest debt detected (%s at %s APR). Strongly prioritizing debt payoff with a minimal investment allocation.",
			highest.Name, money.Percent(highest.AnnualRate),
		)}
		if profile.RiskTolerance == cashflow.Aggressive {
			return Split{DebtShare: 0.85, InvestShare: 0.15, Reasoning: reasoning}
		}
		return Split{DebtShare: 0.90, InvestShare: 0.10, Reasoning: reasoning}
	}

	average := money.Percent(portfolio.WeightedAverageRate())

	if portfolio.HasHighInterest(p.thresholds.ModerateInterest) {
		reasoning := []string{fmt.Sprintf(
			"Moderate-interest debt (weighted average %s APR). Using a balanced approach between debt payoff and investing.",
			average,
		)}
		switch profile.RiskTolerance {
		case cashflow.Aggressive:
			return Split{DebtShare: 0.60, InvestShare: 0.40, Reasoning: reasoning}
		case cashflow.Moderate:
			return Split{DebtShare: 0.70, InvestShare: 0.30, Reasoning: reasoning}
		default:
			return Split{DebtShare: 0.80, InvestShare: 0.20, Reasoning: reasoning}
		}
	}

	reasoning := []string{fmt.Sprintf(
		"Low-interest debt (weighted average %s APR). Expected market returns may exceed debt interest. "+
			"Allocating more to investing while maintaining debt payoff.",
		average,
	)}
	switch profile.RiskTolerance {
	case cashflow.Aggressive:
		return Split{DebtShare: 0.50, InvestShare: 0.50, Reasoning: reasoning}
	case cashflow.Moderate:
		return Split{DebtShare: 0.60, InvestShare: 0.40, Reasoning: reasoning}
	default:
		return Split{DebtShare: 0.70, InvestShare: 0.30, Reasoning: reasoning}
	}
}

// ExpectedReturns возвращает пресет доходностей для уровня риска.
func (p *Policy) ExpectedReturns(risk cashflow.RiskTolerance) engine.Returns {
	switch risk {
	case cashflow.Aggressive:
		return p.presets.Aggressive
	case cashflow.Moderate:
		return p.presets.Moderate
	default:
		return p.presets.Conservative
	}
}

// ShouldInvest сообщает, разумно ли инвестировать параллельно с погашением.
func (p *Policy) ShouldInvest(profile cashflow.Profile, portfolio engine.Portfolio) (bool, string) {
	if !profile.HasAdequateEmergencyFund() {
		return false, "Build an adequate emergency fund before investing. Focus on debt payoff and emergency savings first."
	}

	if portfolio.HasHighInterest(p.thresholds.VeryHighInterest) {
		highest, _ := portfolio.HighestRate()
		return false, fmt.Sprintf(
			"High-interest debt (%s at %s) returns more by paying it down than expected market returns. Focus 100%% on debt elimination.",
			highest.Name, money.Percent(highest.AnnualRate),
		)
	}

	returns := p.ExpectedReturns(profile.RiskTolerance)
	return true, fmt.Sprintf(
		"Debt interest rate (%s) is moderate. Expected market returns (%s medium estimate) may be comparable or better. "+
			"A balanced approach between debt payoff and investing is reasonable.",
		money.Percent(portfolio.WeightedAverageRate()), money.Percent(returns.Medium),
	)
}

// ValidateSplit проверяет пользовательское деление. Некорректная пара чисел возвращает
// engine.ErrInvalidAllocation, рискованная, но допустимая пара дает предупреждения.
func (p *Policy) ValidateSplit(profile cashflow.Profile, portfolio engine.Portfolio, debtShare, investShare float64) ([]string, error) {
	if err := p.engine.ValidateSplit(debtShare, investShare); err != nil {
		return nil, err
	}

	warnings := make([]string, 0)
	if investShare > 0 && !profile.HasAdequateEmergencyFund() {
		warnings = append(warnings, "WARNING: investing without an adequate emergency fund is risky. Consider building emergency savings first.")
	}
	if investShare > 0.1 && portfolio.HasHighInterest(p.thresholds.VeryHighInterest) {
		warnings = append(warnings, "WARNING: investing while carrying very high-interest debt may not be optimal. "+
			"The guaranteed return from paying down debt likely exceeds expected market returns.")
	}
	return warnings, nil
}

// Funds возвращает примерную структуру инвестиционной части для уровня риска.
func Funds(risk cashflow.RiskTolerance) []Fund {
	switch risk {
	case cashflow.Aggressive:
		return []Fund{
			{Category: "Total Market Index", Share: 0.60, ExampleTicker: "VTI", Description: "Broad U.S. stock market exposure"},
			{Category: "International Stock Index", Share: 0.25, ExampleTicker: "VXUS", Description: "International stock market diversification"},
			{Category: "Bond Index", Share: 0.15, ExampleTicker: "BND", Description: "U.S. investment-grade bonds for some stability"},
		}
	case cashflow.Moderate:
		return []Fund{
			{Category: "Total Market Index", Share: 0.50, ExampleTicker: "VTI", Description: "Broad U.S. stock market exposure"},
			{Category: "Bond Index", Share: 0.30, ExampleTicker: "BND", Description: "U.S. investment-grade bonds for stability"},
			{Category: "International Stock Index", Share: 0.20, ExampleTicker: "VXUS", Description: "International stock market diversification"},
		}
	default:
		return []Fund{
			{Category: "Bond Index", Share: 0.50, ExampleTicker: "BND", Description: "Broad U.S. investment-grade bonds for stability"},
			{Category: "Total Market Index", Share: 0.40, ExampleTicker: "VTI", Description: "Broad U.S. stock market exposure"},
			{Category: "International Bonds", Share: 0.10, ExampleTicker: "BNDX", Description: "International investment-grade bonds for diversification"},
		}
	}
}
