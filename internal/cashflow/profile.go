package cashflow

import (
	"fmt"
	"strings"

	"example.com/debt-planner/backend/internal/money"
)

const (
	DefaultEmergencyFundMonths = 3.0
	DefaultHorizonMonths       = 60
)

type PayFrequency string

const (
	Weekly      PayFrequency = "weekly"
	BiWeekly    PayFrequency = "bi_weekly"
	SemiMonthly PayFrequency = "semi_monthly"
	Monthly     PayFrequency = "monthly"
	Annually    PayFrequency = "annually"
)

// ParsePayFrequency приводит строку к периодичности выплат; пустое значение считается monthly.
func ParsePayFrequency(value string) (PayFrequency, bool) {
	switch normalized := PayFrequency(strings.ToLower(strings.TrimSpace(value))); normalized {
	case "":
		return Monthly, true
	case Weekly, BiWeekly, SemiMonthly, Monthly, Annually:
		return normalized, true
	default:
		return "", false
	}
}

// MonthlyMultiplier возвращает число выплат в среднем месяце.
func (f PayFrequency) MonthlyMultiplier() float64 {
	switch f {
	case Weekly:
		return 52.0 / 12.0
	case BiWeekly:
		return 26.0 / 12.0
	case SemiMonthly:
		return 2
	case Annually:
		return 1.0 / 12.0
	default:
		return 1
	}
}

type RiskTolerance string

const (
	Conservative RiskTolerance = "conservative"
	Moderate     RiskTolerance = "moderate"
	Aggressive   RiskTolerance = "aggressive"
)

// ParseRiskTolerance приводит строку к уровню риска; пустое значение считается conservative.
func ParseRiskTolerance(value string) (RiskTolerance, bool) {
	switch normalized := RiskTolerance(strings.ToLower(strings.TrimSpace(value))); normalized {
	case "":
		return Conservative, true
	case Conservative, Moderate, Aggressive:
		return normalized, true
	default:
		return "", false
	}
}

// IncomeStream — один источник дохода; Amount указан за период выплаты.
type IncomeStream struct {
	Name      string
	Amount    float64
	Frequency PayFrequency
}

func (s IncomeStream) MonthlyAmount() float64 {
	return s.Amount * s.Frequency.MonthlyMultiplier()
}

// Expense — ежемесячный расход. Essential отличает обязательные траты от переменных.
type Expense struct {
	Name      string
	Amount    float64
	Essential bool
}

// Profile — финансовый профиль пользователя.
type Profile struct {
	Income              []IncomeStream
	Expenses            []Expense
	CurrentSavings      float64
	CurrentInvestments  float64
	RiskTolerance       RiskTolerance
	HorizonMonths       int
	EmergencyFundMonths float64
}

// NewProfile возвращает профиль с параметрами по умолчанию.
func NewProfile() Profile {
	return Profile{
		RiskTolerance:       Conservative,
		HorizonMonths:       DefaultHorizonMonths,
		EmergencyFundMonths: DefaultEmergencyFundMonths,
	}
}

func (p Profile) TotalMonthlyIncome() float64 {
	total := 0.0
	for _, stream := range p.Income {
		total += stream.MonthlyAmount()
	}
	return total
}

func (p Profile) TotalMonthlyExpenses() float64 {
	total := 0.0
	for _, expense := range p.Expenses {
		total += expense.Amount
	}
	return total
}

func (p Profile) EssentialMonthlyExpenses() float64 {
	total := 0.0
	for _, expense := range p.Expenses {
		if expense.Essential {
			total += expense.Amount
		}
	}
	return total
}

// EmergencyFundTarget — целевой резерв: обязательные расходы, умноженные на число месяцев.
func (p Profile) EmergencyFundTarget() float64 {
	return p.EssentialMonthlyExpenses() * p.EmergencyFundMonths
}

func (p Profile) HasAdequateEmergencyFund() bool {
	return p.CurrentSavings >= p.EmergencyFundTarget()
}

// Validate возвращает предупреждения по профилю. Сообщения с "cannot be negative" блокируют планирование.
func (p Profile) Validate() []string {
	warnings := make([]string, 0)

	if len(p.Income) == 0 {
		warnings = append(warnings, "no income streams defined")
	}
	if p.TotalMonthlyIncome() <= 0 {
		warnings = append(warnings, "total monthly income must be positive")
	}
	for _, stream := range p.Income {
		if stream.Amount < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: income amount cannot be negative", stream.Name))
		}
	}
	for _, expense := range p.Expenses {
		if expense.Amount < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: expense amount cannot be negative", expense.Name))
		}
	}
	if p.CurrentSavings < 0 {
		warnings = append(warnings, "current savings cannot be negative")
	}
	if p.CurrentInvestments < 0 {
		warnings = append(warnings, "current investments cannot be negative")
	}
	if p.HorizonMonths <= 0 {
		warnings = append(warnings, "time horizon must be positive")
	}
	if p.EmergencyFundMonths < 0 {
		warnings = append(warnings, "emergency fund months cannot be negative")
	}

	if p.TotalMonthlyIncome() < p.TotalMonthlyExpenses() {
		warnings = append(warnings, "WARNING: monthly expenses exceed income (negative cashflow)")
	}
	if !p.HasAdequateEmergencyFund() {
		warnings = append(warnings, fmt.Sprintf(
			"WARNING: emergency fund (%s) is below recommended target (%s)",
			money.Format(p.CurrentSavings), money.Format(p.EmergencyFundTarget()),
		))
	}

	return warnings
}
