package engine

import (
	"fmt"
	"math"
	"strings"
)

type DebtType string

const (
	DebtTypeCreditCard   DebtType = "credit_card"
	DebtTypePersonalLoan DebtType = "personal_loan"
	DebtTypeStudentLoan  DebtType = "student_loan"
	DebtTypeAutoLoan     DebtType = "auto_loan"
	DebtTypeMortgage     DebtType = "mortgage"
	DebtTypeMedical      DebtType = "medical"
	DebtTypeOther        DebtType = "other"
)

// ParseDebtType приводит строку к типу долга; пустое значение считается "other".
func ParseDebtType(value string) (DebtType, bool) {
	switch normalized := DebtType(strings.ToLower(strings.TrimSpace(value))); normalized {
	case "":
		return DebtTypeOther, true
	case DebtTypeCreditCard, DebtTypePersonalLoan, DebtTypeStudentLoan, DebtTypeAutoLoan, DebtTypeMortgage, DebtTypeMedical, DebtTypeOther:
		return normalized, true
	default:
		return "", false
	}
}

// Debt описывает одно долговое обязательство. AnnualRate задается десятичной дробью (0.18 = 18%).
type Debt struct {
	Name           string
	Type           DebtType
	Balance        float64
	AnnualRate     float64
	MinimumPayment float64
	DueDay         int
}

// MonthlyRate возвращает месячную ставку.
func (d Debt) MonthlyRate() float64 {
	return d.AnnualRate / 12
}

// InterestThisMonth возвращает проценты, начисляемые на текущий баланс за месяц.
func (d Debt) InterestThisMonth() float64 {
	return d.Balance * d.MonthlyRate()
}

// PrincipalInMinimum возвращает часть минимального платежа, которая гасит тело долга.
func (d Debt) PrincipalInMinimum() float64 {
	return math.Max(0, d.MinimumPayment-d.InterestThisMonth())
}

// Amortizes сообщает, гасится ли долг одними минимальными платежами.
func (d Debt) Amortizes() bool {
	if d.Balance <= 0 {
		return true
	}

	return d.MinimumPayment > d.InterestThisMonth()
}

// MonthsToPayoffMinimumOnly считает срок погашения минимальными платежами по формуле аннуитета.
// Возвращает nil, если долг не гасится никогда.
func (d Debt) MonthsToPayoffMinimumOnly() *float64 {
	months := 0.0
	if d.Balance <= 0 {
		return &months
	}

	if !d.Amortizes() {
		return nil
	}

	r := d.MonthlyRate()
	if r == 0 {
		months = d.Balance / d.MinimumPayment
		return &months
	}

	months = -math.Log(1-r*d.Balance/d.MinimumPayment) / math.Log(1+r)
	if math.IsNaN(months) || math.IsInf(months, 0) {
		return nil
	}

	return &months
}

// TotalInterestMinimumOnly оценивает переплату при минимальных платежах; nil, если долг не гасится.
func (d Debt) TotalInterestMinimumOnly() *float64 {
	months := d.MonthsToPayoffMinimumOnly()
	if months == nil {
		return nil
	}

	interest := math.Max(0, d.MinimumPayment*(*months)-d.Balance)
	return &interest
}

// Validate возвращает список предупреждений по долгу.
func (d Debt) Validate() []string {
	warnings := make([]string, 0)

	if d.Balance < 0 {
		warnings = append(warnings, fmt.Sprintf("%s: balance cannot be negative", d.Name))
	}

	if d.AnnualRate < 0 {
		warnings = append(warnings, fmt.Sprintf("%s: interest rate cannot be negative", d.Name))
	}

	if d.AnnualRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("%s: WARNING: interest rate exceeds 100%% APR", d.Name))
	}

	if d.MinimumPayment < 0 {
		warnings = append(warnings, fmt.Sprintf("%s: minimum payment cannot be negative", d.Name))
	}

	if d.Balance > 0 && d.MinimumPayment <= d.InterestThisMonth() {
		warnings = append(warnings, fmt.Sprintf(
			"%s: CRITICAL: minimum payment (%.2f) does not cover monthly interest (%.2f), balance will grow indefinitely",
			d.Name, d.MinimumPayment, d.InterestThisMonth(),
		))
	}

	if d.DueDay != 0 && (d.DueDay < 1 || d.DueDay > 31) {
		warnings = append(warnings, fmt.Sprintf("%s: due day must be between 1 and 31", d.Name))
	}

	return warnings
}

// Portfolio хранит долги в порядке добавления. Порядок погашения вычисляется стратегией заново.
type Portfolio struct {
	Debts []Debt
}

// NewPortfolio создает портфель с собственной копией списка долгов.
func NewPortfolio(debts ...Debt) Portfolio {
	return Portfolio{Debts: cloneDebts(debts)}
}

// Clone возвращает независимую копию портфеля.
func (p Portfolio) Clone() Portfolio {
	return Portfolio{Debts: cloneDebts(p.Debts)}
}

func (p Portfolio) TotalBalance() float64 {
	total := 0.0
	for _, debt := range p.Debts {
		total += debt.Balance
	}
	return total
}

func (p Portfolio) TotalMinimumPayments() float64 {
	total := 0.0
	for _, debt := range p.Debts {
		total += debt.MinimumPayment
	}
	return total
}

func (p Portfolio) TotalMonthlyInterest() float64 {
	total := 0.0
	for _, debt := range p.Debts {
		total += debt.InterestThisMonth()
	}
	return total
}

// WeightedAverageRate возвращает среднюю ставку, взвешенную по балансу.
func (p Portfolio) WeightedAverageRate() float64 {
	totalBalance := p.TotalBalance()
	if totalBalance == 0 {
		return 0
	}

	weighted := 0.0
	for _, debt := range p.Debts {
		weighted += debt.Balance * debt.AnnualRate
	}
	return weighted / totalBalance
}

// HighestRate возвращает долг с максимальной ставкой.
func (p Portfolio) HighestRate() (Debt, bool) {
	if len(p.Debts) == 0 {
		return Debt{}, false
	}

	best := p.Debts[0]
	for _, debt := range p.Debts[1:] {
		if debt.AnnualRate > best.AnnualRate {
			best = debt
		}
	}
	return best, true
}

// SmallestBalance возвращает долг с минимальным балансом.
func (p Portfolio) SmallestBalance() (Debt, bool) {
	if len(p.Debts) == 0 {
		return Debt{}, false
	}

	best := p.Debts[0]
	for _, debt := range p.Debts[1:] {
		if debt.Balance < best.Balance {
			best = debt
		}
	}
	return best, true
}

// HasHighInterest сообщает, есть ли долг со ставкой выше порога.
func (p Portfolio) HasHighInterest(threshold float64) bool {
	for _, debt := range p.Debts {
		if debt.AnnualRate > threshold {
			return true
		}
	}
	return false
}

// Unresolved возвращает имена долгов, которые не гасятся минимальными платежами.
func (p Portfolio) Unresolved() []string {
	names := make([]string, 0)
	for _, debt := range p.Debts {
		if !debt.Amortizes() {
			names = append(names, debt.Name)
		}
	}
	return names
}

// Validate возвращает объединенный список предупреждений по портфелю.
func (p Portfolio) Validate() []string {
	warnings := make([]string, 0)
	if len(p.Debts) == 0 {
		warnings = append(warnings, "no debts defined")
	}

	for _, debt := range p.Debts {
		warnings = append(warnings, debt.Validate()...)
	}
	return warnings
}

func cloneDebts(debts []Debt) []Debt {
	out := make([]Debt, len(debts))
	copy(out, debts)
	return out
}

// checkDebts отсекает структурно некорректные входные данные до начала симуляции.
func checkDebts(debts []Debt) error {
	seen := make(map[string]struct{}, len(debts))
	for _, debt := range debts {
		name := strings.TrimSpace(debt.Name)
		if name == "" {
			return fmt.Errorf("%w: debt name is required", ErrInvalidPortfolio)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate debt name %q", ErrInvalidPortfolio, name)
		}
		seen[name] = struct{}{}

		if !isFinite(debt.Balance) || !isFinite(debt.AnnualRate) || !isFinite(debt.MinimumPayment) {
			return fmt.Errorf("%w: %s has a non-finite value", ErrInvalidPortfolio, name)
		}
		if debt.AnnualRate < 0 {
			return fmt.Errorf("%w: %s interest rate cannot be negative", ErrInvalidPortfolio, name)
		}
		if debt.MinimumPayment < 0 {
			return fmt.Errorf("%w: %s minimum payment cannot be negative", ErrInvalidPortfolio, name)
		}
	}
	return nil
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
