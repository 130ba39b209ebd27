package cashflow

import (
	"fmt"

	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/money"
)

// Thresholds — пороги анализатора денежного потока.
type Thresholds struct {
	SafetyMargin     float64 `yaml:"safety_margin"`
	LowSurplus       float64 `yaml:"low_surplus"`
	HighDebtToIncome float64 `yaml:"high_debt_to_income"`
	HighDebtService  float64 `yaml:"high_debt_service"`
	HighInterest     float64 `yaml:"high_interest"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SafetyMargin:     0.10,
		LowSurplus:       100,
		HighDebtToIncome: 2.0,
		HighDebtService:  0.43,
		HighInterest:     0.20,
	}
}

// Validate проверяет диапазоны порогов.
func (t Thresholds) Validate() error {
	if t.SafetyMargin < 0 || t.SafetyMargin >= 1 {
		return fmt.Errorf("safety margin must be in [0,1)")
	}
	if t.LowSurplus < 0 || t.HighDebtToIncome < 0 || t.HighDebtService < 0 || t.HighInterest < 0 {
		return fmt.Errorf("cashflow thresholds cannot be negative")
	}
	return nil
}

type Health string

const (
	HealthCritical  Health = "critical"
	HealthPoor      Health = "poor"
	HealthFair      Health = "fair"
	HealthGood      Health = "good"
	HealthExcellent Health = "excellent"
)

// Analyzer считает доходы, обязательства и профицит по профилю и портфелю долгов.
type Analyzer struct {
	profile    Profile
	portfolio  engine.Portfolio
	thresholds Thresholds
}

// NewAnalyzer создает анализатор; портфель копируется.
func NewAnalyzer(profile Profile, portfolio engine.Portfolio, thresholds Thresholds) *Analyzer {
	return &Analyzer{
		profile:    profile,
		portfolio:  portfolio.Clone(),
		thresholds: thresholds,
	}
}

func (a *Analyzer) GrossIncome() float64 {
	return a.profile.TotalMonthlyIncome()
}

func (a *Analyzer) TotalExpenses() float64 {
	return a.profile.TotalMonthlyExpenses()
}

func (a *Analyzer) EssentialExpenses() float64 {
	return a.profile.EssentialMonthlyExpenses()
}

func (a *Analyzer) MinimumPayments() float64 {
	return a.portfolio.TotalMinimumPayments()
}

// Obligations — все расходы плюс минимальные платежи.
func (a *Analyzer) Obligations() float64 {
	return a.TotalExpenses() + a.MinimumPayments()
}

// EssentialObligations — обязательные расходы плюс минимальные платежи.
func (a *Analyzer) EssentialObligations() float64 {
	return a.EssentialExpenses() + a.MinimumPayments()
}

// Surplus — остаток дохода после всех обязательств; может быть отрицательным.
func (a *Analyzer) Surplus() float64 {
	return a.GrossIncome() - a.Obligations()
}

// ConservativeSurplus учитывает только обязательные расходы.
func (a *Analyzer) ConservativeSurplus() float64 {
	return a.GrossIncome() - a.EssentialObligations()
}

func (a *Analyzer) HasPositiveCashflow() bool {
	return a.Surplus() > 0
}

// SafeSurplus — профицит за вычетом страховой доли; никогда не отрицателен.
func (a *Analyzer) SafeSurplus() float64 {
	surplus := a.Surplus()
	if surplus <= 0 {
		return 0
	}
	return max(0, surplus*(1-a.thresholds.SafetyMargin))
}

// HealthScore оценивает долю профицита в доходе.
func (a *Analyzer) HealthScore() Health {
	surplus := a.Surplus()
	if surplus <= 0 {
		return HealthCritical
	}

	ratio := 0.0
	if income := a.GrossIncome(); income > 0 {
		ratio = surplus / income
	}

	switch {
	case ratio < 0.05:
		return HealthPoor
	case ratio < 0.15:
		return HealthFair
	case ratio < 0.25:
		return HealthGood
	default:
		return HealthExcellent
	}
}

// DebtToIncome — отношение суммарного долга к годовому доходу; nil при нулевом доходе.
func (a *Analyzer) DebtToIncome() *float64 {
	annual := a.GrossIncome() * 12
	if annual <= 0 {
		return nil
	}

	ratio := a.portfolio.TotalBalance() / annual
	return &ratio
}

// DebtServiceRatio — доля дохода, уходящая на минимальные платежи; nil при нулевом доходе.
func (a *Analyzer) DebtServiceRatio() *float64 {
	income := a.GrossIncome()
	if income <= 0 {
		return nil
	}

	ratio := a.MinimumPayments() / income
	return &ratio
}

// RedFlags возвращает тревожные признаки. Сообщения с префиксом CRITICAL блокируют планирование.
func (a *Analyzer) RedFlags() []string {
	flags := make([]string, 0)

	if !a.HasPositiveCashflow() {
		flags = append(flags, "CRITICAL: negative monthly cashflow, expenses and debt payments exceed income")
	}

	surplus := a.Surplus()
	if surplus > 0 && surplus < a.thresholds.LowSurplus {
		flags = append(flags, fmt.Sprintf(
			"WARNING: very low monthly surplus (%s), limited room for extra payments or emergencies",
			money.Format(surplus),
		))
	}

	if dti := a.DebtToIncome(); dti != nil && *dti > a.thresholds.HighDebtToIncome {
		flags = append(flags, fmt.Sprintf(
			"WARNING: high debt-to-income ratio (%.1fx annual income), consider consolidation or credit counseling",
			*dti,
		))
	}

	if dsr := a.DebtServiceRatio(); dsr != nil && *dsr > a.thresholds.HighDebtService {
		flags = append(flags, fmt.Sprintf(
			"WARNING: high debt service ratio (%s of income)",
			money.Percent(*dsr),
		))
	}

	if !a.profile.HasAdequateEmergencyFund() {
		flags = append(flags, fmt.Sprintf(
			"WARNING: emergency fund (%s) below recommended %.0f months of expenses (%s)",
			money.Format(a.profile.CurrentSavings), a.profile.EmergencyFundMonths, money.Format(a.profile.EmergencyFundTarget()),
		))
	}

	if a.portfolio.HasHighInterest(a.thresholds.HighInterest) {
		if highest, ok := a.portfolio.HighestRate(); ok {
			flags = append(flags, fmt.Sprintf(
				"WARNING: high-interest debt detected, %s has %s APR",
				highest.Name, money.Percent(highest.AnnualRate),
			))
		}
	}

	for _, debt := range a.portfolio.Debts {
		if debt.Balance > 0 && !debt.Amortizes() {
			flags = append(flags, fmt.Sprintf(
				"CRITICAL: %s minimum payment does not cover interest, balance will grow indefinitely",
				debt.Name,
			))
		}
	}

	return flags
}

// EmergencyFund — состояние резервного фонда.
type EmergencyFund struct {
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Adequate bool    `json:"adequate"`
}

// Summary — сводка денежного потока для отчетов и API.
type Summary struct {
	MonthlyIncome       float64       `json:"monthly_income"`
	MonthlyExpenses     float64       `json:"monthly_expenses"`
	MonthlyDebtMinimums float64       `json:"monthly_debt_minimums"`
	MonthlyObligations  float64       `json:"monthly_obligations"`
	MonthlySurplus      float64       `json:"monthly_surplus"`
	SafeSurplus         float64       `json:"safe_surplus"`
	Health              Health        `json:"cashflow_health"`
	DebtToIncome        *float64      `json:"debt_to_income_ratio"`
	DebtServiceRatio    *float64      `json:"debt_service_ratio"`
	EmergencyFund       EmergencyFund `json:"emergency_fund_status"`
	RedFlags            []string      `json:"red_flags"`
}

func (a *Analyzer) Summary() Summary {
	return Summary{
		MonthlyIncome:       a.GrossIncome(),
		MonthlyExpenses:     a.TotalExpenses(),
		MonthlyDebtMinimums: a.MinimumPayments(),
		MonthlyObligations:  a.Obligations(),
		MonthlySurplus:      a.Surplus(),
		SafeSurplus:         a.SafeSurplus(),
		Health:              a.HealthScore(),
		DebtToIncome:        a.DebtToIncome(),
		DebtServiceRatio:    a.DebtServiceRatio(),
		EmergencyFund: EmergencyFund{
			Current:  a.profile.CurrentSavings,
			Target:   a.profile.EmergencyFundTarget(),
			Adequate: a.profile.HasAdequateEmergencyFund(),
		},
		RedFlags: a.RedFlags(),
	}
}
