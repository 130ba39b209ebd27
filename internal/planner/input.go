package planner

import (
	"fmt"

	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
)

// DebtInput — долг в формате API и YAML-файлов CLI.
type DebtInput struct {
	Name           string  `json:"name" yaml:"name" validate:"required,max=100"`
	Type           string  `json:"type" yaml:"type" validate:"omitempty,max=32"`
	Balance        float64 `json:"balance" yaml:"balance"`
	AnnualRate     float64 `json:"annual_rate" yaml:"annual_rate"`
	MinimumPayment float64 `json:"minimum_payment" yaml:"minimum_payment"`
	DueDay         int     `json:"due_day" yaml:"due_day" validate:"omitempty,min=1,max=31"`
}

type IncomeInput struct {
	Name      string  `json:"name" yaml:"name" validate:"required,max=100"`
	Amount    float64 `json:"amount" yaml:"amount"`
	Frequency string  `json:"frequency" yaml:"frequency" validate:"omitempty,max=32"`
}

type ExpenseInput struct {
	Name      string  `json:"name" yaml:"name" validate:"required,max=100"`
	Amount    float64 `json:"amount" yaml:"amount"`
	Essential bool    `json:"essential" yaml:"essential"`
}

// ProfileInput — финансовый профиль; нулевые HorizonMonths и EmergencyFundMonths заменяются значениями по умолчанию.
type ProfileInput struct {
	Income              []IncomeInput  `json:"income" yaml:"income" validate:"required,min=1,dive"`
	Expenses            []ExpenseInput `json:"expenses" yaml:"expenses" validate:"dive"`
	CurrentSavings      float64        `json:"current_savings" yaml:"current_savings"`
	CurrentInvestments  float64        `json:"current_investments" yaml:"current_investments"`
	RiskTolerance       string         `json:"risk_tolerance" yaml:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
	HorizonMonths       int            `json:"horizon_months" yaml:"horizon_months" validate:"omitempty,min=1,max=600"`
	EmergencyFundMonths *float64       `json:"emergency_fund_months" yaml:"emergency_fund_months"`
}

// PlanInput — запрос на построение плана.
type PlanInput struct {
	Title             string       `json:"title" yaml:"title" validate:"omitempty,max=200"`
	Profile           ProfileInput `json:"profile" yaml:"profile" validate:"required"`
	Debts             []DebtInput  `json:"debts" yaml:"debts" validate:"dive"`
	Strategy          string       `json:"strategy" yaml:"strategy" validate:"omitempty,oneof=avalanche snowball hybrid"`
	UseSafeSurplus    *bool        `json:"use_safe_surplus" yaml:"use_safe_surplus"`
	CustomDebtShare   *float64     `json:"custom_debt_share" yaml:"custom_debt_share"`
	CustomInvestShare *float64     `json:"custom_invest_share" yaml:"custom_invest_share"`
	IncludeSchedule   bool         `json:"include_schedule" yaml:"include_schedule"`
	Save              bool         `json:"save" yaml:"-"`
}

// ToDebts преобразует входные долги в модели движка.
func ToDebts(inputs []DebtInput) ([]engine.Debt, error) {
	debts := make([]engine.Debt, 0, len(inputs))
	for _, input := range inputs {
		debtType, ok := engine.ParseDebtType(input.Type)
		if !ok {
			return nil, fmt.Errorf("%w: unknown debt type %q for %s", engine.ErrInvalidPortfolio, input.Type, input.Name)
		}

		debts = append(debts, engine.Debt{
			Name:           input.Name,
			Type:           debtType,
			Balance:        input.Balance,
			AnnualRate:     input.AnnualRate,
			MinimumPayment: input.MinimumPayment,
			DueDay:         input.DueDay,
		})
	}
	return debts, nil
}

// ToProfile преобразует входной профиль в модель cashflow.
func (p ProfileInput) ToProfile() (cashflow.Profile, error) {
	profile := cashflow.NewProfile()

	risk, ok := cashflow.ParseRiskTolerance(p.RiskTolerance)
	if !ok {
		return profile, fmt.Errorf("unknown risk tolerance %q", p.RiskTolerance)
	}
	profile.RiskTolerance = risk

	for _, income := range p.Income {
		frequency, ok := cashflow.ParsePayFrequency(income.Frequency)
		if !ok {
			return profile, fmt.Errorf("unknown pay frequency %q for %s", income.Frequency, income.Name)
		}
		profile.Income = append(profile.Income, cashflow.IncomeStream{
			Name:      income.Name,
			Amount:    income.Amount,
			Frequency: frequency,
		})
	}

	for _, expense := range p.Expenses {
		profile.Expenses = append(profile.Expenses, cashflow.Expense{
			Name:      expense.Name,
			Amount:    expense.Amount,
			Essential: expense.Essential,
		})
	}

	profile.CurrentSavings = p.CurrentSavings
	profile.CurrentInvestments = p.CurrentInvestments
	if p.HorizonMonths > 0 {
		profile.HorizonMonths = p.HorizonMonths
	}
	if p.EmergencyFundMonths != nil {
		profile.EmergencyFundMonths = *p.EmergencyFundMonths
	}

	return profile, nil
}

// ToRequest собирает Request планировщика. Пустая стратегия означает avalanche, безопасный профицит включен по умолчанию.
func (in PlanInput) ToRequest() (Request, error) {
	profile, err := in.Profile.ToProfile()
	if err != nil {
		return Request{}, err
	}

	debts, err := ToDebts(in.Debts)
	if err != nil {
		return Request{}, err
	}

	strategy := engine.StrategyAvalanche
	if in.Strategy != "" {
		strategy, err = engine.ParseStrategy(in.Strategy)
		if err != nil {
			return Request{}, err
		}
	}

	useSafe := true
	if in.UseSafeSurplus != nil {
		useSafe = *in.UseSafeSurplus
	}

	return Request{
		Profile:           profile,
		Debts:             debts,
		Strategy:          strategy,
		UseSafeSurplus:    useSafe,
		CustomDebtShare:   in.CustomDebtShare,
		CustomInvestShare: in.CustomInvestShare,
		IncludeSchedule:   in.IncludeSchedule,
	}, nil
}
