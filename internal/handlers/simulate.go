package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/narrative"
	"example.com/debt-planner/backend/internal/planner"
)

// SimulateHandler открывает операции движка без сохранения состояния.
type SimulateHandler struct {
	Engine *engine.Engine
	Policy *allocation.Policy
}

// NewSimulateHandler создает обработчик симуляций.
func NewSimulateHandler(eng *engine.Engine, policy *allocation.Policy) *SimulateHandler {
	return &SimulateHandler{Engine: eng, Policy: policy}
}

type PrioritizeRequest struct {
	Debts    []planner.DebtInput `json:"debts" validate:"required,min=1,dive"`
	Strategy string              `json:"strategy" validate:"required,oneof=avalanche snowball hybrid"`
}

type PrioritizeResponse struct {
	Strategy    engine.Strategy `json:"strategy"`
	Description string          `json:"description"`
	Order       []string        `json:"order"`
}

type AllocateRequest struct {
	Debts    []planner.DebtInput `json:"debts" validate:"required,min=1,dive"`
	Budget   float64             `json:"budget"`
	Strategy string              `json:"strategy" validate:"required,oneof=avalanche snowball hybrid"`
}

type PayoffRequest struct {
	Debts            []planner.DebtInput `json:"debts" validate:"required,min=1,dive"`
	ExtraPayment     float64             `json:"extra_payment"`
	Strategy         string              `json:"strategy" validate:"required,oneof=avalanche snowball hybrid"`
	MaxMonths        int                 `json:"max_months" validate:"omitempty,min=1,max=1200"`
	IncludeSnapshots bool                `json:"include_snapshots"`
}

type PayoffResponse struct {
	Result        engine.PayoffResult       `json:"result"`
	Interest      engine.InterestComparison `json:"interest"`
	InterestSaved *float64                  `json:"interest_saved"`
}

type CombinedRequest struct {
	Debts                  []planner.DebtInput `json:"debts" validate:"dive"`
	ExtraDebtPayment       float64             `json:"extra_debt_payment"`
	InvestmentContribution float64             `json:"investment_contribution"`
	Strategy               string              `json:"strategy" validate:"required,oneof=avalanche snowball hybrid"`
	Returns                *engine.Returns     `json:"returns"`
	RiskTolerance          string              `json:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
	InitialInvestment      float64             `json:"initial_investment"`
	MaxMonths              int                 `json:"max_months" validate:"omitempty,min=1,max=1200"`
	IncludeSchedule        bool                `json:"include_schedule"`
}

type CombinedResponse struct {
	Result   engine.CombinedResult `json:"result"`
	NetWorth engine.Estimates      `json:"net_worth"`
}

type CompareRequest struct {
	Debts             []planner.DebtInput `json:"debts" validate:"dive"`
	Surplus           float64             `json:"surplus"`
	Strategy          string              `json:"strategy" validate:"required,oneof=avalanche snowball hybrid"`
	Returns           *engine.Returns     `json:"returns"`
	RiskTolerance     string              `json:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
	InitialInvestment float64             `json:"initial_investment"`
}

type CompareResponse struct {
	Scenarios engine.ScenarioSet `json:"scenarios"`
	Table     []narrative.Row    `json:"comparison_table"`
	Tradeoffs string             `json:"tradeoff_analysis"`
}

// Prioritize возвращает порядок погашения для стратегии.
func (h *SimulateHandler) Prioritize(c echo.Context) error {
	var req PrioritizeRequest
	if message := bindRequest(c, &req); message != "" {
		return badRequest(c, message)
	}

	debts, strategy, err := debtsAndStrategy(req.Debts, req.Strategy)
	if err != nil {
		return engineError(c, err)
	}

	order, err := h.Engine.Prioritize(debts, strategy)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, PrioritizeResponse{
		Strategy:    strategy,
		Description: engine.StrategyDescription(strategy),
		Order:       order,
	})
}

// Allocate распределяет дополнительный бюджет каскадом.
func (h *SimulateHandler) Allocate(c echo.Context) error {
	var req AllocateRequest
	if message := bindRequest(c, &req); message != "" {
		return badRequest(c, message)
	}

	debts, strategy, err := debtsAndStrategy(req.Debts, req.Strategy)
	if err != nil {
		return engineError(c, err)
	}

	result, err := h.Engine.AllocateExtra(debts, req.Budget, strategy)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Payoff моделирует погашение и сравнивает проценты с вариантом только минимальных платежей.
func (h *SimulateHandler) Payoff(c echo.Context) error {
	var req PayoffRequest
	if message := bindRequest(c, &req); message != "" {
		return badRequest(c, message)
	}

	debts, strategy, err := debtsAndStrategy(req.Debts, req.Strategy)
	if err != nil {
		return engineError(c, err)
	}

	result, err := h.Engine.SimulatePayoff(debts, req.ExtraPayment, strategy, req.MaxMonths)
	if err != nil {
		return engineError(c, err)
	}

	interest, err := h.Engine.CalculateInterestSaved(debts, req.ExtraPayment, strategy)
	if err != nil {
		return engineError(c, err)
	}

	if !req.IncludeSnapshots {
		result.Snapshots = nil
	}

	response := PayoffResponse{Result: result, Interest: interest}
	if saved, ok := interest.Saved(); ok {
		response.InterestSaved = &saved
	}

	return c.JSON(http.StatusOK, response)
}

// Combined моделирует погашение вместе с инвестированием.
func (h *SimulateHandler) Combined(c echo.Context) error {
	var req CombinedRequest
	if message := bindRequest(c, &req); message != "" {
		return badRequest(c, message)
	}

	debts, strategy, err := debtsAndStrategy(req.Debts, req.Strategy)
	if err != nil {
		return engineError(c, err)
	}

	returns, err := h.returns(req.Returns, req.RiskTolerance)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.Engine.SimulateCombined(debts, engine.CombinedInput{
		ExtraDebtPayment:       req.ExtraDebtPayment,
		InvestmentContribution: req.InvestmentContribution,
		Strategy:               strategy,
		Returns:                returns,
		InitialInvestment:      req.InitialInvestment,
		MaxMonths:              req.MaxMonths,
	})
	if err != nil {
		return engineError(c, err)
	}

	if !req.IncludeSchedule {
		result.Payoff.Snapshots = nil
	}

	return c.JSON(http.StatusOK, CombinedResponse{Result: result, NetWorth: result.NetWorth()})
}

// Compare сравнивает сценарии "только минимум", "все на долг" и сбалансированный.
func (h *SimulateHandler) Compare(c echo.Context) error {
	var req CompareRequest
	if message := bindRequest(c, &req); message != "" {
		return badRequest(c, message)
	}

	debts, strategy, err := debtsAndStrategy(req.Debts, req.Strategy)
	if err != nil {
		return engineError(c, err)
	}

	returns, err := h.returns(req.Returns, req.RiskTolerance)
	if err != nil {
		return badRequest(c, err.Error())
	}

	set, err := h.Engine.CompareScenarios(debts, req.Surplus, strategy, returns, req.InitialInvestment)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(http.StatusOK, CompareResponse{
		Scenarios: set,
		Table:     narrative.ComparisonTable(set),
		Tradeoffs: narrative.TradeoffAnalysis(set),
	})
}

// returns берет явные доходности либо пресет по уровню риска.
func (h *SimulateHandler) returns(explicit *engine.Returns, risk string) (engine.Returns, error) {
	if explicit != nil {
		return *explicit, nil
	}

	tolerance, ok := cashflow.ParseRiskTolerance(risk)
	if !ok {
		return engine.Returns{}, errors.New("invalid risk tolerance")
	}
	return h.Policy.ExpectedReturns(tolerance), nil
}

func debtsAndStrategy(inputs []planner.DebtInput, value string) ([]engine.Debt, engine.Strategy, error) {
	strategy, err := engine.ParseStrategy(value)
	if err != nil {
		return nil, "", err
	}

	debts, err := planner.ToDebts(inputs)
	if err != nil {
		return nil, "", err
	}

	return debts, strategy, nil
}

// bindRequest разбирает и проверяет тело запроса; непустой результат — текст ошибки для клиента.
func bindRequest(c echo.Context, req interface{}) string {
	if err := c.Bind(req); err != nil {
		return "invalid payload"
	}
	if err := c.Validate(req); err != nil {
		return "validation failed"
	}
	return ""
}

// engineError переводит ошибки движка и планировщика в HTTP-ответ.
func engineError(c echo.Context, err error) error {
	var validation *planner.ValidationError
	switch {
	case errors.As(err, &validation):
		return unprocessable(c, ErrorResponse{
			Error:    "plan inputs contain critical issues",
			Critical: validation.Critical,
			Warnings: validation.Warnings,
		})
	case errors.Is(err, engine.ErrInvalidStrategy),
		errors.Is(err, engine.ErrInvalidAllocation),
		errors.Is(err, engine.ErrInvalidPortfolio):
		return badRequest(c, err.Error())
	default:
		return serverError(c)
	}
}
