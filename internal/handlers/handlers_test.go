package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/planner"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	return e
}

func newTestPlanner(t *testing.T) (*planner.Planner, *allocation.Policy) {
	t.Helper()

	eng, err := engine.New(engine.DefaultSettings())
	if err != nil {
		t.Fatalf("expected engine, got %v", err)
	}
	policy := allocation.NewPolicy(eng, allocation.DefaultThresholds(), allocation.DefaultPresets())
	return planner.New(planner.Options{
		Engine:             eng,
		Policy:             policy,
		CashflowThresholds: cashflow.DefaultThresholds(),
	}), policy
}

func newSimulateHandler(t *testing.T) *SimulateHandler {
	p, policy := newTestPlanner(t)
	return NewSimulateHandler(p.Engine(), policy)
}

func serve(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("expected no handler error, got %v", err)
	}
	return rec
}

const twoDebts = `[
	{"name": "Visa", "type": "credit_card", "balance": 1000, "annual_rate": 0.24, "minimum_payment": 50},
	{"name": "Car", "type": "auto_loan", "balance": 5000, "annual_rate": 0.06, "minimum_payment": 100}
]`

// TestPrioritizeHandler проверяет порядок погашения для avalanche и snowball.
func TestPrioritizeHandler(t *testing.T) {
	h := newSimulateHandler(t)

	rec := serve(t, h.Prioritize, `{"strategy": "avalanche", "debts": `+twoDebts+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PrioritizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected json, got %v", err)
	}
	if len(response.Order) != 2 || response.Order[0] != "Visa" {
		t.Fatalf("unexpected order: %v", response.Order)
	}
	if response.Description == "" {
		t.Fatal("expected strategy description")
	}
}

// TestSimulateValidation проверяет ответы 400 для неверных тел запросов.
func TestSimulateValidation(t *testing.T) {
	h := newSimulateHandler(t)

	cases := map[string]string{
		"unknown strategy": `{"strategy": "random", "debts": ` + twoDebts + `}`,
		"missing debts":    `{"strategy": "avalanche"}`,
		"broken json":      `{"strategy": `,
		"unknown type":     `{"strategy": "avalanche", "debts": [{"name": "X", "type": "payday", "balance": 10}]}`,
		"duplicate names":  `{"strategy": "avalanche", "debts": [{"name": "X", "balance": 10}, {"name": "X", "balance": 20}]}`,
	}

	for name, body := range cases {
		rec := serve(t, h.Prioritize, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
	}
}

// TestAllocateHandler проверяет каскадное распределение и отказ для отрицательного бюджета.
func TestAllocateHandler(t *testing.T) {
	h := newSimulateHandler(t)

	rec := serve(t, h.Allocate, `{"strategy": "avalanche", "budget": 500, "debts": `+twoDebts+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result engine.Allocation
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("expected json, got %v", err)
	}
	if result.Extra["Visa"] != 500 || result.Extra["Car"] != 0 {
		t.Fatalf("unexpected allocation: %+v", result.Extra)
	}

	rec = serve(t, h.Allocate, `{"strategy": "avalanche", "budget": -1, "debts": `+twoDebts+`}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative budget, got %d", rec.Code)
	}
}

// TestPayoffHandler проверяет срок погашения, сэкономленные проценты и скрытие ведомости.
func TestPayoffHandler(t *testing.T) {
	h := newSimulateHandler(t)

	rec := serve(t, h.Payoff, `{"strategy": "avalanche", "extra_payment": 300, "debts": `+twoDebts+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PayoffResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected json, got %v", err)
	}
	if response.Result.MonthsToDebtFree == nil {
		t.Fatal("expected the portfolio to be paid off")
	}
	if response.Result.Snapshots != nil {
		t.Fatal("expected snapshots to be omitted by default")
	}
	if response.InterestSaved == nil || *response.InterestSaved <= 0 {
		t.Fatalf("expected positive interest saved, got %v", response.InterestSaved)
	}
}

// TestCompareHandler проверяет три сценария и таблицу сравнения.
func TestCompareHandler(t *testing.T) {
	h := newSimulateHandler(t)

	rec := serve(t, h.Compare, `{"strategy": "avalanche", "surplus": 600, "risk_tolerance": "moderate", "debts": `+twoDebts+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response CompareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected json, got %v", err)
	}
	if len(response.Table) != 3 {
		t.Fatalf("expected 3 table rows, got %d", len(response.Table))
	}
	if response.Tradeoffs == "" {
		t.Fatal("expected tradeoff analysis")
	}
}

const planBody = `{
	"profile": {
		"income": [{"name": "Salary", "amount": 5000, "frequency": "monthly"}],
		"expenses": [{"name": "Rent", "amount": 1800, "essential": true}],
		"current_savings": 20000,
		"risk_tolerance": "moderate"
	},
	"debts": ` + twoDebts + `,
	"strategy": "avalanche"
}`

func newPlanHandler(t *testing.T) *PlanHandler {
	p, _ := newTestPlanner(t)
	return NewPlanHandler(PlanHandlerOptions{Planner: p})
}

// TestCreatePlanAnonymous проверяет построение плана без сохранения и без авторизации.
func TestCreatePlanAnonymous(t *testing.T) {
	h := newPlanHandler(t)

	rec := serve(t, h.Create, planBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		PlanID *string         `json:"plan_id"`
		Plan   json.RawMessage `json:"plan"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected json, got %v", err)
	}
	if response.PlanID != nil {
		t.Fatal("expected no plan id for unsaved plan")
	}

	var output planner.Output
	if err := json.Unmarshal(response.Plan, &output); err != nil {
		t.Fatalf("expected plan output, got %v", err)
	}
	if output.Plan.Strategy != engine.StrategyAvalanche || output.NarrativeSource != planner.NarrativeDeterministic {
		t.Fatalf("unexpected plan: %+v", output.Plan)
	}
}

// TestCreatePlanSaveRequiresAuth проверяет, что сохранение требует пользователя.
func TestCreatePlanSaveRequiresAuth(t *testing.T) {
	h := newPlanHandler(t)

	body := strings.Replace(planBody, `"strategy": "avalanche"`, `"strategy": "avalanche", "save": true`, 1)
	rec := serve(t, h.Create, body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestCreatePlanCritical проверяет ответ 422 со списком критических проблем.
func TestCreatePlanCritical(t *testing.T) {
	h := newPlanHandler(t)

	body := strings.Replace(planBody, twoDebts, `[{"name": "Loan", "balance": 10000, "annual_rate": 0.24, "minimum_payment": 10}]`, 1)
	rec := serve(t, h.Create, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected json, got %v", err)
	}
	if len(response.Critical) == 0 {
		t.Fatal("expected critical issues in response")
	}
}

// TestPlanTitle проверяет заголовок по умолчанию.
func TestPlanTitle(t *testing.T) {
	if got := planTitle("  ", engine.StrategySnowball); got != "Snowball plan" {
		t.Fatalf("expected default title, got %q", got)
	}
	if got := planTitle(" Mine ", engine.StrategySnowball); got != "Mine" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
}
