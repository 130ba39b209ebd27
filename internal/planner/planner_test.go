package planner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"example.com/debt-planner/backend/internal/ai"
	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cache"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
)

type countingCache struct {
	mu    sync.Mutex
	inner *cache.MemoryCache
	hits  int
	sets  int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := c.inner.Get(ctx, key)
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}
	return value, ok, err
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.inner.Set(ctx, key, value)
}

type stubNarrator struct {
	response ai.NarrativeResponse
	err      error
	input    ai.NarrativeInput
}

func (n *stubNarrator) Narrate(ctx context.Context, input ai.NarrativeInput) (ai.NarrativeResponse, string, []byte, error) {
	n.input = input
	return n.response, "prompt", []byte("raw"), n.err
}

func newTestPlanner(t *testing.T, narrator Narrator, c cache.Cache) *Planner {
	t.Helper()

	eng, err := engine.New(engine.DefaultSettings())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	return New(Options{
		Engine:             eng,
		Policy:             allocation.NewPolicy(eng, allocation.DefaultThresholds(), allocation.DefaultPresets()),
		CashflowThresholds: cashflow.DefaultThresholds(),
		Narrator:           narrator,
		Cache:              c,
	})
}

func sampleRequest() Request {
	profile := cashflow.NewProfile()
	profile.Income = []cashflow.IncomeStream{{Name: "Salary", Amount: 6000, Frequency: cashflow.Monthly}}
	profile.Expenses = []cashflow.Expense{
		{Name: "Rent", Amount: 2000, Essential: true},
		{Name: "Food", Amount: 1000, Essential: true},
		{Name: "Fun", Amount: 300},
	}
	profile.CurrentSavings = 15000
	profile.RiskTolerance = cashflow.Moderate

	return Request{
		Profile: profile,
		Debts: []engine.Debt{
			{Name: "Card", Type: engine.DebtTypeCreditCard, Balance: 4000, AnnualRate: 0.22, MinimumPayment: 120},
			{Name: "Car", Type: engine.DebtTypeAutoLoan, Balance: 9000, AnnualRate: 0.07, MinimumPayment: 250},
		},
		Strategy:       engine.StrategyAvalanche,
		UseSafeSurplus: true,
	}
}

// TestCreatePlan проверяет полный цикл построения плана.
func TestCreatePlan(t *testing.T) {
	p := newTestPlanner(t, nil, nil)

	output, err := p.CreatePlan(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	plan := output.Plan
	if math.Abs(plan.MonthlySurplus-2097) > 1e-6 {
		t.Fatalf("expected safe surplus 2097, got %.4f", plan.MonthlySurplus)
	}
	if plan.DebtShare != 1 || plan.InvestShare != 0 {
		t.Fatalf("expected 100/0 with a 22%% card, got %.2f/%.2f", plan.DebtShare, plan.InvestShare)
	}
	if len(plan.Funds) != 0 {
		t.Fatalf("expected no funds without investing, got %v", plan.Funds)
	}
	if plan.MonthsToDebtFree == nil {
		t.Fatal("expected payoff")
	}
	if plan.InterestSaved == nil || *plan.InterestSaved <= 0 {
		t.Fatalf("expected positive interest savings, got %v", plan.InterestSaved)
	}
	if len(plan.PayoffOrder) != 2 || plan.PayoffOrder[0] != "Card" {
		t.Fatalf("unexpected payoff order %v", plan.PayoffOrder)
	}

	if output.Scenarios.DebtOnly.MonthsToDebtFree == nil || len(output.Table) != 3 {
		t.Fatal("expected scenario comparison")
	}
	if output.NarrativeSource != NarrativeDeterministic || output.Report.ExecutiveSummary == "" {
		t.Fatalf("expected deterministic report, got %q", output.NarrativeSource)
	}
	if output.Schedule != nil {
		t.Fatal("expected schedule omitted")
	}
	if output.Debts.Count != 2 || !output.Debts.HasHighInterest {
		t.Fatalf("unexpected debt summary %+v", output.Debts)
	}
}

// TestCreatePlanCriticalInputs проверяет отказ при критических предупреждениях.
func TestCreatePlanCriticalInputs(t *testing.T) {
	p := newTestPlanner(t, nil, nil)

	request := sampleRequest()
	request.Debts[1].MinimumPayment = 10

	_, err := p.CreatePlan(context.Background(), request)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Critical) == 0 {
		t.Fatal("expected critical warnings")
	}
}

// TestCreatePlanCustomSplit проверяет пользовательское деление профицита.
func TestCreatePlanCustomSplit(t *testing.T) {
	p := newTestPlanner(t, nil, nil)

	debtShare, investShare := 0.5, 0.5
	request := sampleRequest()
	request.CustomDebtShare = &debtShare
	request.CustomInvestShare = &investShare
	request.IncludeSchedule = true

	output, err := p.CreatePlan(context.Background(), request)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.Plan.InvestmentContribution == 0 || len(output.Plan.Funds) == 0 {
		t.Fatalf("expected investing, got %+v", output.Plan)
	}
	if len(output.Schedule) == 0 {
		t.Fatal("expected schedule")
	}

	found := false
	for _, warning := range output.Plan.Warnings {
		if warning == "WARNING: investing while carrying very high-interest debt may not be optimal. "+
			"The guaranteed return from paying down debt likely exceeds expected market returns." {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected high interest warning, got %v", output.Plan.Warnings)
	}

	investShare = 0.9
	if _, err := p.CreatePlan(context.Background(), request); !errors.Is(err, engine.ErrInvalidAllocation) {
		t.Fatalf("expected ErrInvalidAllocation, got %v", err)
	}
}

// TestCreatePlanInvalidStrategy проверяет отказ для неизвестной стратегии.
func TestCreatePlanInvalidStrategy(t *testing.T) {
	p := newTestPlanner(t, nil, nil)

	request := sampleRequest()
	request.Strategy = "fastest"
	if _, err := p.CreatePlan(context.Background(), request); !errors.Is(err, engine.ErrInvalidStrategy) {
		t.Fatalf("expected ErrInvalidStrategy, got %v", err)
	}
}

// TestCreatePlanUsesCache проверяет повторное использование сравнения сценариев.
func TestCreatePlanUsesCache(t *testing.T) {
	c := &countingCache{inner: cache.NewMemoryCache(0)}
	p := newTestPlanner(t, nil, c)

	first, err := p.CreatePlan(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := p.CreatePlan(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if c.sets != 1 || c.hits != 1 {
		t.Fatalf("expected one write and one hit, got sets=%d hits=%d", c.sets, c.hits)
	}
	if *first.Scenarios.Balanced.MonthsToDebtFree != *second.Scenarios.Balanced.MonthsToDebtFree {
		t.Fatal("expected cached scenarios to match")
	}
}

// TestCreatePlanNarration проверяет AI-текст и откат на детерминированный отчет.
func TestCreatePlanNarration(t *testing.T) {
	narrator := &stubNarrator{response: ai.NarrativeResponse{
		ExecutiveSummary: "Pay the card first.",
		TradeoffSummary:  "Investing later costs less interest.",
		ActionSteps:      []string{"Automate minimums.", "Send extra to Card."},
	}}

	output, err := newTestPlanner(t, narrator, nil).CreatePlan(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.NarrativeSource != NarrativeAI || output.Report.ExecutiveSummary != "Pay the card first." {
		t.Fatalf("expected ai narrative, got %q", output.Report.ExecutiveSummary)
	}
	if output.Narration == nil || output.Narration.Prompt != "prompt" {
		t.Fatal("expected narration trace")
	}
	if len(narrator.input.Scenarios) != 3 || narrator.input.RiskTolerance != "moderate" {
		t.Fatalf("unexpected narration input %+v", narrator.input)
	}

	failing := &stubNarrator{err: errors.New("provider down")}
	output, err = newTestPlanner(t, failing, nil).CreatePlan(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("expected fallback without error, got %v", err)
	}
	if output.NarrativeSource != NarrativeDeterministic || output.Report.ExecutiveSummary == "" {
		t.Fatal("expected deterministic fallback")
	}
	if output.Narration == nil || output.Narration.Err == nil {
		t.Fatal("expected failed narration trace")
	}
}
