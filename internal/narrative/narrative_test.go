package narrative

import (
	"strings"
	"testing"

	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
)

func intPtr(value int) *int {
	return &value
}

func sampleSet() engine.ScenarioSet {
	return engine.ScenarioSet{
		MinimumOnly: engine.ScenarioComparison{
			Kind:              engine.ScenarioMinimumOnly,
			Name:              "Minimum Payments Only",
			TotalInterestPaid: 9000,
			RemainingDebt:     1200,
		},
		DebtOnly: engine.ScenarioComparison{
			Kind:              engine.ScenarioDebtOnly,
			Name:              "100% Debt Payoff",
			MonthsToDebtFree:  intPtr(20),
			TotalInterestPaid: 1000,
			InvestmentValue:   engine.Estimates{Medium: 50000},
			NetWorth:          engine.Estimates{Medium: 50000},
		},
		Balanced: engine.ScenarioComparison{
			Kind:                 engine.ScenarioBalanced,
			Name:                 "Balanced (70% Debt / 30% Invest)",
			MonthsToDebtFree:     intPtr(26),
			TotalInterestPaid:    1400,
			InvestmentAtDebtFree: engine.Estimates{Medium: 4200},
			InvestmentValue:      engine.Estimates{Medium: 48000},
			NetWorth:             engine.Estimates{Medium: 48000},
		},
	}
}

// TestComparisonTable проверяет "N/A" для непогашаемого сценария и формат сумм.
func TestComparisonTable(t *testing.T) {
	rows := ComparisonTable(sampleSet())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].MonthsToDebtFree != "N/A" {
		t.Fatalf("expected N/A for unresolved scenario, got %q", rows[0].MonthsToDebtFree)
	}
	if rows[1].MonthsToDebtFree != "20" || rows[1].TotalInterestPaid != "$1,000.00" {
		t.Fatalf("unexpected debt-only row %+v", rows[1])
	}
	if len(rows[2].Cells()) != len(Headers()) {
		t.Fatal("expected cells to match headers")
	}
}

// TestTradeoffAnalysis проверяет ключевые выводы сравнения.
func TestTradeoffAnalysis(t *testing.T) {
	text := TradeoffAnalysis(sampleSet())

	if !strings.Contains(text, "will not pay off within the planning horizon") {
		t.Fatal("expected unresolved minimum-only scenario to be described")
	}
	if !strings.Contains(text, "approximately 6 more months") {
		t.Fatalf("expected month difference, got %s", text)
	}
	if !strings.Contains(text, "builds $4,200.00 in investments") {
		t.Fatalf("expected investment difference, got %s", text)
	}
	if !strings.Contains(text, "debt-only approach ends with higher net worth") {
		t.Fatalf("expected debt-only net worth insight, got %s", text)
	}
}

// TestGenerate проверяет сборку отчета без инвестиций.
func TestGenerate(t *testing.T) {
	saved := 2500.0
	in := Input{
		Strategy: engine.StrategyAvalanche,
		Risk:     cashflow.Conservative,
		Portfolio: engine.NewPortfolio(
			engine.Debt{Name: "Card", Type: engine.DebtTypeCreditCard, Balance: 5000, AnnualRate: 0.22, MinimumPayment: 150},
		),
		Cashflow: cashflow.Summary{
			MonthlyIncome:  4000,
			MonthlySurplus: 800,
			Health:         cashflow.HealthGood,
			EmergencyFund:  cashflow.EmergencyFund{Adequate: true},
		},
		DebtShare:         1,
		ExtraDebtPayment:  720,
		MonthsToDebtFree:  intPtr(7),
		TotalInterestPaid: 310,
		InterestSaved:     &saved,
		PriorityDebt:      "Card",
		Scenarios:         sampleSet(),
	}

	report := Generate(in)

	if !strings.Contains(report.ExecutiveSummary, "full surplus ($720.00)") {
		t.Fatalf("unexpected summary %s", report.ExecutiveSummary)
	}
	if !strings.Contains(report.ExecutiveSummary, "saves approximately $2,500.00") {
		t.Fatalf("expected savings in summary, got %s", report.ExecutiveSummary)
	}
	if !strings.Contains(report.DetailedExplanation, "**Cashflow Health:** Good") {
		t.Fatalf("expected health line, got %s", report.DetailedExplanation)
	}
	if !strings.Contains(report.DetailedExplanation, "high-interest debt") {
		t.Fatal("expected high interest reason")
	}
	if report.Disclaimer != Disclaimer {
		t.Fatal("expected disclaimer")
	}

	found := false
	for _, step := range report.ActionSteps {
		if strings.Contains(step, "Pay an extra $720.00/month toward Card") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected priority step, got %v", report.ActionSteps)
	}
}
