package cashflow

import (
	"math"
	"strings"
	"testing"

	"example.com/debt-planner/backend/internal/engine"
)

func sampleProfile() Profile {
	profile := NewProfile()
	profile.Income = []IncomeStream{{Name: "Salary", Amount: 5000, Frequency: Monthly}}
	profile.Expenses = []Expense{
		{Name: "Rent", Amount: 1500, Essential: true},
		{Name: "Utilities", Amount: 200, Essential: true},
		{Name: "Food", Amount: 600, Essential: true},
		{Name: "Entertainment", Amount: 200},
	}
	profile.CurrentSavings = 10000
	return profile
}

func samplePortfolio() engine.Portfolio {
	return engine.NewPortfolio(
		engine.Debt{Name: "Card", Balance: 5000, AnnualRate: 0.18, MinimumPayment: 150},
		engine.Debt{Name: "Car", Balance: 12000, AnnualRate: 0.06, MinimumPayment: 300},
	)
}

func containsPrefix(items []string, prefix string) bool {
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			return true
		}
	}
	return false
}

// TestPayFrequencyMultiplier проверяет перевод дохода в месячный эквивалент.
func TestPayFrequencyMultiplier(t *testing.T) {
	stream := IncomeStream{Name: "Paycheck", Amount: 1200, Frequency: BiWeekly}
	if math.Abs(stream.MonthlyAmount()-2600) > 1e-9 {
		t.Fatalf("expected 2600, got %.4f", stream.MonthlyAmount())
	}

	weekly := IncomeStream{Amount: 300, Frequency: Weekly}
	if math.Abs(weekly.MonthlyAmount()-1300) > 1e-9 {
		t.Fatalf("expected 1300, got %.4f", weekly.MonthlyAmount())
	}

	if _, ok := ParsePayFrequency("daily"); ok {
		t.Fatal("expected unknown frequency to be rejected")
	}
	if frequency, ok := ParsePayFrequency(""); !ok || frequency != Monthly {
		t.Fatalf("expected monthly default, got %q", frequency)
	}
}

// TestAnalyzerSurplus проверяет профицит, безопасный профицит и оценку здоровья.
func TestAnalyzerSurplus(t *testing.T) {
	analyzer := NewAnalyzer(sampleProfile(), samplePortfolio(), DefaultThresholds())

	if analyzer.Obligations() != 2950 {
		t.Fatalf("expected obligations 2950, got %.2f", analyzer.Obligations())
	}
	if analyzer.Surplus() != 2050 {
		t.Fatalf("expected surplus 2050, got %.2f", analyzer.Surplus())
	}
	if analyzer.ConservativeSurplus() != 2250 {
		t.Fatalf("expected conservative surplus 2250, got %.2f", analyzer.ConservativeSurplus())
	}
	if math.Abs(analyzer.SafeSurplus()-1845) > 1e-9 {
		t.Fatalf("expected safe surplus 1845, got %.2f", analyzer.SafeSurplus())
	}
	if analyzer.HealthScore() != HealthExcellent {
		t.Fatalf("expected excellent health, got %s", analyzer.HealthScore())
	}
}

// TestAnalyzerNegativeCashflow проверяет критический флаг и нулевой безопасный профицит.
func TestAnalyzerNegativeCashflow(t *testing.T) {
	profile := sampleProfile()
	profile.Income[0].Amount = 2000

	analyzer := NewAnalyzer(profile, samplePortfolio(), DefaultThresholds())
	if analyzer.SafeSurplus() != 0 {
		t.Fatalf("expected zero safe surplus, got %.2f", analyzer.SafeSurplus())
	}
	if analyzer.HealthScore() != HealthCritical {
		t.Fatalf("expected critical health, got %s", analyzer.HealthScore())
	}
	if !containsPrefix(analyzer.RedFlags(), "CRITICAL: negative monthly cashflow") {
		t.Fatalf("expected negative cashflow flag, got %v", analyzer.RedFlags())
	}
}

// TestAnalyzerRatios проверяет коэффициенты долговой нагрузки.
func TestAnalyzerRatios(t *testing.T) {
	analyzer := NewAnalyzer(sampleProfile(), samplePortfolio(), DefaultThresholds())

	dti := analyzer.DebtToIncome()
	if dti == nil || math.Abs(*dti-17000.0/60000.0) > 1e-9 {
		t.Fatalf("unexpected debt-to-income %v", dti)
	}
	dsr := analyzer.DebtServiceRatio()
	if dsr == nil || math.Abs(*dsr-0.09) > 1e-9 {
		t.Fatalf("unexpected debt service ratio %v", dsr)
	}

	empty := NewProfile()
	analyzer = NewAnalyzer(empty, samplePortfolio(), DefaultThresholds())
	if analyzer.DebtToIncome() != nil || analyzer.DebtServiceRatio() != nil {
		t.Fatal("expected undefined ratios without income")
	}
}

// TestAnalyzerRedFlags проверяет предупреждения о резервном фонде, ставке и неамортизируемом долге.
func TestAnalyzerRedFlags(t *testing.T) {
	profile := sampleProfile()
	profile.CurrentSavings = 100

	portfolio := engine.NewPortfolio(
		engine.Debt{Name: "Store Card", Balance: 2000, AnnualRate: 0.27, MinimumPayment: 30},
	)

	flags := NewAnalyzer(profile, portfolio, DefaultThresholds()).RedFlags()
	if !containsPrefix(flags, "WARNING: emergency fund") {
		t.Fatalf("expected emergency fund warning, got %v", flags)
	}
	if !containsPrefix(flags, "WARNING: high-interest debt detected, Store Card has 27.0% APR") {
		t.Fatalf("expected high interest warning, got %v", flags)
	}
	if !containsPrefix(flags, "CRITICAL: Store Card minimum payment does not cover interest") {
		t.Fatalf("expected growing balance flag, got %v", flags)
	}
}

// TestProfileValidate проверяет блокирующие предупреждения профиля.
func TestProfileValidate(t *testing.T) {
	profile := sampleProfile()
	profile.CurrentSavings = -1

	warnings := profile.Validate()
	found := false
	for _, warning := range warnings {
		if strings.Contains(warning, "cannot be negative") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected negative savings warning, got %v", warnings)
	}

	if warnings := sampleProfile().Validate(); len(warnings) != 0 {
		t.Fatalf("expected clean profile, got %v", warnings)
	}
}

// TestSummary проверяет сводку денежного потока.
func TestSummary(t *testing.T) {
	summary := NewAnalyzer(sampleProfile(), samplePortfolio(), DefaultThresholds()).Summary()

	if summary.MonthlyIncome != 5000 || summary.MonthlyDebtMinimums != 450 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.EmergencyFund.Target != 6900 || !summary.EmergencyFund.Adequate {
		t.Fatalf("unexpected emergency fund %+v", summary.EmergencyFund)
	}
	if len(summary.RedFlags) != 0 {
		t.Fatalf("expected no red flags, got %v", summary.RedFlags)
	}
}
