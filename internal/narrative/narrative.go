package narrative

import (
	"fmt"
	"strings"

	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/money"
)

const Disclaimer = "IMPORTANT DISCLAIMER: This tool provides educational planning estimates only " +
	"and is not financial, investment, tax, or legal advice. All projections are " +
	"hypothetical and not guaranteed. Actual results may vary significantly. " +
	"Consider consulting a qualified financial professional before making financial decisions."

const notAvailable = "N/A"

// Input — данные рекомендованного плана, из которых собирается текст отчета.
type Input struct {
	Strategy               engine.Strategy
	Risk                   cashflow.RiskTolerance
	Portfolio              engine.Portfolio
	Cashflow               cashflow.Summary
	DebtShare              float64
	InvestShare            float64
	ExtraDebtPayment       float64
	InvestmentContribution float64
	Funds                  []allocation.Fund
	MonthsToDebtFree       *int
	TotalInterestPaid      float64
	InterestSaved          *float64
	InvestmentAtDebtFree   engine.Estimates
	FinalInvestment        engine.Estimates
	PriorityDebt           string
	Scenarios              engine.ScenarioSet
}

// Report — готовые текстовые блоки отчета.
type Report struct {
	ExecutiveSummary    string   `json:"executive_summary"`
	DetailedExplanation string   `json:"detailed_explanation"`
	TradeoffAnalysis    string   `json:"tradeoff_analysis"`
	ActionSteps         []string `json:"action_steps"`
	Disclaimer          string   `json:"disclaimer"`
}

// Generate собирает полный детерминированный отчет.
func Generate(in Input) Report {
	return Report{
		ExecutiveSummary:    ExecutiveSummary(in),
		DetailedExplanation: DetailedExplanation(in),
		TradeoffAnalysis:    TradeoffAnalysis(in.Scenarios),
		ActionSteps:         ActionSteps(in),
		Disclaimer:          Disclaimer,
	}
}

func ExecutiveSummary(in Input) string {
	parts := make([]string, 0, 6)

	parts = append(parts, fmt.Sprintf(
		"Based on your financial profile, this is a personalized debt payoff plan using the %s strategy.",
		in.Strategy,
	))
	parts = append(parts, fmt.Sprintf(
		"You currently have %s in total debt across %d account(s) with a weighted average interest rate of %s. "+
			"Your monthly surplus after all expenses and minimum payments is %s.",
		money.Format(in.Portfolio.TotalBalance()), len(in.Portfolio.Debts),
		money.Percent(in.Portfolio.WeightedAverageRate()), money.Format(in.Cashflow.MonthlySurplus),
	))

	if in.InvestShare > 0 {
		parts = append(parts, fmt.Sprintf(
			"We recommend allocating %s of your surplus (%s) to extra debt payments and %s (%s) to investing.",
			share(in.DebtShare), money.Format(in.ExtraDebtPayment),
			share(in.InvestShare), money.Format(in.InvestmentContribution),
		))
	} else {
		parts = append(parts, fmt.Sprintf(
			"We recommend allocating your full surplus (%s) to extra debt payments. "+
				"Given your current debt profile, focusing on debt elimination provides the best guaranteed return.",
			money.Format(in.ExtraDebtPayment),
		))
	}

	if in.MonthsToDebtFree != nil {
		parts = append(parts, fmt.Sprintf(
			"Following this plan, you could be debt-free in approximately %d months (%s), paying an estimated %s in total interest.",
			*in.MonthsToDebtFree, years(*in.MonthsToDebtFree), money.Format(in.TotalInterestPaid),
		))
		if in.InterestSaved != nil && *in.InterestSaved > 0 {
			parts = append(parts, fmt.Sprintf(
				"This saves approximately %s in interest compared to making only minimum payments.",
				money.Format(*in.InterestSaved),
			))
		}
	} else {
		parts = append(parts, "At the current payment level the debts are not paid off within the planning horizon. "+
			"Increase payments on the debts flagged below.")
	}

	if in.InvestShare > 0 && in.InvestmentAtDebtFree.Medium > 0 {
		parts = append(parts, fmt.Sprintf(
			"By the time you are debt-free, your investment portfolio could grow to approximately %s (medium estimate, not guaranteed).",
			money.Format(in.InvestmentAtDebtFree.Medium),
		))
	}

	return strings.Join(parts, " ")
}

func DetailedExplanation(in Input) string {
	var b strings.Builder

	b.WriteString("## Financial Overview\n")
	fmt.Fprintf(&b, "**Monthly Income:** %s\n", money.Format(in.Cashflow.MonthlyIncome))
	fmt.Fprintf(&b, "**Monthly Expenses:** %s\n", money.Format(in.Cashflow.MonthlyExpenses))
	fmt.Fprintf(&b, "**Monthly Debt Minimums:** %s\n", money.Format(in.Cashflow.MonthlyDebtMinimums))
	fmt.Fprintf(&b, "**Monthly Surplus:** %s\n", money.Format(in.Cashflow.MonthlySurplus))
	fmt.Fprintf(&b, "**Cashflow Health:** %s\n", title(string(in.Cashflow.Health)))

	b.WriteString("\n## Debt Summary\n")
	fmt.Fprintf(&b, "**Total Debt Balance:** %s\n", money.Format(in.Portfolio.TotalBalance()))
	fmt.Fprintf(&b, "**Number of Debts:** %d\n", len(in.Portfolio.Debts))
	fmt.Fprintf(&b, "**Weighted Avg Interest Rate:** %s\n", money.Percent(in.Portfolio.WeightedAverageRate()))
	fmt.Fprintf(&b, "**Total Monthly Interest:** %s\n", money.Format(in.Portfolio.TotalMonthlyInterest()))

	b.WriteString("\n**Individual Debts:**\n")
	for _, debt := range in.Portfolio.Debts {
		fmt.Fprintf(&b, "- **%s** (%s): %s at %s APR, %s minimum payment\n",
			debt.Name, debt.Type, money.Format(debt.Balance), money.Percent(debt.AnnualRate), money.Format(debt.MinimumPayment))
	}

	b.WriteString("\n## Payoff Strategy\n")
	b.WriteString(engine.StrategyDescription(in.Strategy))
	b.WriteString("\n")

	b.WriteString("\n## Allocation Rationale\n")
	if in.InvestShare > 0 {
		fmt.Fprintf(&b, "Your surplus is allocated %s to debt and %s to investing based on:\n", share(in.DebtShare), share(in.InvestShare))
		fmt.Fprintf(&b, "- Your risk tolerance: %s\n", in.Risk)
		fmt.Fprintf(&b, "- Your debt interest rates (avg %s)\n", money.Percent(in.Portfolio.WeightedAverageRate()))
		b.WriteString("- Your emergency fund status\n")
		b.WriteString("- Expected market returns vs guaranteed debt payoff returns\n")
	} else {
		b.WriteString("We recommend 100% allocation to debt payoff (no investing) because:\n")
		if !in.Cashflow.EmergencyFund.Adequate {
			b.WriteString("- Your emergency fund is below recommended levels\n")
		}
		if in.Portfolio.HasHighInterest(0.15) {
			b.WriteString("- You have high-interest debt that exceeds typical market returns\n")
		}
		if in.Cashflow.MonthlySurplus <= 0 {
			b.WriteString("- There is no monthly surplus to invest\n")
		}
	}

	b.WriteString("\n## Timeline and Projections\n")
	if in.MonthsToDebtFree != nil {
		fmt.Fprintf(&b, "**Estimated Time to Debt-Free:** %d months (%s)\n", *in.MonthsToDebtFree, years(*in.MonthsToDebtFree))
		fmt.Fprintf(&b, "**Total Interest Paid:** %s\n", money.Format(in.TotalInterestPaid))
		if in.InterestSaved != nil {
			fmt.Fprintf(&b, "**Interest Saved vs Minimums:** %s\n", money.Format(*in.InterestSaved))
		} else {
			fmt.Fprintf(&b, "**Interest Saved vs Minimums:** %s (minimum payments never clear the debt)\n", notAvailable)
		}
	} else {
		fmt.Fprintf(&b, "**Estimated Time to Debt-Free:** %s (beyond the planning horizon)\n", notAvailable)
	}

	if in.InvestShare > 0 {
		b.WriteString("\n**Investment Projections** (illustrative, not guaranteed):\n")
		fmt.Fprintf(&b, "- Low estimate: %s\n", money.Format(in.FinalInvestment.Low))
		fmt.Fprintf(&b, "- Medium estimate: %s\n", money.Format(in.FinalInvestment.Medium))
		fmt.Fprintf(&b, "- High estimate: %s\n", money.Format(in.FinalInvestment.High))
	}

	return b.String()
}

// TradeoffAnalysis сравнивает три сценария и выделяет цену сбалансированного подхода.
func TradeoffAnalysis(set engine.ScenarioSet) string {
	var b strings.Builder

	b.WriteString("## Scenario Comparison\n\n")
	b.WriteString("Three approaches were analyzed to show the tradeoffs between aggressive debt payoff and building investments:\n\n")

	for i, scenario := range set.All() {
		fmt.Fprintf(&b, "### %d. %s\n", i+1, scenario.Name)
		fmt.Fprintf(&b, "%s\n\n", scenario.Description)

		if scenario.MonthsToDebtFree == nil {
			b.WriteString("- **Time to debt-free:** will not pay off within the planning horizon\n")
			fmt.Fprintf(&b, "- **Debt remaining at horizon:** %s\n\n", money.Format(scenario.RemainingDebt))
			continue
		}

		fmt.Fprintf(&b, "- **Time to debt-free:** %d months\n", *scenario.MonthsToDebtFree)
		fmt.Fprintf(&b, "- **Total interest paid:** %s\n", money.Format(scenario.TotalInterestPaid))
		fmt.Fprintf(&b, "- **Investment value at end:** %s\n", money.Format(scenario.InvestmentValue.Medium))
		fmt.Fprintf(&b, "- **Net worth at end:** %s\n\n", money.Format(scenario.NetWorth.Medium))
	}

	b.WriteString("### Key Insights\n\n")

	debtOnly, balanced := set.DebtOnly, set.Balanced
	if debtOnly.MonthsToDebtFree == nil || balanced.MonthsToDebtFree == nil {
		b.WriteString("At least one scenario does not clear the debt within the planning horizon, so the comparison is incomplete.\n")
		return b.String()
	}

	fmt.Fprintf(&b,
		"The balanced approach takes approximately %d more months to become debt-free and costs %s more in interest, "+
			"but builds %s in investments during the payoff period. ",
		*balanced.MonthsToDebtFree-*debtOnly.MonthsToDebtFree,
		money.Format(balanced.TotalInterestPaid-debtOnly.TotalInterestPaid),
		money.Format(balanced.InvestmentAtDebtFree.Medium-debtOnly.InvestmentAtDebtFree.Medium),
	)

	if balanced.NetWorth.Medium > debtOnly.NetWorth.Medium {
		fmt.Fprintf(&b, "The balanced approach results in approximately %s higher net worth at the end (medium estimate, not guaranteed).\n",
			money.Format(balanced.NetWorth.Medium-debtOnly.NetWorth.Medium))
	} else {
		b.WriteString("The debt-only approach ends with higher net worth because freed payments are invested sooner after payoff.\n")
	}

	return b.String()
}

// ActionSteps возвращает пошаговый план действий.
func ActionSteps(in Input) []string {
	steps := make([]string, 0, 8)

	steps = append(steps, fmt.Sprintf(
		"Set up automatic minimum payments for all %d debts (total %s/month) to ensure no missed payments.",
		len(in.Portfolio.Debts), money.Format(in.Portfolio.TotalMinimumPayments()),
	))

	if in.ExtraDebtPayment > 0 && in.PriorityDebt != "" {
		steps = append(steps, fmt.Sprintf(
			"Pay an extra %s/month toward %s (highest priority under the %s strategy).",
			money.Format(in.ExtraDebtPayment), in.PriorityDebt, in.Strategy,
		))
	}

	if in.InvestmentContribution > 0 {
		steps = append(steps, fmt.Sprintf(
			"Set up an automatic monthly investment of %s into your chosen portfolio. Consider the allocations below.",
			money.Format(in.InvestmentContribution),
		))
		for _, fund := range in.Funds {
			steps = append(steps, fmt.Sprintf("  - %s to %s (e.g., %s): %s", share(fund.Share), fund.Category, fund.ExampleTicker, fund.Description))
		}
	}

	steps = append(steps, "Review your plan monthly and adjust as your financial situation changes. "+
		"Update balances, income, and expenses to recalculate your optimal strategy.")

	if in.MonthsToDebtFree != nil {
		freed := in.Portfolio.TotalMinimumPayments() + in.ExtraDebtPayment
		steps = append(steps, fmt.Sprintf(
			"Once debt-free, redirect the %s/month previously going to debt payments into investments and other financial goals.",
			money.Format(freed),
		))
	}

	steps = append(steps, "Maintain and build your emergency fund to cover 3-6 months of essential expenses. "+
		"This provides a safety net and prevents new debt accumulation.")

	return steps
}

// Row — строка сравнительной таблицы сценариев.
type Row struct {
	Scenario          string `json:"scenario"`
	MonthsToDebtFree  string `json:"months_to_debt_free"`
	TotalInterestPaid string `json:"total_interest_paid"`
	TotalInvested     string `json:"total_invested"`
	InvestmentValue   string `json:"investment_value_medium"`
	NetWorth          string `json:"net_worth_medium"`
}

// Headers возвращает заголовки колонок в порядке полей Row.
func Headers() []string {
	return []string{"Scenario", "Months to Debt-Free", "Total Interest Paid", "Total Invested", "Est. Value (Medium)", "Est. Net Worth (Medium)"}
}

// Cells возвращает значения строки в порядке Headers.
func (r Row) Cells() []string {
	return []string{r.Scenario, r.MonthsToDebtFree, r.TotalInterestPaid, r.TotalInvested, r.InvestmentValue, r.NetWorth}
}

// ComparisonTable строит строки таблицы; непогашаемые сценарии получают "N/A".
func ComparisonTable(set engine.ScenarioSet) []Row {
	rows := make([]Row, 0, 3)
	for _, scenario := range set.All() {
		months := notAvailable
		if scenario.MonthsToDebtFree != nil {
			months = fmt.Sprintf("%d", *scenario.MonthsToDebtFree)
		}

		rows = append(rows, Row{
			Scenario:          scenario.Name,
			MonthsToDebtFree:  months,
			TotalInterestPaid: money.Format(scenario.TotalInterestPaid),
			TotalInvested:     money.Format(scenario.TotalInvestmentContributions),
			InvestmentValue:   money.Format(scenario.InvestmentValue.Medium),
			NetWorth:          money.Format(scenario.NetWorth.Medium),
		})
	}
	return rows
}

func share(value float64) string {
	return fmt.Sprintf("%.0f%%", value*100)
}

func years(months int) string {
	return fmt.Sprintf("%.1f years", float64(months)/12)
}

func title(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
