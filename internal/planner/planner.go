package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/debt-planner/backend/internal/ai"
	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cache"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/narrative"
)

const defaultNarrationTimeout = 15 * time.Second

// Narrator переписывает отчет по плану; реализуется ai.Service.
type Narrator interface {
	Narrate(ctx context.Context, input ai.NarrativeInput) (ai.NarrativeResponse, string, []byte, error)
}

type Options struct {
	Engine             *engine.Engine
	Policy             *allocation.Policy
	CashflowThresholds cashflow.Thresholds
	Narrator           Narrator
	Cache              cache.Cache
	Logger             *slog.Logger
	NarrationTimeout   time.Duration
}

type Planner struct {
	engine           *engine.Engine
	policy           *allocation.Policy
	thresholds       cashflow.Thresholds
	narrator         Narrator
	cache            cache.Cache
	logger           *slog.Logger
	narrationTimeout time.Duration
}

// New создает планировщик. Narrator и Cache необязательны.
func New(options Options) *Planner {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := options.NarrationTimeout
	if timeout <= 0 {
		timeout = defaultNarrationTimeout
	}

	return &Planner{
		engine:           options.Engine,
		policy:           options.Policy,
		thresholds:       options.CashflowThresholds,
		narrator:         options.Narrator,
		cache:            options.Cache,
		logger:           logger,
		narrationTimeout: timeout,
	}
}

// Engine возвращает движок симуляции.
func (p *Planner) Engine() *engine.Engine {
	return p.engine
}

// Validate собирает предупреждения профиля, портфеля и денежного потока.
// Возвращает *ValidationError, если среди них есть критические.
func (p *Planner) Validate(profile cashflow.Profile, portfolio engine.Portfolio) ([]string, error) {
	analyzer := cashflow.NewAnalyzer(profile, portfolio, p.thresholds)

	warnings := make([]string, 0)
	warnings = append(warnings, profile.Validate()...)
	warnings = append(warnings, portfolio.Validate()...)
	warnings = append(warnings, analyzer.RedFlags()...)
	warnings = dedupe(warnings)

	critical := make([]string, 0)
	for _, warning := range warnings {
		if isCritical(warning) {
			critical = append(critical, warning)
		}
	}

	if len(critical) > 0 {
		return warnings, &ValidationError{Critical: critical, Warnings: warnings}
	}
	return warnings, nil
}

// CreatePlan проверяет входные данные, делит профицит, моделирует рекомендованный план
// и три сценария сравнения, затем собирает отчет.
func (p *Planner) CreatePlan(ctx context.Context, request Request) (Output, error) {
	strategy := request.Strategy
	if strategy == "" {
		strategy = engine.StrategyAvalanche
	}

	// Ошибки структуры (пустые имена, дубликаты, неизвестная стратегия) отсекаются до анализа.
	order, err := p.engine.Prioritize(request.Debts, strategy)
	if err != nil {
		return Output{}, err
	}

	portfolio := engine.NewPortfolio(request.Debts...)
	profile := request.Profile

	warnings, err := p.Validate(profile, portfolio)
	if err != nil {
		return Output{}, err
	}

	analyzer := cashflow.NewAnalyzer(profile, portfolio, p.thresholds)
	surplus := max(0, analyzer.Surplus())
	if request.UseSafeSurplus {
		surplus = analyzer.SafeSurplus()
	}

	var split allocation.Split
	if request.CustomDebtShare != nil && request.CustomInvestShare != nil {
		splitWarnings, err := p.policy.ValidateSplit(profile, portfolio, *request.CustomDebtShare, *request.CustomInvestShare)
		if err != nil {
			return Output{}, err
		}
		warnings = append(warnings, splitWarnings...)
		split = allocation.Split{
			DebtShare:   *request.CustomDebtShare,
			InvestShare: *request.CustomInvestShare,
			Reasoning:   []string{"Using custom allocation percentages."},
		}
	} else {
		split = p.policy.Recommend(profile, portfolio, surplus)
	}

	extra, invest, err := p.engine.SplitSurplus(surplus, split.DebtShare, split.InvestShare)
	if err != nil {
		return Output{}, err
	}

	returns := p.policy.ExpectedReturns(profile.RiskTolerance)

	var (
		combined  engine.CombinedResult
		interest  engine.InterestComparison
		scenarios engine.ScenarioSet
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		combined, err = p.engine.SimulateCombined(request.Debts, engine.CombinedInput{
			ExtraDebtPayment:       extra,
			InvestmentContribution: invest,
			Strategy:               strategy,
			Returns:                returns,
			InitialInvestment:      profile.CurrentInvestments,
		})
		return err
	})
	group.Go(func() error {
		var err error
		interest, err = p.engine.CalculateInterestSaved(request.Debts, extra, strategy)
		return err
	})
	group.Go(func() error {
		var err error
		scenarios, err = p.compareScenarios(groupCtx, request.Debts, surplus, strategy, returns, profile.CurrentInvestments)
		return err
	})
	if err := group.Wait(); err != nil {
		return Output{}, err
	}

	plan := Plan{
		Strategy:               strategy,
		RiskTolerance:          profile.RiskTolerance,
		MonthlySurplus:         surplus,
		DebtShare:              split.DebtShare,
		InvestShare:            split.InvestShare,
		ExtraDebtPayment:       extra,
		InvestmentContribution: invest,
		Returns:                returns,
		Funds:                  allocation.Funds(profile.RiskTolerance),
		PayoffOrder:            order,
		MonthsToDebtFree:       combined.MonthsToDebtFree,
		TotalInterestPaid:      combined.TotalInterestPaid,
		InvestmentAtDebtFree:   combined.InvestmentAtDebtFree,
		FinalInvestment:        combined.FinalInvestment,
		RemainingDebt:          combined.RemainingDebt,
		Unresolved:             combined.Payoff.Unresolved,
		Warnings:               warnings,
		Recommendations:        split.Reasoning,
	}
	if saved, ok := interest.Saved(); ok {
		plan.InterestSaved = &saved
	}
	if invest == 0 {
		plan.Funds = []allocation.Fund{}
	}

	summary := analyzer.Summary()
	output := Output{
		Plan:            plan,
		Scenarios:       scenarios,
		Table:           narrative.ComparisonTable(scenarios),
		Cashflow:        summary,
		Debts:           Summarize(portfolio, p.thresholds.HighInterest),
		NarrativeSource: NarrativeDeterministic,
	}
	if request.IncludeSchedule {
		output.Schedule = combined.Payoff.Snapshots
	}

	input := narrativeInput(plan, profile, portfolio, summary, scenarios)
	output.Report = narrative.Generate(input)
	p.narrate(ctx, &output)

	return output, nil
}

// compareScenarios берет сравнение из кэша или считает его и сохраняет.
// Ошибки кэша не прерывают планирование.
func (p *Planner) compareScenarios(ctx context.Context, debts []engine.Debt, surplus float64, strategy engine.Strategy, returns engine.Returns, initial float64) (engine.ScenarioSet, error) {
	key, err := cache.Key("scenarios", struct {
		Debts    []engine.Debt   `json:"debts"`
		Surplus  float64         `json:"surplus"`
		Strategy engine.Strategy `json:"strategy"`
		Returns  engine.Returns  `json:"returns"`
		Initial  float64         `json:"initial"`
		Settings engine.Settings `json:"settings"`
	}{debts, surplus, strategy, returns, initial, p.engine.Settings()})
	if err != nil {
		return engine.ScenarioSet{}, err
	}

	var set engine.ScenarioSet
	hit, err := cache.GetJSON(ctx, p.cache, key, &set)
	if err != nil {
		p.logger.Warn("scenario cache read failed", slog.String("error", err.Error()))
	}
	if hit {
		return set, nil
	}

	set, err = p.engine.CompareScenarios(debts, surplus, strategy, returns, initial)
	if err != nil {
		return engine.ScenarioSet{}, err
	}

	if err := cache.SetJSON(ctx, p.cache, key, set); err != nil {
		p.logger.Warn("scenario cache write failed", slog.String("error", err.Error()))
	}
	return set, nil
}

// narrate заменяет краткое резюме, анализ компромиссов и шаги текстом модели.
// При любой ошибке остается детерминированный текст.
func (p *Planner) narrate(ctx context.Context, output *Output) {
	if p.narrator == nil {
		return
	}

	narrationCtx, cancel := context.WithTimeout(ctx, p.narrationTimeout)
	defer cancel()

	response, prompt, raw, err := p.narrator.Narrate(narrationCtx, aiInput(*output))
	trace := &NarrationTrace{Prompt: prompt, Raw: raw, Err: err}
	output.Narration = trace

	if err != nil {
		p.logger.Warn("plan narrative fallback used", slog.String("error", err.Error()))
		return
	}

	if payload, err := json.Marshal(response); err == nil {
		trace.Response = payload
	}

	output.Report.ExecutiveSummary = response.ExecutiveSummary
	output.Report.ActionSteps = response.ActionSteps
	if response.TradeoffSummary != "" {
		output.Report.TradeoffAnalysis = response.TradeoffSummary + "\n\n" + output.Report.TradeoffAnalysis
	}
	output.NarrativeSource = NarrativeAI
}

func narrativeInput(plan Plan, profile cashflow.Profile, portfolio engine.Portfolio, summary cashflow.Summary, scenarios engine.ScenarioSet) narrative.Input {
	priority := ""
	if len(plan.PayoffOrder) > 0 {
		priority = plan.PayoffOrder[0]
	}

	return narrative.Input{
		Strategy:               plan.Strategy,
		Risk:                   profile.RiskTolerance,
		Portfolio:              portfolio,
		Cashflow:               summary,
		DebtShare:              plan.DebtShare,
		InvestShare:            plan.InvestShare,
		ExtraDebtPayment:       plan.ExtraDebtPayment,
		InvestmentContribution: plan.InvestmentContribution,
		Funds:                  plan.Funds,
		MonthsToDebtFree:       plan.MonthsToDebtFree,
		TotalInterestPaid:      plan.TotalInterestPaid,
		InterestSaved:          plan.InterestSaved,
		InvestmentAtDebtFree:   plan.InvestmentAtDebtFree,
		FinalInvestment:        plan.FinalInvestment,
		PriorityDebt:           priority,
		Scenarios:              scenarios,
	}
}

func aiInput(output Output) ai.NarrativeInput {
	plan := output.Plan

	input := ai.NarrativeInput{
		Strategy:               string(plan.Strategy),
		RiskTolerance:          string(plan.RiskTolerance),
		Currency:               "USD",
		MonthlySurplus:         plan.MonthlySurplus,
		DebtShare:              plan.DebtShare,
		InvestShare:            plan.InvestShare,
		ExtraDebtPayment:       plan.ExtraDebtPayment,
		InvestmentContribution: plan.InvestmentContribution,
		MonthsToDebtFree:       plan.MonthsToDebtFree,
		TotalInterestPaid:      plan.TotalInterestPaid,
		InterestSaved:          plan.InterestSaved,
		Debts:                  make([]ai.DebtSnapshot, 0, len(output.Debts.Debts)),
		Scenarios:              make([]ai.ScenarioSnapshot, 0, 3),
		Warnings:               plan.Warnings,
	}

	for _, debt := range output.Debts.Debts {
		input.Debts = append(input.Debts, ai.DebtSnapshot{
			Name:           debt.Name,
			Type:           string(debt.Type),
			Balance:        debt.Balance,
			AnnualRate:     debt.AnnualRate,
			MinimumPayment: debt.MinimumPayment,
		})
	}
	for _, scenario := range output.Scenarios.All() {
		input.Scenarios = append(input.Scenarios, ai.ScenarioSnapshot{
			Name:                  scenario.Name,
			MonthsToDebtFree:      scenario.MonthsToDebtFree,
			TotalInterestPaid:     scenario.TotalInterestPaid,
			InvestmentValueMedium: scenario.InvestmentValue.Medium,
			NetWorthMedium:        scenario.NetWorth.Medium,
		})
	}
	return input
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
