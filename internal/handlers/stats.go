package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"example.com/debt-planner/backend/internal/auth"
	"example.com/debt-planner/backend/internal/repository"
)

type StatsHandler struct {
	Stats *repository.StatsRepository
}

// NewStatsHandler создает обработчик статистики.
func NewStatsHandler(stats *repository.StatsRepository) *StatsHandler {
	return &StatsHandler{Stats: stats}
}

type OverviewResponse struct {
	TotalPlans           int      `json:"total_plans"`
	SharedPlans          int      `json:"shared_plans"`
	BestMonthsToDebtFree *int     `json:"best_months_to_debt_free"`
	LatestTotalDebt      *float64 `json:"latest_total_debt"`
	LatestSurplus        *float64 `json:"latest_monthly_surplus"`
}

type StrategyStatsItem struct {
	Strategy            string   `json:"strategy"`
	Plans               int      `json:"plans"`
	AvgMonthsToDebtFree *float64 `json:"avg_months_to_debt_free"`
	UnresolvedPlans     int      `json:"unresolved_plans"`
}

type DebtTrendResponse struct {
	Months []DebtTrendItem `json:"months"`
}

type DebtTrendItem struct {
	Month            string  `json:"month"`
	TotalDebt        float64 `json:"total_debt"`
	MonthlySurplus   float64 `json:"monthly_surplus"`
	MonthsToDebtFree *int    `json:"months_to_debt_free"`
}

// Overview возвращает сводку по сохраненным планам пользователя.
func (h *StatsHandler) Overview(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	stats, err := h.Stats.Overview(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, OverviewResponse{
		TotalPlans:           stats.TotalPlans,
		SharedPlans:          stats.SharedPlans,
		BestMonthsToDebtFree: stats.BestMonthsToDebtFree,
		LatestTotalDebt:      stats.LatestTotalDebt,
		LatestSurplus:        stats.LatestSurplus,
	})
}

// ByStrategy группирует планы по стратегии погашения.
func (h *StatsHandler) ByStrategy(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	items, err := h.Stats.ByStrategy(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	response := make([]StrategyStatsItem, 0, len(items))
	for _, item := range items {
		response = append(response, StrategyStatsItem(item))
	}

	return c.JSON(http.StatusOK, map[string][]StrategyStatsItem{"strategies": response})
}

// DebtTrend показывает, как менялся долг между сохраненными планами по месяцам.
func (h *StatsHandler) DebtTrend(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	months := 12
	if raw := c.QueryParam("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return badRequest(c, "invalid months")
		}
		if parsed > 36 {
			parsed = 36
		}
		months = parsed
	}

	items, err := h.Stats.DebtTrend(c.Request().Context(), userID, months)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid months")
		}
		return serverError(c)
	}

	response := make([]DebtTrendItem, 0, len(items))
	for _, item := range items {
		response = append(response, DebtTrendItem{
			Month:            item.Month.Format("2006-01"),
			TotalDebt:        item.TotalDebt,
			MonthlySurplus:   item.MonthlySurplus,
			MonthsToDebtFree: item.MonthsToDebtFree,
		})
	}

	return c.JSON(http.StatusOK, DebtTrendResponse{Months: response})
}
