package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

// OverviewStats — сводка по сохраненным планам пользователя.
type OverviewStats struct {
	TotalPlans           int
	SharedPlans          int
	BestMonthsToDebtFree *int
	LatestTotalDebt      *float64
	LatestSurplus        *float64
}

// StrategyStats — сколько раз выбиралась стратегия и средний срок погашения по ней.
type StrategyStats struct {
	Strategy            string
	Plans               int
	AvgMonthsToDebtFree *float64
	UnresolvedPlans     int
}

// DebtTrendPoint — последний сохраненный план месяца.
type DebtTrendPoint struct {
	Month            time.Time
	TotalDebt        float64
	MonthlySurplus   float64
	MonthsToDebtFree *int
}

// NewStatsRepository создает репозиторий статистики.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview возвращает сводную статистику по планам пользователя.
func (r *StatsRepository) Overview(ctx context.Context, userID uuid.UUID) (OverviewStats, error) {
	var stats OverviewStats

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE share_token_hash IS NOT NULL AND share_expires_at > NOW()),
		        MIN(months_to_debt_free)
		 FROM saved_plans
		 WHERE user_id = $1`,
		userID,
	).Scan(&stats.TotalPlans, &stats.SharedPlans, &stats.BestMonthsToDebtFree)
	if err != nil {
		return stats, err
	}

	if stats.TotalPlans == 0 {
		return stats, nil
	}

	var totalDebt, surplus float64
	err = r.db.QueryRow(ctx,
		`SELECT total_debt, monthly_surplus
		 FROM saved_plans
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&totalDebt, &surplus)
	if err != nil {
		return stats, err
	}

	stats.LatestTotalDebt = &totalDebt
	stats.LatestSurplus = &surplus
	return stats, nil
}

// ByStrategy группирует планы пользователя по стратегии.
func (r *StatsRepository) ByStrategy(ctx context.Context, userID uuid.UUID) ([]StrategyStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT strategy,
		        COUNT(*),
		        AVG(months_to_debt_free)::float8,
		        COUNT(*) FILTER (WHERE months_to_debt_free IS NULL)
		 FROM saved_plans
		 WHERE user_id = $1
		 GROUP BY strategy
		 ORDER BY strategy`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StrategyStats, 0)
	for rows.Next() {
		var row StrategyStats
		if err := rows.Scan(&row.Strategy, &row.Plans, &row.AvgMonthsToDebtFree, &row.UnresolvedPlans); err != nil {
			return nil, err
		}
		items = append(items, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// DebtTrend возвращает динамику долга по последним N месяцам, новые первыми.
func (r *StatsRepository) DebtTrend(ctx context.Context, userID uuid.UUID, months int) ([]DebtTrendPoint, error) {
	if months <= 0 {
		return nil, ErrInvalid
	}

	rows, err := r.db.Query(ctx,
		`SELECT month, total_debt, monthly_surplus, months_to_debt_free
		 FROM (
			SELECT DISTINCT ON (date_trunc('month', created_at))
			       date_trunc('month', created_at)::date AS month,
			       total_debt,
			       monthly_surplus,
			       months_to_debt_free
			FROM saved_plans
			WHERE user_id = $1
			ORDER BY date_trunc('month', created_at), created_at DESC
		 ) latest
		 ORDER BY month DESC
		 LIMIT $2`,
		userID, months,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]DebtTrendPoint, 0)
	for rows.Next() {
		var row DebtTrendPoint
		if err := rows.Scan(&row.Month, &row.TotalDebt, &row.MonthlySurplus, &row.MonthsToDebtFree); err != nil {
			return nil, err
		}
		items = append(items, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
