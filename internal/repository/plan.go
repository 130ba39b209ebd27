package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/debt-planner/backend/internal/models"
)

const maxTitleRunes = 200

type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanInput — данные для сохранения результата планирования.
type NewPlanInput struct {
	Title            string
	Strategy         string
	MonthlySurplus   float64
	TotalDebt        float64
	MonthsToDebtFree *int
	NarrativeSource  models.NarrativeSource
	Request          []byte
	Output           []byte
}

const planSummaryColumns = `id, user_id, title, strategy, monthly_surplus, total_debt, months_to_debt_free,
		narrative_source, share_expires_at, created_at, updated_at`

const planDetailColumns = `id, user_id, title, strategy, monthly_surplus, total_debt, months_to_debt_free,
		narrative_source, share_expires_at, created_at, updated_at, request, output, share_token_hash`

// NewPlanRepository создает репозиторий сохраненных планов.
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create сохраняет план пользователя.
func (r *PlanRepository) Create(ctx context.Context, userID uuid.UUID, input NewPlanInput) (models.SavedPlan, error) {
	if len(input.Request) == 0 || len(input.Output) == 0 {
		return models.SavedPlan{}, ErrInvalid
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO saved_plans
		 (user_id, title, strategy, monthly_surplus, total_debt, months_to_debt_free, narrative_source, request, output)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)
		 RETURNING `+planDetailColumns,
		userID,
		truncateTitle(input.Title, maxTitleRunes),
		input.Strategy,
		input.MonthlySurplus,
		input.TotalDebt,
		input.MonthsToDebtFree,
		input.NarrativeSource,
		string(input.Request),
		string(input.Output),
	)

	return scanPlanDetail(row)
}

// GetByID возвращает план пользователя по идентификатору.
func (r *PlanRepository) GetByID(ctx context.Context, userID, planID uuid.UUID) (models.SavedPlan, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+planDetailColumns+`
		 FROM saved_plans
		 WHERE id = $1 AND user_id = $2`,
		planID, userID,
	)

	return scanPlanDetail(row)
}

// GetShared возвращает план по идентификатору без проверки владельца; хэш токена сверяет вызывающий.
func (r *PlanRepository) GetShared(ctx context.Context, planID uuid.UUID) (models.SavedPlan, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+planDetailColumns+`
		 FROM saved_plans
		 WHERE id = $1 AND share_token_hash IS NOT NULL AND share_expires_at > NOW()`,
		planID,
	)

	return scanPlanDetail(row)
}

// ListByUser возвращает сводки планов пользователя, новые первыми.
func (r *PlanRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SavedPlan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+planSummaryColumns+`
		 FROM saved_plans
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.SavedPlan, 0)
	for rows.Next() {
		var plan models.SavedPlan
		if err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.Title,
			&plan.Strategy,
			&plan.MonthlySurplus,
			&plan.TotalDebt,
			&plan.MonthsToDebtFree,
			&plan.NarrativeSource,
			&plan.ShareExpiresAt,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

// Rename меняет заголовок плана.
func (r *PlanRepository) Rename(ctx context.Context, userID, planID uuid.UUID, title string) (models.SavedPlan, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE saved_plans
		 SET title = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+planDetailColumns,
		planID, userID, truncateTitle(title, maxTitleRunes),
	)

	return scanPlanDetail(row)
}

// Delete удаляет сохраненный план.
func (r *PlanRepository) Delete(ctx context.Context, userID, planID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM saved_plans
		 WHERE id = $1 AND user_id = $2`,
		planID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetShare сохраняет хэш ссылки для публичного просмотра; предыдущая ссылка перестает работать.
func (r *PlanRepository) SetShare(ctx context.Context, userID, planID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE saved_plans
		 SET share_token_hash = $3, share_expires_at = $4, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		planID, userID, tokenHash, expiresAt,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RevokeShare отключает публичную ссылку плана.
func (r *PlanRepository) RevokeShare(ctx context.Context, userID, planID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE saved_plans
		 SET share_token_hash = NULL, share_expires_at = NULL, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		planID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Duplicate копирует план пользователя под заголовком "Copy of ...", без публичной ссылки.
func (r *PlanRepository) Duplicate(ctx context.Context, userID, planID uuid.UUID) (models.SavedPlan, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.SavedPlan{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	source, err := scanPlanDetail(tx.QueryRow(ctx,
		`SELECT `+planDetailColumns+`
		 FROM saved_plans
		 WHERE id = $1 AND user_id = $2
		 FOR SHARE`,
		planID, userID,
	))
	if err != nil {
		return models.SavedPlan{}, err
	}

	copied, err := scanPlanDetail(tx.QueryRow(ctx,
		`INSERT INTO saved_plans
		 (user_id, title, strategy, monthly_surplus, total_debt, months_to_debt_free, narrative_source, request, output)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+planDetailColumns,
		userID,
		buildCopyTitle(source.Title, maxTitleRunes),
		source.Strategy,
		source.MonthlySurplus,
		source.TotalDebt,
		source.MonthsToDebtFree,
		source.NarrativeSource,
		[]byte(source.Request),
		[]byte(source.Output),
	))
	if err != nil {
		return models.SavedPlan{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.SavedPlan{}, err
	}

	return copied, nil
}

func scanPlanDetail(row pgx.Row) (models.SavedPlan, error) {
	var plan models.SavedPlan
	var request, output []byte

	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Title,
		&plan.Strategy,
		&plan.MonthlySurplus,
		&plan.TotalDebt,
		&plan.MonthsToDebtFree,
		&plan.NarrativeSource,
		&plan.ShareExpiresAt,
		&plan.CreatedAt,
		&plan.UpdatedAt,
		&request,
		&output,
		&plan.ShareTokenHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return plan, ErrNotFound
		}
		return plan, err
	}

	plan.Request = request
	plan.Output = output
	return plan, nil
}

func buildCopyTitle(title string, maxRunes int) string {
	return truncateTitle(fmt.Sprintf("Copy of %s", title), maxRunes)
}

func truncateTitle(title string, maxRunes int) string {
	runes := []rune(title)
	if len(runes) <= maxRunes {
		return title
	}
	return string(runes[:maxRunes])
}
