package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/debt-planner/backend/internal/auth"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/models"
	"example.com/debt-planner/backend/internal/notifications"
	"example.com/debt-planner/backend/internal/planner"
	"example.com/debt-planner/backend/internal/repository"
)

const aiLogTimeout = 5 * time.Second

type PlanHandler struct {
	Planner    *planner.Planner
	Plans      *repository.PlanRepository
	AILog      *repository.AIRepository
	Tokens     *auth.TokenManager
	Notifier   *notifications.Hub
	Logger     *slog.Logger
	AIProvider string
	AIModel    string
}

// PlanHandlerOptions — зависимости обработчика планов; AILog и Notifier необязательны.
type PlanHandlerOptions struct {
	Planner    *planner.Planner
	Plans      *repository.PlanRepository
	AILog      *repository.AIRepository
	Tokens     *auth.TokenManager
	Notifier   *notifications.Hub
	Logger     *slog.Logger
	AIProvider string
	AIModel    string
}

// NewPlanHandler создает обработчик планов погашения.
func NewPlanHandler(options PlanHandlerOptions) *PlanHandler {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PlanHandler{
		Planner:    options.Planner,
		Plans:      options.Plans,
		AILog:      options.AILog,
		Tokens:     options.Tokens,
		Notifier:   options.Notifier,
		Logger:     logger,
		AIProvider: options.AIProvider,
		AIModel:    options.AIModel,
	}
}

type CreatePlanResponse struct {
	PlanID *uuid.UUID     `json:"plan_id,omitempty"`
	Output planner.Output `json:"plan"`
}

type PlanSummaryResponse struct {
	ID               uuid.UUID              `json:"id"`
	Title            string                 `json:"title"`
	Strategy         string                 `json:"strategy"`
	MonthlySurplus   float64                `json:"monthly_surplus"`
	TotalDebt        float64                `json:"total_debt"`
	MonthsToDebtFree *int                   `json:"months_to_debt_free"`
	NarrativeSource  models.NarrativeSource `json:"narrative_source"`
	Shared           bool                   `json:"shared"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type PlanDetailResponse struct {
	Plan    PlanSummaryResponse `json:"plan"`
	Request json.RawMessage     `json:"request"`
	Output  json.RawMessage     `json:"output"`
}

type RenamePlanRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type ShareResponse struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SharedPlanResponse struct {
	Title     string          `json:"title"`
	Strategy  string          `json:"strategy"`
	CreatedAt time.Time       `json:"created_at"`
	Output    json.RawMessage `json:"output"`
}

// Create строит план; с "save": true сохраняет его для авторизованного пользователя.
func (h *PlanHandler) Create(c echo.Context) error {
	var input planner.PlanInput
	if message := bindRequest(c, &input); message != "" {
		return badRequest(c, message)
	}

	userID, authenticated := auth.UserIDFromContext(c)
	if input.Save && !authenticated {
		return unauthorized(c)
	}

	request, err := input.ToRequest()
	if err != nil {
		if errors.Is(err, engine.ErrInvalidStrategy) || errors.Is(err, engine.ErrInvalidPortfolio) {
			return engineError(c, err)
		}
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	output, err := h.Planner.CreatePlan(ctx, request)
	if err != nil {
		return engineError(c, err)
	}

	response := CreatePlanResponse{Output: output}
	var planID *uuid.UUID

	if input.Save {
		saved, err := h.save(ctx, userID, input, output)
		if err != nil {
			h.Logger.Error("plan save failed", slog.String("user_id", userID.String()), slog.String("error", err.Error()))
			return serverError(c)
		}
		planID = &saved.ID
		response.PlanID = planID

		h.Notifier.PublishPlan(userID, notifications.EventPlanCreated, notifications.PlanEvent{
			PlanID:           saved.ID,
			Title:            saved.Title,
			Strategy:         saved.Strategy,
			MonthsToDebtFree: saved.MonthsToDebtFree,
		})
	}

	var owner *uuid.UUID
	if authenticated {
		owner = &userID
	}
	h.logNarration(ctx, owner, planID, output.Narration)

	status := http.StatusOK
	if input.Save {
		status = http.StatusCreated
	}
	return c.JSON(status, response)
}

// List возвращает сохраненные планы пользователя.
func (h *PlanHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	limit, offset, err := parsePagination(c, 20, 100)
	if err != nil {
		return badRequest(c, err.Error())
	}

	plans, err := h.Plans.ListByUser(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return serverError(c)
	}

	response := make([]PlanSummaryResponse, 0, len(plans))
	for _, plan := range plans {
		response = append(response, toPlanSummary(plan))
	}

	return c.JSON(http.StatusOK, map[string][]PlanSummaryResponse{"plans": response})
}

// Get возвращает сохраненный план с исходным запросом и результатом.
func (h *PlanHandler) Get(c echo.Context) error {
	plan, err := h.ownedPlan(c)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	return c.JSON(http.StatusOK, PlanDetailResponse{
		Plan:    toPlanSummary(*plan),
		Request: plan.Request,
		Output:  plan.Output,
	})
}

// Rename меняет заголовок сохраненного плана.
func (h *PlanHandler) Rename(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid plan id")
	}

	var req RenamePlanRequest
	if message := bindRequest(c, &req); message != "" {
		return badRequest(c, message)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return badRequest(c, "title is required")
	}

	plan, err := h.Plans.Rename(c.Request().Context(), userID, planID, title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "plan not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, toPlanSummary(plan))
}

// Delete удаляет сохраненный план.
func (h *PlanHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid plan id")
	}

	if err := h.Plans.Delete(c.Request().Context(), userID, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "plan not found")
		}
		return serverError(c)
	}

	h.Notifier.PublishPlan(userID, notifications.EventPlanDeleted, notifications.PlanEvent{PlanID: planID})
	return c.NoContent(http.StatusNoContent)
}

// Duplicate копирует сохраненный план.
func (h *PlanHandler) Duplicate(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid plan id")
	}

	plan, err := h.Plans.Duplicate(c.Request().Context(), userID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "plan not found")
		}
		return serverError(c)
	}

	h.Notifier.PublishPlan(userID, notifications.EventPlanCreated, notifications.PlanEvent{
		PlanID:           plan.ID,
		Title:            plan.Title,
		Strategy:         plan.Strategy,
		MonthsToDebtFree: plan.MonthsToDebtFree,
	})
	return c.JSON(http.StatusCreated, toPlanSummary(plan))
}

// Share выпускает публичную ссылку на план. Повторный вызов заменяет прежнюю ссылку.
func (h *PlanHandler) Share(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid plan id")
	}

	issued, err := h.Tokens.NewShareToken(planID)
	if err != nil {
		return serverError(c)
	}

	if err := h.Plans.SetShare(c.Request().Context(), userID, planID, auth.HashToken(issued.Token), issued.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "plan not found")
		}
		return serverError(c)
	}

	h.Notifier.PublishPlan(userID, notifications.EventPlanShared, notifications.PlanEvent{PlanID: planID})
	return c.JSON(http.StatusCreated, ShareResponse{
		Token:     issued.Token,
		Path:      "/api/v1/shared/" + issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// RevokeShare отключает публичную ссылку.
func (h *PlanHandler) RevokeShare(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid plan id")
	}

	if err := h.Plans.RevokeShare(c.Request().Context(), userID, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "plan not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// Shared отдает план по публичной ссылке без авторизации.
func (h *PlanHandler) Shared(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	planID, err := h.Tokens.ParseShareToken(token)
	if err != nil {
		return notFound(c, "shared plan not found")
	}

	plan, err := h.Plans.GetShared(c.Request().Context(), planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "shared plan not found")
		}
		return serverError(c)
	}

	if plan.ShareTokenHash == nil || !auth.CompareTokenHash(*plan.ShareTokenHash, token) {
		return notFound(c, "shared plan not found")
	}

	return c.JSON(http.StatusOK, SharedPlanResponse{
		Title:     plan.Title,
		Strategy:  plan.Strategy,
		CreatedAt: plan.CreatedAt,
		Output:    plan.Output,
	})
}

// ownedPlan загружает план текущего пользователя; nil без ошибки означает, что ответ уже записан.
func (h *PlanHandler) ownedPlan(c echo.Context) (*models.SavedPlan, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return nil, unauthorized(c)
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, badRequest(c, "invalid plan id")
	}

	plan, err := h.Plans.GetByID(c.Request().Context(), userID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(c, "plan not found")
		}
		return nil, serverError(c)
	}

	return &plan, nil
}

func (h *PlanHandler) save(ctx context.Context, userID uuid.UUID, input planner.PlanInput, output planner.Output) (models.SavedPlan, error) {
	requestPayload, err := json.Marshal(input)
	if err != nil {
		return models.SavedPlan{}, err
	}

	outputPayload, err := json.Marshal(output)
	if err != nil {
		return models.SavedPlan{}, err
	}

	return h.Plans.Create(ctx, userID, repository.NewPlanInput{
		Title:            planTitle(input.Title, output.Plan.Strategy),
		Strategy:         string(output.Plan.Strategy),
		MonthlySurplus:   output.Plan.MonthlySurplus,
		TotalDebt:        output.Debts.TotalBalance,
		MonthsToDebtFree: output.Plan.MonthsToDebtFree,
		NarrativeSource:  models.NarrativeSource(output.NarrativeSource),
		Request:          requestPayload,
		Output:           outputPayload,
	})
}

// logNarration пишет обращение к LLM в журнал; ошибки журнала не влияют на ответ.
func (h *PlanHandler) logNarration(ctx context.Context, userID, planID *uuid.UUID, trace *planner.NarrationTrace) {
	if h.AILog == nil || trace == nil {
		return
	}

	entry := repository.AIRequestLog{
		UserID:          userID,
		PlanID:          planID,
		Provider:        h.AIProvider,
		Model:           h.AIModel,
		Prompt:          trace.Prompt,
		ResponsePayload: trace.Response,
		RawResponse:     string(trace.Raw),
		Success:         trace.Err == nil,
	}
	if trace.Err != nil {
		message := trace.Err.Error()
		entry.ErrorMessage = &message
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), aiLogTimeout)
	defer cancel()

	if err := h.AILog.LogRequest(logCtx, entry); err != nil {
		h.Logger.Warn("ai request log failed", slog.String("error", err.Error()))
	}
}

func planTitle(title string, strategy engine.Strategy) string {
	trimmed := strings.TrimSpace(title)
	if trimmed != "" {
		return trimmed
	}
	name := string(strategy)
	if name == "" {
		return "Debt plan"
	}
	return fmt.Sprintf("%s%s plan", strings.ToUpper(name[:1]), name[1:])
}

func toPlanSummary(plan models.SavedPlan) PlanSummaryResponse {
	return PlanSummaryResponse{
		ID:               plan.ID,
		Title:            plan.Title,
		Strategy:         plan.Strategy,
		MonthlySurplus:   plan.MonthlySurplus,
		TotalDebt:        plan.TotalDebt,
		MonthsToDebtFree: plan.MonthsToDebtFree,
		NarrativeSource:  plan.NarrativeSource,
		Shared:           plan.ShareExpiresAt != nil && plan.ShareExpiresAt.After(time.Now()),
		CreatedAt:        plan.CreatedAt,
		UpdatedAt:        plan.UpdatedAt,
	}
}
