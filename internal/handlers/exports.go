package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/models"
	"example.com/debt-planner/backend/internal/money"
	"example.com/debt-planner/backend/internal/narrative"
	"example.com/debt-planner/backend/internal/planner"
)

const (
	exportTypeSchedule  = "schedule"
	exportTypeScenarios = "scenarios"
)

// ExportJSON выгружает сохраненный план в JSON-файл.
func (h *PlanHandler) ExportJSON(c echo.Context) error {
	plan, err := h.ownedPlan(c)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	filename := "plan-" + plan.ID.String() + ".json"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.JSON(http.StatusOK, PlanDetailResponse{
		Plan:    toPlanSummary(*plan),
		Request: plan.Request,
		Output:  plan.Output,
	})
}

// ExportCSV выгружает помесячный график погашения (type=schedule) или таблицу сценариев (type=scenarios).
func (h *PlanHandler) ExportCSV(c echo.Context) error {
	plan, err := h.ownedPlan(c)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	exportType := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	if exportType == "" {
		exportType = exportTypeSchedule
	}

	var output planner.Output
	if err := json.Unmarshal(plan.Output, &output); err != nil {
		return serverError(c)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	switch exportType {
	case exportTypeSchedule:
		schedule, err := h.schedule(*plan, output)
		if err != nil {
			return engineError(c, err)
		}
		if err := writeScheduleCSV(writer, schedule); err != nil {
			return serverError(c)
		}
	case exportTypeScenarios:
		if err := writeScenariosCSV(writer, output.Table); err != nil {
			return serverError(c)
		}
	default:
		return badRequest(c, "invalid export type")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	filename := "plan-" + plan.ID.String() + "-" + exportType + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// schedule берет сохраненный график либо пересчитывает его по исходным долгам и рекомендованному extra.
func (h *PlanHandler) schedule(plan models.SavedPlan, output planner.Output) ([]engine.MonthlySnapshot, error) {
	if len(output.Schedule) > 0 {
		return output.Schedule, nil
	}

	var input planner.PlanInput
	if err := json.Unmarshal(plan.Request, &input); err != nil {
		return nil, err
	}

	debts, err := planner.ToDebts(input.Debts)
	if err != nil {
		return nil, err
	}

	result, err := h.Planner.Engine().SimulatePayoff(debts, output.Plan.ExtraDebtPayment, output.Plan.Strategy, 0)
	if err != nil {
		return nil, err
	}
	return result.Snapshots, nil
}

func writeScheduleCSV(writer *csv.Writer, schedule []engine.MonthlySnapshot) error {
	header := []string{
		"month",
		"debt",
		"payment",
		"interest",
		"principal",
		"extra",
		"remaining_balance",
		"closed",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, snapshot := range schedule {
		for _, payment := range snapshot.Payments {
			record := []string{
				strconv.Itoa(snapshot.Month),
				payment.Name,
				money.Cents(payment.Payment),
				money.Cents(payment.Interest),
				money.Cents(payment.Principal),
				money.Cents(payment.Extra),
				money.Cents(payment.RemainingBalance),
				strconv.FormatBool(payment.Closed),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeScenariosCSV(writer *csv.Writer, rows []narrative.Row) error {
	if err := writer.Write(narrative.Headers()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.Cells()); err != nil {
			return err
		}
	}
	return nil
}
