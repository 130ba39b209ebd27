package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"example.com/debt-planner/backend/internal/money"
	"example.com/debt-planner/backend/internal/narrative"
	"example.com/debt-planner/backend/internal/planner"
)

// render печатает план в виде текстового отчета с выровненными таблицами.
func render(w io.Writer, output planner.Output, withSchedule bool) error {
	plan := output.Plan
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Strategy:\t%s\n", plan.Strategy)
	fmt.Fprintf(tw, "Monthly surplus:\t%s\n", money.Format(plan.MonthlySurplus))
	fmt.Fprintf(tw, "Split:\t%s debt / %s invest\n", money.Percent(plan.DebtShare), money.Percent(plan.InvestShare))
	fmt.Fprintf(tw, "Extra debt payment:\t%s\n", money.Format(plan.ExtraDebtPayment))
	fmt.Fprintf(tw, "Investment contribution:\t%s\n", money.Format(plan.InvestmentContribution))
	fmt.Fprintf(tw, "Debt-free in:\t%s\n", months(plan.MonthsToDebtFree))
	fmt.Fprintf(tw, "Total interest:\t%s\n", money.Format(plan.TotalInterestPaid))
	if plan.InterestSaved != nil {
		fmt.Fprintf(tw, "Interest saved:\t%s\n", money.Format(*plan.InterestSaved))
	}
	if len(plan.PayoffOrder) > 0 {
		fmt.Fprintf(tw, "Payoff order:\t%s\n", strings.Join(plan.PayoffOrder, " -> "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if err := writeTable(w, narrative.Headers(), rowsCells(output.Table)); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, output.Report.ExecutiveSummary)

	if len(output.Report.ActionSteps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Next steps:")
		for i, step := range output.Report.ActionSteps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step)
		}
	}

	if len(plan.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warning := range plan.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	if withSchedule && len(output.Schedule) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(output.Schedule))
		for _, snapshot := range output.Schedule {
			rows = append(rows, []string{
				strconv.Itoa(snapshot.Month),
				money.Format(snapshot.TotalPayment),
				money.Format(snapshot.TotalInterest),
				money.Format(snapshot.TotalPrincipal),
				money.Format(snapshot.RemainingBalance),
			})
		}
		if err := writeTable(w, []string{"Month", "Paid", "Interest", "Principal", "Remaining"}, rows); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, output.Report.Disclaimer)
	return nil
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func rowsCells(rows []narrative.Row) [][]string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.Cells())
	}
	return cells
}

func months(value *int) string {
	if value == nil {
		return "not within the simulation horizon"
	}
	if *value == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", *value)
}
