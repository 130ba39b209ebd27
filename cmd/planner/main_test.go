package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const planYAML = `
title: Test plan
strategy: avalanche
profile:
  risk_tolerance: moderate
  current_savings: 20000
  income:
    - name: Salary
      amount: 5000
      frequency: monthly
  expenses:
    - name: Rent
      amount: 1800
      essential: true
debts:
  - name: Visa
    type: credit_card
    balance: 3200
    annual_rate: 0.24
    minimum_payment: 90
  - name: Car
    type: auto_loan
    balance: 9000
    annual_rate: 0.06
    minimum_payment: 250
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

// TestRunTextReport проверяет текстовый отчет с таблицей сценариев и графиком.
func TestRunTextReport(t *testing.T) {
	path := writePlan(t, planYAML)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-file", path, "-schedule", "-config", ""}, nil, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Strategy:", "avalanche", "Months to Debt-Free", "Payoff order:", "Visa -> Car", "Remaining"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

// TestRunJSONStrategyOverride проверяет JSON-вывод и переопределение стратегии флагом.
func TestRunJSONStrategyOverride(t *testing.T) {
	path := writePlan(t, planYAML)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-file", path, "-format", "json", "-strategy", "snowball", "-config", ""}, nil, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, stderr.String())
	}

	var decoded struct {
		Plan struct {
			Strategy    string   `json:"strategy"`
			PayoffOrder []string `json:"payoff_order"`
		} `json:"recommended_plan"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("expected json output, got %v", err)
	}
	if decoded.Plan.Strategy != "snowball" {
		t.Fatalf("expected snowball, got %s", decoded.Plan.Strategy)
	}
	if len(decoded.Plan.PayoffOrder) != 2 || decoded.Plan.PayoffOrder[0] != "Visa" {
		t.Fatalf("unexpected payoff order: %v", decoded.Plan.PayoffOrder)
	}
}

// TestRunStdin проверяет чтение плана из stdin.
func TestRunStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-file", "-", "-format", "json", "-config", ""}, strings.NewReader(planYAML), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, stderr.String())
	}
}

// TestRunErrors проверяет коды выхода для неверных аргументов и входных данных.
func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	if code := run(context.Background(), []string{"-config", ""}, nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected usage error, got %d", code)
	}

	if code := run(context.Background(), []string{"-file", filepath.Join(t.TempDir(), "missing.yaml"), "-config", ""}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("expected read error, got %d", code)
	}

	bad := writePlan(t, strings.Replace(planYAML, "strategy: avalanche", "strategy: random", 1))
	if code := run(context.Background(), []string{"-file", bad, "-config", ""}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("expected strategy error, got %d", code)
	}

	if code := run(context.Background(), []string{"-file", bad, "-format", "xml", "-config", ""}, nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected format error, got %d", code)
	}
}
