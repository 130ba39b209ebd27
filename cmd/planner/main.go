// Command planner строит план погашения долгов и инвестирования по YAML-файлу без сервера и базы данных.
//
// Usage:
//
//	planner -file plan.yaml [-strategy snowball] [-schedule] [-format text|json] [-config engine.yaml]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"example.com/debt-planner/backend/internal/app"
	"example.com/debt-planner/backend/internal/config"
	"example.com/debt-planner/backend/internal/planner"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("planner", flag.ContinueOnError)
	flags.SetOutput(stderr)

	file := flags.String("file", "", "path to plan YAML, - for stdin")
	strategy := flags.String("strategy", "", "override strategy: avalanche, snowball or hybrid")
	schedule := flags.Bool("schedule", false, "print the month-by-month payoff schedule")
	format := flags.String("format", formatText, "output format: text or json")
	tuningFile := flags.String("config", os.Getenv("ENGINE_CONFIG_FILE"), "engine tuning YAML")
	verbose := flags.Bool("v", false, "debug logging to stderr")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if *file == "" {
		fmt.Fprintln(stderr, "planner: -file is required")
		flags.Usage()
		return 2
	}
	if *format != formatText && *format != formatJSON {
		fmt.Fprintf(stderr, "planner: unknown format %q\n", *format)
		return 2
	}

	input, err := readInput(*file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}
	if *strategy != "" {
		input.Strategy = *strategy
	}
	input.IncludeSchedule = *schedule

	tune, err := config.LoadTuning(*tuningFile)
	if err != nil {
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}
	if err := tune.Validate(); err != nil {
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}

	components, err := app.Build(ctx, app.Options{
		Tuning: tune,
		Cache:  config.CacheConfig{},
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}
	defer components.Close()

	request, err := input.ToRequest()
	if err != nil {
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}

	output, err := components.Planner.CreatePlan(ctx, request)
	if err != nil {
		var validation *planner.ValidationError
		if errors.As(err, &validation) {
			fmt.Fprintln(stderr, "planner: inputs contain critical issues:")
			for _, issue := range validation.Critical {
				fmt.Fprintf(stderr, "  - %s\n", issue)
			}
			return 1
		}
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}

	if *format == formatJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			fmt.Fprintf(stderr, "planner: %v\n", err)
			return 1
		}
		return 0
	}

	if err := render(stdout, output, *schedule); err != nil {
		fmt.Fprintf(stderr, "planner: %v\n", err)
		return 1
	}
	return 0
}

func readInput(path string, stdin io.Reader) (planner.PlanInput, error) {
	var input planner.PlanInput

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return input, fmt.Errorf("read plan: %w", err)
	}

	if err := yaml.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("parse plan: %w", err)
	}
	if len(input.Profile.Income) == 0 {
		return input, errors.New("parse plan: profile.income is required")
	}
	return input, nil
}
