package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/oukawa/ICALON-UMEP/pkg/processing"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
	"github.com/oukawa/ICALON-UMEP/pkg/scenario"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

type plantOptions struct {
	seed     *uint64
	scenario project.Scenario
	noWrite  bool
	asJSON   bool
}

// loadAndValidate loads the project and runs schema validation.
func loadAndValidate(projectPath string) (*project.Project, *validation.Report, error) {
	p, err := project.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading project: %w", err)
	}
	return p, validation.ValidateProject(p), nil
}

func runValidate(projectPath string) error {
	p, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	// Read the layers too, so broken features show up before a run.
	if report.Valid {
		_, layerReport, err := scenario.LoadInputs(p)
		if err != nil {
			report.AddError(validation.Result{
				Level:   validation.LevelSpatial,
				Message: err.Error(),
			})
		}
		report.Merge(layerReport)
	}

	printValidationReport(report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func runTiers(projectPath string) error {
	p, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("project has validation errors; fix before computing tiers")
	}

	tiers, report, err := scenario.Tiers(p)
	printWarnings(report.Warnings)
	if err != nil {
		return err
	}
	printTiers(p.Planting.Percentiles, tiers)
	return nil
}

func runPlant(projectPath string, opts plantOptions) error {
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := project.LoadProject(projectPath)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	res, report, err := scenario.Run(p, scenario.Options{
		Seed:     opts.seed,
		Scenario: opts.scenario,
		NoWrite:  opts.noWrite,
	}, log)
	if err != nil {
		if errors.Is(err, scenario.ErrInvalidProject) || errors.Is(err, scenario.ErrPlanting) {
			printValidationReport(report)
		}
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"result":     res,
			"validation": report,
		})
	}

	printSummary(res)
	if len(report.Warnings) > 0 {
		fmt.Println()
		printValidationReport(report)
	}
	return nil
}

// stagesFor returns the named stage, or all of them when stage is empty.
func stagesFor(stage string) ([]processing.Stage, error) {
	if stage == "" {
		return processing.Stages, nil
	}
	st, err := processing.ParseStage(stage)
	if err != nil {
		return nil, err
	}
	return []processing.Stage{st}, nil
}

func planJobs(p *project.Project, stage string) ([]processing.Job, *validation.Report, error) {
	stages, err := stagesFor(stage)
	if err != nil {
		return nil, nil, err
	}

	report := validation.NewReport()
	var jobs []processing.Job
	for _, st := range stages {
		planned, r, err := processing.Plan(p, st)
		if err != nil {
			return nil, report, err
		}
		report.Merge(r)
		jobs = append(jobs, planned...)
	}
	return jobs, report, nil
}

func loadForJobs(projectPath string, sc project.Scenario) (*project.Project, error) {
	p, report, err := loadAndValidate(projectPath)
	if err != nil {
		return nil, err
	}
	if sc != "" {
		p.Scenario = sc
	}
	if !report.Valid {
		printValidationReport(report)
		return nil, fmt.Errorf("project has validation errors")
	}
	return p, nil
}

func listJobs(projectPath, stage string, sc project.Scenario) error {
	p, err := loadForJobs(projectPath, sc)
	if err != nil {
		return err
	}
	jobs, report, err := planJobs(p, stage)
	if err != nil {
		return err
	}

	runner := &processing.Runner{Command: p.Processing.QGISProcess}
	printJobs(runner, jobs)
	if len(report.Warnings) > 0 {
		fmt.Println()
		printValidationReport(report)
	}
	return nil
}

func runJobs(projectPath, stage string, sc project.Scenario, dryRun bool) error {
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := loadForJobs(projectPath, sc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stages, err := stagesFor(stage)
	if err != nil {
		return err
	}
	runner := &processing.Runner{Command: p.Processing.QGISProcess, DryRun: dryRun, Log: log}

	// Stages are planned one at a time: comfort jobs depend on the Tmrt
	// rasters the SOLWEIG stage writes.
	failed := 0
	for _, st := range stages {
		jobs, report, err := processing.Plan(p, st)
		if err != nil {
			return err
		}
		for _, w := range report.Warnings {
			log.WithField("stage", st).Warn(w.Message)
		}
		res, err := runner.RunAll(ctx, jobs)
		log.WithField("stage", st).Infof("%d of %d jobs succeeded", res.Succeeded, res.Total)
		failed += len(res.Failed)
		if err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d jobs failed", failed)
	}
	return nil
}
