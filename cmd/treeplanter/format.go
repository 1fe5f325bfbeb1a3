package main

import (
	"fmt"

	"github.com/oukawa/ICALON-UMEP/pkg/planting"
	"github.com/oukawa/ICALON-UMEP/pkg/processing"
	"github.com/oukawa/ICALON-UMEP/pkg/scenario"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.ConfigPath != "" {
				fmt.Printf("    -> %s = %v\n", e.ConfigPath, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			if e.ConflictWith != "" {
				fmt.Printf("    conflicts with: %s\n", e.ConflictWith)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	printWarnings(r.Warnings)

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printWarnings(ws []validation.Result) {
	if len(ws) == 0 {
		return
	}
	fmt.Printf("WARNINGS (%d):\n", len(ws))
	for _, w := range ws {
		fmt.Printf("  [%s] %s\n", w.Level, w.Message)
		if w.ConfigPath != "" {
			fmt.Printf("    -> %s = %v\n", w.ConfigPath, w.ActualValue)
		}
		if w.Expected != "" {
			fmt.Printf("    expected: %s\n", w.Expected)
		}
		for _, s := range w.Suggestions {
			fmt.Printf("    * %s\n", s)
		}
	}
	fmt.Println()
}

func printTiers(percentiles []float64, tiers []planting.SizeTier) {
	fmt.Printf("%-6s %-10s %12s %10s %14s\n", "Tier", "Percentile", "Diameter", "Height", "Trunk height")
	fmt.Printf("%-6s %-10s %12s %10s %14s\n", "------", "----------", "------------", "----------", "--------------")
	for i, t := range tiers {
		fmt.Printf("%-6d %-10.2f %10.1f m %8.1f m %12.1f m\n", i, percentiles[i], t.Diameter, t.Height, t.TrunkHeight)
	}
}

func printSummary(res *scenario.Result) {
	s := res.Summary

	fmt.Printf("Planting run (%s, seed %d)\n", res.Scenario, res.Seed)
	fmt.Println("==============================")
	fmt.Println()
	fmt.Printf("  Replaced:        %d of %d small trees\n", res.Replace.Replaced, res.Replace.Candidates)
	fmt.Printf("  Planted:         %d of %d new trees\n", res.Augment.Placed, res.Augment.Target)
	if res.Augment.StoppedEarly {
		fmt.Printf("                   (stopped early after %d iterations)\n", res.Augment.Iterations)
	}
	fmt.Println()

	fmt.Printf("%-16s %12s %12s\n", "", "Before", "After")
	fmt.Printf("%-16s %12d %12d\n", "Trees", s.Before.Count, s.After.Count)
	fmt.Printf("%-16s %12s %12s\n", "Canopy area", formatArea(s.Before.CanopyAreaM2), formatArea(s.After.CanopyAreaM2))
	fmt.Printf("%-16s %10.1f m %10.1f m\n", "Mean diameter", s.Before.MeanDiameter, s.After.MeanDiameter)
	fmt.Printf("%-16s %10.1f m %10.1f m\n", "Mean height", s.Before.MeanHeight, s.After.MeanHeight)
	fmt.Printf("%-16s %12d %12d\n", "Short trees", s.Before.ShortTrees, s.After.ShortTrees)
	fmt.Println()
	fmt.Printf("  Canopy gain:     %s (%+.1f%%)\n", formatArea(s.CanopyGainM2), s.CanopyGainPct)

	if res.OutputPath != "" {
		fmt.Printf("  Written to:      %s\n", res.OutputPath)
	}
}

func printJobs(runner *processing.Runner, jobs []processing.Job) {
	if len(jobs) == 0 {
		fmt.Println("No jobs planned.")
		return
	}
	for _, j := range jobs {
		fmt.Printf("[%s] %s\n", j.Stage, j.Name)
		fmt.Printf("  %s\n", runner.CommandLine(j))
	}
}

func formatArea(v float64) string {
	if v >= 10_000 || v <= -10_000 {
		return fmt.Sprintf("%.2f ha", v/10_000)
	}
	return fmt.Sprintf("%.0f m²", v)
}
