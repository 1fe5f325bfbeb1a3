package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oukawa/ICALON-UMEP/internal/logging"
	"github.com/oukawa/ICALON-UMEP/internal/server"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
)

// logOpts are set by the persistent flags and read by newLogger.
var logOpts logging.Options

func main() {
	rootCmd := &cobra.Command{
		Use:   "treeplanter",
		Short: "Constrained random tree planting and UMEP thermal comfort runs",
	}
	rootCmd.PersistentFlags().StringVar(&logOpts.Level, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOpts.File, "log-file", "", "also write the log to this file, rotated by size")
	rootCmd.PersistentFlags().BoolVar(&logOpts.JSON, "log-json", false, "write the log file as JSON")

	rootCmd.AddCommand(plantCmd())
	rootCmd.AddCommand(tiersCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(runJobsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*logrus.Logger, func(), error) {
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { logging.Close(log) }, nil
}

func plantCmd() *cobra.Command {
	var (
		seed     uint64
		scenario string
		noWrite  bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "plant [project-path]",
		Short: "Replace small trees and plant new ones, writing the tree layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := plantOptions{
				scenario: project.Scenario(scenario),
				noWrite:  noWrite,
				asJSON:   asJSON,
			}
			if cmd.Flags().Changed("seed") {
				opts.seed = &seed
			}
			return runPlant(args[0], opts)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: project seed, else random)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "override the project scenario (public_only, with_vacant)")
	cmd.Flags().BoolVar(&noWrite, "no-write", false, "do not write the output layer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func tiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers [project-path]",
		Short: "Show the size tiers computed from the existing trees",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTiers(args[0])
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project file and its layers without planting",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func jobsCmd() *cobra.Command {
	var stage, scenario string

	cmd := &cobra.Command{
		Use:   "jobs [project-path]",
		Short: "List the UMEP processing jobs and their qgis_process command lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return listJobs(args[0], stage, project.Scenario(scenario))
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "only this stage (trees, solweig, comfort)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "override the project scenario")
	return cmd
}

func runJobsCmd() *cobra.Command {
	var (
		stage, scenario string
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "run-jobs [project-path]",
		Short: "Run the UMEP processing jobs through qgis_process",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runJobs(args[0], stage, project.Scenario(scenario), dryRun)
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "only this stage (trees, solweig, comfort)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "override the project scenario")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the command lines without running them")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local dev server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			log, closeLog, err := newLogger()
			if err != nil {
				return err
			}
			defer closeLog()
			srv := server.New(args[0], port, log)
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
