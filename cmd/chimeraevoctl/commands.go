package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chimeraevo/internal/config"
	"chimeraevo/internal/stats"
	chimeraapi "chimeraevo/pkg/chimeraevo"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		configPath string
		flags      runFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run independent embedding searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultRunConfig()
			if configPath != "" {
				loaded, err := config.LoadRun(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg, err := applyRunFlags(cmd.Flags(), flags, cfg)
			if err != nil {
				return err
			}

			started := time.Now()
			summary, err := a.client.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run completed source=%s hardware=%dx%dx%d pop=%d trials=%d gens=%d runs=%d\n",
				cfg.Source, cfg.Hardware.M, cfg.Hardware.N, cfg.Hardware.T,
				cfg.PopulationSize, cfg.MaxMutationTrials, *cfg.MaxGenerations, cfg.Runs)
			for _, run := range summary.Runs {
				fmt.Fprintf(out, "run_id=%s seed=%d outcome=%s generations=%d nodes_used=%d duration=%s\n",
					run.RunID, run.Seed, run.Outcome, run.GenerationsUsed, run.HardwareNodesUsed, run.Duration.Round(time.Millisecond))
				if run.AbortReason != "" {
					fmt.Fprintf(out, "abort_reason=%q\n", run.AbortReason)
				}
			}
			printSummary(cmd, summary.Summary)
			fmt.Fprintf(out, "total_runs=%s elapsed=%s\n", humanize.Comma(int64(len(summary.Runs))), time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run config; flags override its values")
	addRunFlags(cmd.Flags(), &flags)
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		configPath   string
		name         string
		parameter    string
		values       []float64
		linspace     string
		intRange     string
		runsPerValue int
		flags        runFlags
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Repeat runs across values of one parameter",
		Long: `Runs the base configuration runs-per-value times for every value of the
swept parameter and writes one generations file per value.

Parameters: population_size, max_mutation_trials, fallback_probability,
prune_probability.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sweep config.SweepConfig
			if configPath != "" {
				loaded, err := config.LoadSweep(configPath)
				if err != nil {
					return err
				}
				sweep = loaded
			}
			if cmd.Flags().Changed("name") {
				sweep.Name = name
			}
			if cmd.Flags().Changed("parameter") {
				sweep.Parameter = parameter
			}
			if cmd.Flags().Changed("values") {
				sweep.Values = values
			}
			if cmd.Flags().Changed("linspace") {
				ls, err := parseLinspace(linspace)
				if err != nil {
					return err
				}
				sweep.Linspace = ls
			}
			if cmd.Flags().Changed("range") {
				r, err := parseRange(intRange)
				if err != nil {
					return err
				}
				sweep.IntRange = r
			}
			if cmd.Flags().Changed("runs-per-value") || sweep.RunsPerValue == 0 {
				sweep.RunsPerValue = runsPerValue
			}
			base, err := applyRunFlags(cmd.Flags(), flags, sweep.Base)
			if err != nil {
				return err
			}
			sweep.Base = base
			if sweep.Parameter == "" {
				return errors.New("sweep requires --parameter")
			}

			started := time.Now()
			summary, err := a.client.Sweep(cmd.Context(), sweep)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total := 0
			fmt.Fprintf(out, "sweep completed sweep_id=%s name=%s parameter=%s values=%d\n",
				summary.SweepID, sweep.Name, sweep.Parameter, len(summary.Points))
			for _, point := range summary.Points {
				total += len(point.Generations)
				fmt.Fprintf(out, "value=%s found=%d/%d success_rate=%.2f mean_generations=%.2f median_generations=%.1f file=%s convergence=%s\n",
					point.Value, point.Summary.Found, point.Summary.Runs, point.Summary.SuccessRate,
					point.Summary.Mean, point.Summary.Median, point.File, point.ConvergenceFile)
			}
			fmt.Fprintf(out, "total_runs=%s elapsed=%s\n", humanize.Comma(int64(total)), time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&configPath, "config", "", "YAML sweep config; flags override its values")
	fs.StringVar(&name, "name", "", "sweep name used in output file names")
	fs.StringVar(&parameter, "parameter", "", "parameter to vary")
	fs.Float64SliceVar(&values, "values", nil, "explicit values, comma separated")
	fs.StringVar(&linspace, "linspace", "", "evenly spaced values as start:stop:num")
	fs.StringVar(&intRange, "range", "", "integer values as from:to, inclusive")
	fs.IntVar(&runsPerValue, "runs-per-value", 1, "runs per sweep value")
	addRunFlags(fs, &flags)
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var req chimeraapi.RunsRequest
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client.Runs(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, item := range items {
				fmt.Fprintf(out, "run_id=%s created_at=%s sweep_id=%s source=%s hardware=%dx%dx%d seed=%d pop=%d outcome=%s generations=%d nodes_used=%d\n",
					item.RunID, item.CreatedAtUTC, item.SweepID, item.Source,
					item.Hardware.M, item.Hardware.N, item.Hardware.T,
					item.Seed, item.PopulationSize, item.Outcome, item.GenerationsUsed, item.HardwareNodesUsed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&req.SweepID, "sweep-id", "", "only list runs of this sweep")
	return cmd
}

func newDiagnosticsCmd(a *app) *cobra.Command {
	var req chimeraapi.DiagnosticsRequest
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show per-generation diagnostics of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			diagnostics, err := a.client.Diagnostics(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range diagnostics {
				fmt.Fprintf(out, "generation=%d candidates=%d slot_failures=%d rescue=%t best_index=%d best_score=%d pruned=%t nodes_used=%d missing_edges=%d\n",
					d.Generation, d.PopulationSize, d.SlotFailures, d.RescueFired, d.BestIndex,
					d.BestScore, d.Pruned, d.HardwareNodesUsed, d.MissingEdges)
			}
			fmt.Fprintf(out, "generations=%d\n", len(diagnostics))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.RunID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&req.Latest, "latest", false, "use the most recent run")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "maximum generations to show, 0 for all")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var req chimeraapi.ExportRequest
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := a.client.Export(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.RunID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&req.Latest, "latest", false, "export the most recent run")
	cmd.Flags().StringVar(&req.OutDir, "out", "", "export directory (defaults to --exports-dir)")
	return cmd
}

func printSummary(cmd *cobra.Command, s stats.GenerationsSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "found=%d/%d success_rate=%.2f mean_generations=%.2f median_generations=%.1f std_dev=%.2f min=%d max=%d\n",
		s.Found, s.Runs, s.SuccessRate, s.Mean, s.Median, s.StdDev, s.Min, s.Max)
}
