// Package main re-runs the Granger test on an exported final_dataset.csv.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sentiment-lab/internal/causality"
	"sentiment-lab/internal/decision"
	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/logger"
	"sentiment-lab/internal/reporting"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type options struct {
	input     string
	predictor string
	target    string
	maxLag    int
	alpha     float64
	verbose   bool
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "causality",
		Short:         "Granger-test two columns of an exported dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.input, "input", filepath.Join("output", reporting.DatasetFile), "Dataset CSV written by the pipeline")
	f.StringVar(&opts.predictor, "predictor", string(domain.FieldSentimentScore), "Predictor column")
	f.StringVar(&opts.target, "target", string(domain.FieldVolatility), "Target column")
	f.IntVar(&opts.maxLag, "max-lag", 5, "Largest lag to test")
	f.Float64Var(&opts.alpha, "alpha", 0.05, "Significance level")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	level := "info"
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Output: cmd.ErrOrStderr()})

	predictor, err := domain.ParseField(opts.predictor)
	if err != nil {
		return fmt.Errorf("predictor: %w", err)
	}
	target, err := domain.ParseField(opts.target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if predictor == target {
		return errors.New("predictor and target must differ")
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, err := reporting.ParseDatasetCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}
	log.Info().Str("input", opts.input).Int("rows", len(rows)).Msg("dataset loaded")

	results, err := causality.NewTester(causality.WithLogger(log)).Test(rows, predictor, target, opts.maxLag)
	if err != nil && !errors.Is(err, causality.ErrEmptySeries) {
		return err
	}

	result, err := decision.NewEvaluator().Evaluate(decision.DecisionInput{
		Predictor:       predictor,
		Target:          target,
		Alpha:           opts.alpha,
		MaxLag:          opts.maxLag,
		Results:         results,
		SufficiencyPass: len(rows) >= causality.MinObservations(opts.maxLag),
		AlignedDays:     len(rows),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, reporting.RenderConsole(predictor, target, reporting.CausalityRows(results, opts.alpha)))
	fmt.Fprintf(out, "\nDecision: %s\n", result.Decision)
	return nil
}
