package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luftscan/luftscan/scan"
	"github.com/luftscan/luftscan/scan/analysis"
	"github.com/luftscan/luftscan/scan/export"
	"github.com/luftscan/luftscan/scan/luft"
	"github.com/luftscan/luftscan/scan/store"
)

var (
	configPath     string   // Path to a YAML scan spec
	objectiveName  string   // Registered objective to evaluate
	samples        int      // Number of parameter samples
	method         string   // Sampling method (lhs, random)
	seed           int64    // Master seed
	workers        int      // Worker goroutines (0 = hardware default)
	maxWorkers     int      // Worker ceiling for the hardware default
	observables    []string // Observables to collect (empty = all)
	outputPath     string   // CSV data output path
	headerPath     string   // YAML header output path
	dbPath         string   // SQLite database for persisted scans
	saveConfigPath string   // Write the resolved scan spec here
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample the priors and evaluate the objective in parallel",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := resolveScanSpec(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if saveConfigPath != "" {
			if err := spec.Save(saveConfigPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		obj, err := scan.NewObjective(spec.Objective)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		start := time.Now()
		result, err := scan.RunScan(spec, obj)
		if err != nil {
			logrus.Fatalf("Scan failed: %v", err)
		}
		printSummary(os.Stdout, analysis.Summarize(result), time.Since(start))

		if outputPath != "" {
			header := export.HeaderFromSpec(spec)
			header.CreatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := export.ExportCSV(header, result, headerPath, outputPath); err != nil {
				logrus.Fatalf("Export failed: %v", err)
			}
			logrus.Infof("Results written to %s", outputPath)
		}

		if dbPath != "" {
			ctx := context.Background()
			st, err := store.Open(ctx, dbPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			defer func() { _ = st.Close() }()
			id, err := st.Save(ctx, store.MetaFromSpec(spec), result)
			if err != nil {
				logrus.Fatalf("Saving scan failed: %v", err)
			}
			fmt.Printf("Scan ID: %s\n", id)
		}
	},
}

// resolveScanSpec builds the scan spec from --config (or the LUFT default)
// and applies only the flags the user explicitly set.
func resolveScanSpec(cmd *cobra.Command) (*scan.ScanSpec, error) {
	spec := luft.DefaultScanSpec()
	if configPath != "" {
		loaded, err := scan.LoadScanSpec(configPath)
		if err != nil {
			return nil, err
		}
		spec = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("objective") {
		spec.Objective = objectiveName
		if configPath == "" {
			spec.Priors = nil
		}
	}
	if flags.Changed("samples") {
		spec.Samples = samples
	}
	if flags.Changed("method") {
		spec.Method = method
	}
	if flags.Changed("seed") {
		spec.Seed = seed
	}
	if flags.Changed("workers") {
		spec.Workers = workers
	}
	if flags.Changed("max-workers") {
		spec.MaxWorkers = maxWorkers
	}
	if flags.Changed("observables") {
		spec.Observables = observables
	}

	if len(spec.Priors) == 0 {
		obj, err := scan.NewObjective(spec.Objective)
		if err != nil {
			return nil, err
		}
		priors, ok := scan.DefaultPriors(obj)
		if !ok {
			return nil, fmt.Errorf("objective %q has no default priors; provide them with --config", spec.Objective)
		}
		spec.Priors = priors
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan spec: %w", err)
	}
	return spec, nil
}

// printSummary writes the scan summary in a fixed, human-readable layout.
func printSummary(w io.Writer, s *analysis.Summary, elapsed time.Duration) {
	_, _ = fmt.Fprintln(w, "=== Scan Summary ===")
	_, _ = fmt.Fprintf(w, "Samples:      %d\n", s.TotalSamples)
	_, _ = fmt.Fprintf(w, "Succeeded:    %d\n", s.Succeeded)
	_, _ = fmt.Fprintf(w, "Failed:       %d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Success rate: %.1f%%\n", 100*s.SuccessRate)
	if elapsed > 0 {
		_, _ = fmt.Fprintf(w, "Elapsed:      %s\n", elapsed.Round(time.Millisecond))
	}
	if len(s.Observables) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%-24s %8s %14s %14s %14s %14s\n", "observable", "count", "mean", "std", "min", "max")
	for _, o := range s.Observables {
		if o.Count == 0 {
			_, _ = fmt.Fprintf(w, "%-24s %8d %14s %14s %14s %14s\n", o.Name, 0, "-", "-", "-", "-")
			continue
		}
		_, _ = fmt.Fprintf(w, "%-24s %8d %14.6g %14.6g %14.6g %14.6g\n", o.Name, o.Count, o.Mean, o.StdDev, o.Min, o.Max)
	}
}

// registerRunFlags binds the run flags to c. Registration resets the bound
// variables to their defaults.
func registerRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "Path to YAML scan spec (default: built-in LUFT wide-prior scan)")
	c.Flags().StringVar(&objectiveName, "objective", luft.ObjectiveName, "Registered objective to evaluate")
	c.Flags().IntVar(&samples, "samples", 1000, "Number of parameter samples")
	c.Flags().StringVar(&method, "method", scan.MethodLHS, "Sampling method (lhs, random)")
	c.Flags().Int64Var(&seed, "seed", 42, "Master seed for sampling")
	c.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 = min(NumCPU, max-workers))")
	c.Flags().IntVar(&maxWorkers, "max-workers", scan.DefaultMaxWorkers, "Ceiling for the default worker count")
	c.Flags().StringSliceVar(&observables, "observables", nil, "Comma-separated observables to collect (default: all)")
	c.Flags().StringVar(&outputPath, "output", "", "Write results as CSV to this path")
	c.Flags().StringVar(&headerPath, "header", "", "Write the YAML scan header to this path (with --output)")
	c.Flags().StringVar(&dbPath, "db", "", "Persist the scan to this SQLite database")
	c.Flags().StringVar(&saveConfigPath, "save-config", "", "Write the resolved scan spec as YAML to this path")
}

func init() {
	registerRunFlags(runCmd)
}
