package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luftscan/luftscan/scan"
	"github.com/luftscan/luftscan/scan/analysis"
	"github.com/luftscan/luftscan/scan/export"
	"github.com/luftscan/luftscan/scan/store"
)

var (
	analyzeInput      string  // CSV data file from `run --output`
	analyzeDB         string  // SQLite database from `run --db`
	analyzeScanID     string  // Stored scan ID
	analyzeObservable string  // Observable to analyze
	analyzeTarget     float64 // Target value for best fits
	analyzeTop        int     // Number of best fits to print
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Correlate, rank and fit a completed scan",
	Run: func(cmd *cobra.Command, args []string) {
		result, err := loadScan(context.Background())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeAnalysis(os.Stdout, result, analyzeObservable, analyzeTarget, cmd.Flags().Changed("target"), analyzeTop); err != nil {
			logrus.Fatalf("Analysis failed: %v", err)
		}
	},
}

// loadScan reads the scan named by --input or --db/--id.
func loadScan(ctx context.Context) (*scan.ScanResult, error) {
	switch {
	case analyzeInput != "" && analyzeDB != "":
		return nil, fmt.Errorf("--input and --db are mutually exclusive")
	case analyzeInput != "":
		_, result, err := export.LoadCSV("", analyzeInput)
		return result, err
	case analyzeDB != "":
		if analyzeScanID == "" {
			return nil, fmt.Errorf("--id is required with --db")
		}
		st, err := store.Open(ctx, analyzeDB)
		if err != nil {
			return nil, err
		}
		defer func() { _ = st.Close() }()
		_, result, err := st.Load(ctx, analyzeScanID)
		return result, err
	default:
		return nil, fmt.Errorf("one of --input or --db is required")
	}
}

// writeAnalysis prints the summary, correlations and sensitivity ranking
// for observable and, when hasTarget is set, the top best fits.
func writeAnalysis(w io.Writer, result *scan.ScanResult, observable string, target float64, hasTarget bool, top int) error {
	a := analysis.New(result)
	printSummary(w, analysis.Summarize(result), 0)

	if observable == "" {
		printCorrelationMatrix(w, a.CorrelationMatrix())
		return nil
	}

	report, err := a.Sensitivity(observable)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n=== Sensitivity: %s (%d valid rows) ===\n", observable, report.ValidRows)
	if report.Warning != "" {
		_, _ = fmt.Fprintf(w, "warning: %s\n", report.Warning)
	}
	for _, c := range report.Ranking {
		_, _ = fmt.Fprintf(w, "%-24s %10.4f\n", c.Parameter, c.Coefficient)
	}

	if !hasTarget {
		return nil
	}
	fits, err := a.FindBestFits(observable, target, top)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n=== Best fits: %s -> %g ===\n", observable, target)
	for _, f := range fits {
		_, _ = fmt.Fprintf(w, "row %-6d value=%-14.6g distance=%-14.6g %v\n", f.Row, f.Value, f.Distance, f.Result.Parameters)
	}
	return nil
}

func printCorrelationMatrix(w io.Writer, matrix map[string][]analysis.Correlation) {
	if len(matrix) == 0 {
		_, _ = fmt.Fprintf(w, "\nNo observable has more than %d valid rows; skipping correlations.\n", analysis.MinMatrixRows)
		return
	}
	for _, name := range sortedKeys(matrix) {
		_, _ = fmt.Fprintf(w, "\n=== Correlations: %s ===\n", name)
		for _, c := range matrix[name] {
			_, _ = fmt.Fprintf(w, "%-24s %10.4f\n", c.Parameter, c.Coefficient)
		}
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "CSV data file written by run --output")
	analyzeCmd.Flags().StringVar(&analyzeDB, "db", "", "SQLite database written by run --db")
	analyzeCmd.Flags().StringVar(&analyzeScanID, "id", "", "Stored scan ID (with --db)")
	analyzeCmd.Flags().StringVar(&analyzeObservable, "observable", "", "Observable to rank (default: correlation matrix over all observables)")
	analyzeCmd.Flags().Float64Var(&analyzeTarget, "target", 0, "Target value for best fits (requires --observable)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 10, "Number of best fits to print")
}
