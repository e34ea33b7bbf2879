package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luftscan/luftscan/scan/catalog"
)

var (
	catalogInput       string   // Candidate file to import
	catalogInputFormat string   // Format of --input (default: from extension)
	catalogNoDefaults  bool     // Start from an empty catalog
	targetMinScore     float64  // Minimum collapse score for targets
	targetMaxRedshift  float64  // Redshift ceiling for targets (0 = none)
	targetBands        []string // Bands every target must be detected in
	catalogOutput      string   // Export destination
	catalogFormat      string   // Export format
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Curate and rank observed SMBH candidates",
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print population statistics and the signature analysis",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadCurator()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeCatalogStats(os.Stdout, c); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

var catalogTargetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Print the prioritized follow-up target list",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadCurator()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		writeTargets(os.Stdout, c.Targets(catalog.TargetFilter{
			MinScore:      targetMinScore,
			MaxRedshift:   targetMaxRedshift,
			RequiredBands: targetBands,
		}))
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as JSON, CSV or YAML",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadCurator()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := exportCatalog(c, catalogOutput, catalogFormat); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// loadCurator starts from the seed catalog (unless --no-defaults) and
// imports --input on top of it.
func loadCurator() (*catalog.Curator, error) {
	c := catalog.DefaultCurator()
	if catalogNoDefaults {
		c = catalog.NewCurator()
	}
	if catalogInput == "" {
		return c, nil
	}

	format, err := inputFormat(catalogInput, catalogInputFormat)
	if err != nil {
		return nil, err
	}
	n, err := c.ImportFile(catalogInput, format)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Imported %d candidates from %s", n, catalogInput)
	return c, nil
}

func inputFormat(path, name string) (catalog.Format, error) {
	if name != "" {
		return catalog.ParseFormat(name)
	}
	return catalog.FormatFromPath(path)
}

// exportCatalog writes to path, or to stdout when path is empty.
func exportCatalog(c *catalog.Curator, path, formatName string) error {
	if formatName == "" && path != "" {
		f, err := catalog.FormatFromPath(path)
		if err != nil {
			return err
		}
		formatName = string(f)
	}
	if formatName == "" {
		formatName = string(catalog.FormatJSON)
	}
	format, err := catalog.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if path == "" {
		return c.Export(os.Stdout, format)
	}
	if err := c.ExportFile(path, format); err != nil {
		return err
	}
	logrus.Infof("Catalog written to %s", path)
	return nil
}

func writeCatalogStats(w io.Writer, c *catalog.Curator) error {
	s, err := c.PopulationStats()
	if err != nil {
		return err
	}
	r, err := c.SignatureAnalysis()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "=== Candidate Population ===")
	_, _ = fmt.Fprintf(w, "Candidates:      %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Redshift range:  %.2f - %.2f (mean %.2f)\n", s.RedshiftMin, s.RedshiftMax, s.MeanRedshift)
	surveys := make([]string, 0, len(s.Surveys))
	for _, name := range sortedKeys(s.Surveys) {
		surveys = append(surveys, fmt.Sprintf("%s=%d", name, s.Surveys[name]))
	}
	_, _ = fmt.Fprintf(w, "Surveys:         %s\n", strings.Join(surveys, " "))
	if s.MassEstimates > 0 {
		_, _ = fmt.Fprintf(w, "Mass estimates:  %d (%.3g - %.3g, mean %.3g M_sun)\n", s.MassEstimates, s.MassMin, s.MassMax, s.MeanMass)
	} else {
		_, _ = fmt.Fprintln(w, "Mass estimates:  0")
	}
	_, _ = fmt.Fprintf(w, "Mean score:      %.3f\n", s.MeanScore)
	_, _ = fmt.Fprintf(w, "High score:      %d (%.1f%%)\n", r.HighScore, 100*r.HighScoreFraction)
	_, _ = fmt.Fprintf(w, "Signatures:      %d\n", r.SignatureDetections)
	_, _ = fmt.Fprintf(w, "Redshift corr:   %s\n", formatCorrelation(r.RedshiftCorrelation))
	_, _ = fmt.Fprintf(w, "Mass corr:       %s\n", formatCorrelation(r.MassCorrelation))
	return nil
}

func formatCorrelation(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%+.3f", *r)
}

func writeTargets(w io.Writer, targets []catalog.Target) {
	if len(targets) == 0 {
		_, _ = fmt.Fprintln(w, "No candidates pass the target filter.")
		return
	}
	_, _ = fmt.Fprintf(w, "%-4s %-20s %-8s %10s %10s %7s %12s %7s %8s\n",
		"rank", "name", "survey", "ra", "dec", "z", "mass", "score", "priority")
	for i, t := range targets {
		mass := "-"
		if t.EstimatedMass != nil {
			mass = fmt.Sprintf("%.3g", *t.EstimatedMass)
		}
		_, _ = fmt.Fprintf(w, "%-4d %-20s %-8s %10.4f %10.4f %7.2f %12s %7.3f %8.3f\n",
			i+1, t.Name, t.Survey, t.RA, t.Dec, t.Redshift, mass, t.Score, t.Priority)
	}
}

func init() {
	catalogCmd.PersistentFlags().StringVar(&catalogInput, "input", "", "Import candidates from this JSON, CSV or YAML file")
	catalogCmd.PersistentFlags().StringVar(&catalogInputFormat, "input-format", "", "Format of --input (default: from the file extension)")
	catalogCmd.PersistentFlags().BoolVar(&catalogNoDefaults, "no-defaults", false, "Start from an empty catalog instead of the seed candidates")

	catalogTargetsCmd.Flags().Float64Var(&targetMinScore, "min-score", catalog.DefaultMinScore, "Minimum collapse score")
	catalogTargetsCmd.Flags().Float64Var(&targetMaxRedshift, "max-redshift", 0, "Maximum redshift (0 = no limit)")
	catalogTargetsCmd.Flags().StringSliceVar(&targetBands, "bands", nil, "Comma-separated bands every target must be detected in")

	catalogExportCmd.Flags().StringVar(&catalogOutput, "output", "", "Write to this path (default: stdout)")
	catalogExportCmd.Flags().StringVar(&catalogFormat, "format", "", "json, csv or yaml (default: from --output extension, else json)")

	catalogCmd.AddCommand(catalogStatsCmd, catalogTargetsCmd, catalogExportCmd)
}
