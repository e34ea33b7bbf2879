package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/luftscan/luftscan/scan"
	"github.com/luftscan/luftscan/scan/luft"
	"github.com/luftscan/luftscan/scan/store"
)

// --- luftscan priors ---

var priorsObjective string

var priorsCmd = &cobra.Command{
	Use:   "priors",
	Short: "Print an objective's default priors as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writePriors(os.Stdout, priorsObjective); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func writePriors(w io.Writer, name string) error {
	obj, err := scan.NewObjective(name)
	if err != nil {
		return err
	}
	priors, ok := scan.DefaultPriors(obj)
	if !ok {
		return fmt.Errorf("objective %q has no default priors", name)
	}
	data, err := yaml.Marshal(map[string][]scan.PriorSpec{"priors": priors})
	if err != nil {
		return fmt.Errorf("marshaling priors: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// --- luftscan objectives ---

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List registered objectives and their observables",
	Run: func(cmd *cobra.Command, args []string) {
		writeObjectives(os.Stdout)
	},
}

func writeObjectives(w io.Writer) {
	for _, name := range scan.ObjectiveNames() {
		obj, err := scan.NewObjective(name)
		if err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%-12s %s\n", name, strings.Join(obj.Observables(), ", "))
	}
}

// --- luftscan list ---

var listDB string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scans stored in a SQLite database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		st, err := store.Open(ctx, listDB)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() { _ = st.Close() }()
		metas, err := st.List(ctx)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		writeScanList(os.Stdout, metas)
	},
}

func writeScanList(w io.Writer, metas []store.ScanMeta) {
	if len(metas) == 0 {
		_, _ = fmt.Fprintln(w, "No stored scans.")
		return
	}
	for _, m := range metas {
		_, _ = fmt.Fprintf(w, "%s  %s  %-8s %-6s samples=%d ok=%d seed=%d\n",
			m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Objective, m.Method, m.Samples, m.Succeeded, m.Seed)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	priorsCmd.Flags().StringVar(&priorsObjective, "objective", luft.ObjectiveName, "Registered objective")
	listCmd.Flags().StringVar(&listDB, "db", "luftscan.db", "SQLite database written by run --db")
}
