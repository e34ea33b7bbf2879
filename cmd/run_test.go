package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luftscan/luftscan/scan"
	"github.com/luftscan/luftscan/scan/analysis"
	"github.com/luftscan/luftscan/scan/luft"
)

// newTestRunCmd returns a fresh command with the run flags bound and the
// given flags set (and therefore marked Changed).
func newTestRunCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "run"}
	registerRunFlags(c)
	for name, value := range flags {
		require.NoError(t, c.Flags().Set(name, value))
	}
	return c
}

func TestResolveScanSpec_DefaultsToLUFTScan(t *testing.T) {
	spec, err := resolveScanSpec(newTestRunCmd(t, nil))
	require.NoError(t, err)
	assert.Equal(t, luft.DefaultScanSpec(), spec)
}

func TestResolveScanSpec_OnlyChangedFlagsOverrideConfig(t *testing.T) {
	// GIVEN a config with seed 7 and 25 samples
	path := filepath.Join(t.TempDir(), "scan.yaml")
	cfg := `
objective: luft
samples: 25
seed: 7
priors:
  - {name: chi, kind: log_uniform, min: 1.0e-12, max: 1.0e-6}
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	// WHEN only --samples is set on the command line
	spec, err := resolveScanSpec(newTestRunCmd(t, map[string]string{"config": path, "samples": "5"}))
	require.NoError(t, err)

	// THEN samples comes from the flag and seed from the config, not the flag default
	assert.Equal(t, 5, spec.Samples)
	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, []string{"chi"}, scan.PriorNames(spec.Priors))
}

func TestResolveScanSpec_ObjectiveFlagSwapsDefaultPriors(t *testing.T) {
	spec, err := resolveScanSpec(newTestRunCmd(t, map[string]string{
		"objective": luft.PericenterObjectiveName,
		"method":    scan.MethodRandom,
		"workers":   "2",
	}))
	require.NoError(t, err)
	assert.Equal(t, luft.PericenterObjectiveName, spec.Objective)
	assert.Equal(t, scan.PriorNames(luft.PericenterPriors()), scan.PriorNames(spec.Priors))
	assert.Equal(t, scan.MethodRandom, spec.Method)
	assert.Equal(t, 2, spec.Workers)
}

func TestResolveScanSpec_RejectsInvalid(t *testing.T) {
	_, err := resolveScanSpec(newTestRunCmd(t, map[string]string{"samples": "0"}))
	assert.Error(t, err)

	_, err = resolveScanSpec(newTestRunCmd(t, map[string]string{"objective": "no-such-objective"}))
	assert.ErrorIs(t, err, scan.ErrUnknownObjective)
}

func TestPrintSummary(t *testing.T) {
	// GIVEN a small completed scan
	spec := luft.DefaultScanSpec()
	spec.Samples = 12
	spec.Workers = 2
	result, err := scan.RunScan(spec, luft.CollapseObjective{})
	require.NoError(t, err)

	// WHEN printing the summary
	var buf bytes.Buffer
	printSummary(&buf, analysis.Summarize(result), 1500*time.Millisecond)

	// THEN the counts and every observable are listed
	out := buf.String()
	assert.Contains(t, out, "=== Scan Summary ===")
	assert.Contains(t, out, "Samples:      12")
	assert.Contains(t, out, "Elapsed:      1.5s")
	for _, name := range result.Observables {
		assert.Contains(t, out, name)
	}
}
