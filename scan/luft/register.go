package luft

import "github.com/luftscan/luftscan/scan"

// Registers the LUFT objectives with the scan registry.
// Import with a blank identifier to make them available by name.
func init() {
	scan.RegisterObjective(ObjectiveName, func() scan.Objective { return CollapseObjective{} })
	scan.RegisterObjective(PericenterObjectiveName, func() scan.Objective { return PericenterObjective{} })
}

// DefaultScanSpec returns a 1000-sample LHS scan of the lattice-collapse
// objective over WidePriors.
func DefaultScanSpec() *scan.ScanSpec {
	return &scan.ScanSpec{
		Version:   "1",
		Objective: ObjectiveName,
		Method:    scan.MethodLHS,
		Samples:   1000,
		Seed:      42,
		Priors:    WidePriors(),
	}
}
