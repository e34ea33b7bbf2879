package luft

import (
	"github.com/luftscan/luftscan/scan"
)

// ObjectiveName is the registry name of the lattice-collapse objective.
const ObjectiveName = "luft"

// Observable names produced by CollapseObjective.
const (
	ObsCollapseProbability = "collapse_probability"
	ObsFormationTime       = "formation_time"
	ObsFinalSMBHMass       = "final_smbh_mass"
	ObsLHCChiMax           = "lhc_chi_max"
	ObsLHCChiMin           = "lhc_chi_min"
	ObsLHCEnergyScale      = "lhc_energy_scale"
	ObsLHCCurrentChi       = "lhc_current_chi"
	ObsLHCWithinBounds     = "lhc_within_bounds"
)

var collapseObservables = []string{
	ObsCollapseProbability,
	ObsFormationTime,
	ObsFinalSMBHMass,
	ObsLHCChiMax,
	ObsLHCChiMin,
	ObsLHCEnergyScale,
	ObsLHCCurrentChi,
	ObsLHCWithinBounds,
}

// probabilitySamples is the trajectory resolution for collapse_probability.
const probabilitySamples = 100

// CollapseObjective evaluates the merger-driven lattice collapse.
// It is stateless and safe for concurrent use.
type CollapseObjective struct{}

func (CollapseObjective) Name() string {
	return ObjectiveName
}

func (CollapseObjective) Observables() []string {
	return append([]string(nil), collapseObservables...)
}

// DefaultPriors returns the wide exploration priors.
func (CollapseObjective) DefaultPriors() []scan.PriorSpec {
	return WidePriors()
}

// Evaluate computes every observable. formation_time and final_smbh_mass
// are null when the field never collapses.
func (CollapseObjective) Evaluate(params scan.ParameterSet) (scan.Observables, error) {
	p, err := ParametersFrom(params)
	if err != nil {
		return nil, err
	}
	model, err := NewModel(p)
	if err != nil {
		return nil, err
	}

	out := make(scan.Observables, len(collapseObservables))

	ev := model.MergerFieldEvolution(Linspace(0, p.MergerTimescale, probabilitySamples), 1.0)
	out[ObsCollapseProbability] = scan.Float(model.CollapseProbability(ev.Phi, ev.DPhiDt))

	out[ObsFormationTime] = nil
	out[ObsFinalSMBHMass] = nil
	if t, ok := model.FormationTime(p.MergerTimescale); ok {
		out[ObsFormationTime] = scan.Float(t)
		out[ObsFinalSMBHMass] = scan.Float(model.SMBHMassEvolution(t, nil))
	}

	w := model.LHCConstraintWindow(DefaultLHCEnergy)
	out[ObsLHCChiMax] = scan.Float(w.ChiMax)
	out[ObsLHCChiMin] = scan.Float(w.ChiMin)
	out[ObsLHCEnergyScale] = scan.Float(w.EnergyScale)
	out[ObsLHCCurrentChi] = scan.Float(w.CurrentChi)
	within := 0.0
	if w.WithinBounds {
		within = 1
	}
	out[ObsLHCWithinBounds] = scan.Float(within)
	return out, nil
}

// WidePriors returns wide priors for initial exploration, before
// constraint narrowing from observational data.
func WidePriors() []scan.PriorSpec {
	return []scan.PriorSpec{
		scan.LogUniform("phi_0", 1e-6, 1e0),
		scan.LogUniform("lambda_phi", 1e-3, 1e1),
		scan.LogUniform("m_phi", 1e-9, 1e-3),
		scan.LogUniform("chi", 1e-12, 1e-6),
		scan.LogUniform("M_bh_seed", 1e2, 1e6),
		scan.Uniform("alpha_acc", 0.01, 1.0),
		scan.LogUniform("merger_timescale", 1e6, 1e10),
		scan.Uniform("q_ratio", 0.1, 10.0),
		scan.LogUniform("rho_crit", 1e12, 1e18),
		scan.Uniform("beta_collapse", 1.0, 5.0),
	}
}
