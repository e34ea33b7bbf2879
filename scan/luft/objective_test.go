package luft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luftscan/luftscan/scan"
)

func TestCollapseObjective_NoCollapseGivesNulls(t *testing.T) {
	// GIVEN the reference parameter point, which never collapses
	obs, err := CollapseObjective{}.Evaluate(scan.ParameterSet{})
	require.NoError(t, err)

	// THEN formation time and final mass are null, the rest defined
	require.Len(t, obs, len(CollapseObjective{}.Observables()))
	assert.Nil(t, obs[ObsFormationTime])
	assert.Nil(t, obs[ObsFinalSMBHMass])
	require.NotNil(t, obs[ObsCollapseProbability])
	assert.Equal(t, 0.0, *obs[ObsCollapseProbability])
	require.NotNil(t, obs[ObsLHCWithinBounds])
	assert.Equal(t, 1.0, *obs[ObsLHCWithinBounds])
}

func TestCollapseObjective_CollapseGivesMass(t *testing.T) {
	obs, err := CollapseObjective{}.Evaluate(scan.ParameterSet{"rho_crit": 1e-30, "alpha_acc": 0.5})
	require.NoError(t, err)

	require.NotNil(t, obs[ObsCollapseProbability])
	assert.Greater(t, *obs[ObsCollapseProbability], 0.0)
	require.NotNil(t, obs[ObsFormationTime])
	assert.Equal(t, 0.0, *obs[ObsFormationTime])
	// Collapse at t=0 leaves the default accretion rate undefined.
	require.NotNil(t, obs[ObsFinalSMBHMass])
}

func TestCollapseObjective_RejectsInvalidPoint(t *testing.T) {
	_, err := CollapseObjective{}.Evaluate(scan.ParameterSet{"chi": -1})
	assert.Error(t, err)

	_, err = CollapseObjective{}.Evaluate(scan.ParameterSet{"unknown": 1})
	assert.Error(t, err)
}

func TestWidePriors_CoverModelParameters(t *testing.T) {
	priors := WidePriors()
	require.NoError(t, scan.ValidatePriors(priors))
	assert.ElementsMatch(t, ParameterNames(), scan.PriorNames(priors))
}

func TestPericenterObjective(t *testing.T) {
	e := Encounter{M: 2e40, Rp: 3e19, VRel: 2e5, Alpha: 0.5, MEq: 1e-55, Qc: 1, Beta: 1}
	want := (HBar / e.MEq) * e.Alpha * (G * e.M) / (e.Rp * e.VRel * e.VRel)

	q, err := e.Q()
	require.NoError(t, err)
	assert.InDelta(t, 1, q/want, 1e-12)

	rCrit, err := e.CriticalPericenter()
	require.NoError(t, err)
	assert.InDelta(t, 1, rCrit/(want*e.Rp), 1e-12, "Q(r_crit) == Q_c")

	obs, err := PericenterObjective{}.Evaluate(scan.ParameterSet{
		"M": e.M, "r_p": e.Rp, "v_rel": e.VRel, "alpha": e.Alpha, "m_eq": e.MEq,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1, *obs[ObsQ]/want, 1e-12)
	nucleates := 0.0
	if want >= 1 {
		nucleates = 1
	}
	assert.Equal(t, nucleates, *obs[ObsNucleates])
}

func TestPericenterObjective_NucleatesMatchesEncounter(t *testing.T) {
	// GIVEN an encounter and its critical pericenter
	e := Encounter{M: 2e40, VRel: 2e5, Alpha: 0.5, MEq: 1e-55, Qc: 2, Beta: 1}
	rCrit, err := e.CriticalPericenter()
	require.NoError(t, err)

	for _, tt := range []struct {
		name string
		rp   float64
		want bool
	}{
		{"inside r_crit", rCrit / 2, true},
		{"outside r_crit", rCrit * 2, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN evaluating at a pericenter on either side of it
			e.Rp = tt.rp
			ok, err := e.Nucleates()
			require.NoError(t, err)
			obs, err := PericenterObjective{}.Evaluate(scan.ParameterSet{
				"M": e.M, "r_p": e.Rp, "v_rel": e.VRel, "alpha": e.Alpha, "m_eq": e.MEq, "Q_c": e.Qc,
			})
			require.NoError(t, err)

			// THEN the nucleates observable agrees with Encounter.Nucleates
			assert.Equal(t, tt.want, ok)
			want := 0.0
			if ok {
				want = 1
			}
			assert.Equal(t, want, *obs[ObsNucleates])
		})
	}
}

func TestEncounter_Errors(t *testing.T) {
	_, err := Encounter{Rp: 0, VRel: 1, MEq: 1, Qc: 1}.Q()
	assert.Error(t, err)
	_, err = Encounter{Rp: 1, VRel: 1, MEq: 1, Qc: 0}.CriticalPericenter()
	assert.Error(t, err)
	_, err = PericenterObjective{}.Evaluate(scan.ParameterSet{"v_rel": 1})
	assert.Error(t, err, "zero pericenter is rejected")
}

func TestFoamFactor(t *testing.T) {
	assert.Equal(t, 1.0, FoamFactor(0, 1))
	assert.InDelta(t, 2.25, FoamFactor(0.5, 2), 1e-12)
	assert.Equal(t, 0.0, FoamFactor(-2, 1), "base floors at zero")
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{ObjectiveName, PericenterObjectiveName} {
		obj, err := scan.NewObjective(name)
		require.NoError(t, err)
		assert.Equal(t, name, obj.Name())
		priors, ok := scan.DefaultPriors(obj)
		require.True(t, ok)
		assert.NoError(t, scan.ValidatePriors(priors))
	}
}

func TestDefaultScanSpec_RunsEndToEnd(t *testing.T) {
	spec := DefaultScanSpec()
	require.NoError(t, spec.Validate())

	spec.Samples = 40
	spec.Workers = 4
	result, err := scan.RunScan(spec, CollapseObjective{})
	require.NoError(t, err)
	assert.Equal(t, 40, result.Len())
	assert.Equal(t, scan.PriorNames(WidePriors()), result.Parameters)
	assert.Equal(t, 40, result.SuccessCount(), "wide priors are all physically valid")
}
