// Package luft implements the LUFT lattice-collapse toy model as scan
// objectives: SMBH nucleation from lattice field collapse during galaxy
// mergers, with an electromagnetic portal term chi*phi*F^2.
package luft

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Parameters of the lattice-collapse mechanism.
type Parameters struct {
	Phi0            float64 // background field value (GeV)
	LambdaPhi       float64 // self-coupling constant
	MPhi            float64 // field mass (GeV)
	Chi             float64 // EM portal coupling (GeV^-1)
	MBHSeed         float64 // seed black hole mass (M_solar)
	AlphaAcc        float64 // accretion efficiency
	MergerTimescale float64 // merger timescale (years)
	QRatio          float64 // mass ratio of merging galaxies
	RhoCrit         float64 // critical density for collapse (GeV/cm^3)
	BetaCollapse    float64 // collapse exponent
}

// DefaultParameters returns the reference parameter point.
func DefaultParameters() Parameters {
	return Parameters{
		Phi0:            1e-3,
		LambdaPhi:       0.1,
		MPhi:            1e-6,
		Chi:             1e-9,
		MBHSeed:         1e3,
		AlphaAcc:        0.1,
		MergerTimescale: 1e8,
		QRatio:          1.0,
		RhoCrit:         1e15,
		BetaCollapse:    2.0,
	}
}

// parameterFields maps scan parameter names onto Parameters fields.
var parameterFields = map[string]func(*Parameters) *float64{
	"phi_0":            func(p *Parameters) *float64 { return &p.Phi0 },
	"lambda_phi":       func(p *Parameters) *float64 { return &p.LambdaPhi },
	"m_phi":            func(p *Parameters) *float64 { return &p.MPhi },
	"chi":              func(p *Parameters) *float64 { return &p.Chi },
	"M_bh_seed":        func(p *Parameters) *float64 { return &p.MBHSeed },
	"alpha_acc":        func(p *Parameters) *float64 { return &p.AlphaAcc },
	"merger_timescale": func(p *Parameters) *float64 { return &p.MergerTimescale },
	"q_ratio":          func(p *Parameters) *float64 { return &p.QRatio },
	"rho_crit":         func(p *Parameters) *float64 { return &p.RhoCrit },
	"beta_collapse":    func(p *Parameters) *float64 { return &p.BetaCollapse },
}

// ParameterNames returns the recognized scan parameter names, sorted.
func ParameterNames() []string {
	names := make([]string, 0, len(parameterFields))
	for name := range parameterFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParametersFrom overlays values onto DefaultParameters. Unknown names are
// rejected.
func ParametersFrom(values map[string]float64) (Parameters, error) {
	p := DefaultParameters()
	for name, v := range values {
		field, ok := parameterFields[name]
		if !ok {
			return Parameters{}, fmt.Errorf("unknown LUFT parameter %q", name)
		}
		*field(&p) = v
	}
	return p, nil
}

// Model evaluates the lattice-collapse physics for one parameter point.
type Model struct {
	params Parameters
}

// NewModel validates p for physical consistency.
func NewModel(p Parameters) (*Model, error) {
	switch {
	case p.Phi0 <= 0:
		return nil, errors.New("background field phi_0 must be positive")
	case p.Chi <= 0:
		return nil, errors.New("EM portal coupling chi must be positive")
	case p.MBHSeed <= 0:
		return nil, errors.New("seed black hole mass must be positive")
	case p.RhoCrit <= 0:
		return nil, errors.New("critical density must be positive")
	}
	return &Model{params: p}, nil
}

// FieldPotential returns V(phi) = m^2 phi^2 / 2 + lambda phi^4 / 4!.
func (m *Model) FieldPotential(phi float64) float64 {
	return 0.5*m.params.MPhi*m.params.MPhi*phi*phi + (m.params.LambdaPhi/24.0)*math.Pow(phi, 4)
}

// FieldDensity returns rho = (dphi/dt)^2 / 2 + V(phi).
func (m *Model) FieldDensity(phi, dphiDt float64) float64 {
	return 0.5*dphiDt*dphiDt + m.FieldPotential(phi)
}

// EMPortalCoupling returns the interaction density chi phi F^2.
func (m *Model) EMPortalCoupling(phi, fSquared float64) float64 {
	return m.params.Chi * phi * fSquared
}

// CollapseCriterion reports whether the total density exceeds the
// power-law enhanced threshold rho_crit (1 + (phi/phi_0)^beta).
func (m *Model) CollapseCriterion(phi, dphiDt, fSquared float64) bool {
	total := m.FieldDensity(phi, dphiDt) + m.EMPortalCoupling(phi, fSquared)
	threshold := m.params.RhoCrit * (1 + math.Pow(phi/m.params.Phi0, m.params.BetaCollapse))
	return total > threshold
}

// FieldEvolution is the sampled field trajectory during a merger.
type FieldEvolution struct {
	Time     []float64
	Phi      []float64
	DPhiDt   []float64
	Envelope []float64
}

// MergerFieldEvolution models phi(t) as an exponentially decaying
// oscillation with period tau/10.
func (m *Model) MergerFieldEvolution(t []float64, impactParameter float64) FieldEvolution {
	tau := m.params.MergerTimescale
	omega := 2 * math.Pi / (tau / 10)

	ev := FieldEvolution{
		Time:     append([]float64(nil), t...),
		Phi:      make([]float64, len(t)),
		DPhiDt:   make([]float64, len(t)),
		Envelope: make([]float64, len(t)),
	}
	for i, ti := range t {
		envelope := math.Exp(-ti / tau)
		osc := math.Cos(omega * ti)
		ev.Envelope[i] = envelope
		ev.Phi[i] = m.params.Phi0 * envelope * osc * impactParameter
		ev.DPhiDt[i] = m.params.Phi0 * envelope * (-osc/tau - omega*math.Sin(omega*ti)) * impactParameter
	}
	return ev
}

// SMBHMassEvolution returns M_seed (1 + rate t / M_seed). A nil rate
// selects the Eddington-limited default alpha_acc M_seed / t.
func (m *Model) SMBHMassEvolution(tCollapse float64, accretionRate *float64) float64 {
	rate := m.params.AlphaAcc * m.params.MBHSeed / tCollapse
	if accretionRate != nil {
		rate = *accretionRate
	}
	return m.params.MBHSeed * (1 + rate*tCollapse/m.params.MBHSeed)
}

// DefaultLHCEnergy is the LHC collision energy in GeV.
const DefaultLHCEnergy = 13e3

// LHCWindow bounds the EM portal coupling.
type LHCWindow struct {
	ChiMax       float64
	ChiMin       float64
	EnergyScale  float64
	CurrentChi   float64
	WithinBounds bool
}

// LHCConstraintWindow returns the perturbativity bound 1/(E phi_0) and the
// experimental sensitivity floor for chi.
func (m *Model) LHCConstraintWindow(energyScale float64) LHCWindow {
	chiMax := 1 / (energyScale * m.params.Phi0)
	chiMin := 1e-12
	return LHCWindow{
		ChiMax:       chiMax,
		ChiMin:       chiMin,
		EnergyScale:  energyScale,
		CurrentChi:   m.params.Chi,
		WithinBounds: chiMin <= m.params.Chi && m.params.Chi <= chiMax,
	}
}

// CollapseProbability returns the fraction of field samples satisfying the
// collapse criterion (with no EM background).
func (m *Model) CollapseProbability(phi, dphiDt []float64) float64 {
	if len(phi) == 0 {
		return 0
	}
	hits := 0
	for i := range phi {
		if m.CollapseCriterion(phi[i], dphiDt[i], 0) {
			hits++
		}
	}
	return float64(hits) / float64(len(phi))
}

// FormationTime returns the first time in [0, duration] at which the
// collapse criterion holds, sampled on 1000 points. ok is false if the
// field never collapses.
func (m *Model) FormationTime(duration float64) (t float64, ok bool) {
	times := Linspace(0, duration, 1000)
	ev := m.MergerFieldEvolution(times, 1.0)
	for i := range times {
		if m.CollapseCriterion(ev.Phi[i], ev.DPhiDt[i], 0) {
			return times[i], true
		}
	}
	return 0, false
}

// Linspace returns n evenly spaced values over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
