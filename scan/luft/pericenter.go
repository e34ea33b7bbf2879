package luft

import (
	"errors"
	"math"

	"github.com/luftscan/luftscan/scan"
)

// Physical constants (SI).
const (
	HBar = 1.054_571_817e-34 // J s
	G    = 6.674_30e-11      // m^3 kg^-1 s^-2
)

// PericenterObjectiveName is the registry name of the pericenter Q objective.
const PericenterObjectiveName = "luft-q"

// Observable names produced by PericenterObjective.
const (
	ObsQ         = "Q"
	ObsRCrit     = "r_crit"
	ObsNucleates = "nucleates"
)

// Encounter describes a merger pericenter passage, in SI units.
type Encounter struct {
	M               float64 // enclosed mass (kg)
	Rp              float64 // pericenter distance (m)
	VRel            float64 // relative velocity (m/s)
	Alpha           float64 // coupling efficiency
	MEq             float64 // equivalent lattice mass (kg)
	Qc              float64 // collapse threshold
	DeltaRhoOverRho float64 // fractional density perturbation
	Beta            float64 // foam exponent
}

// DefaultEncounter returns an encounter with threshold 1, no foam
// perturbation and unit foam exponent. Mass and kinematics are zero.
func DefaultEncounter() Encounter {
	return Encounter{Qc: 1, Beta: 1}
}

var encounterFields = map[string]func(*Encounter) *float64{
	"M":                  func(e *Encounter) *float64 { return &e.M },
	"r_p":                func(e *Encounter) *float64 { return &e.Rp },
	"v_rel":              func(e *Encounter) *float64 { return &e.VRel },
	"alpha":              func(e *Encounter) *float64 { return &e.Alpha },
	"m_eq":               func(e *Encounter) *float64 { return &e.MEq },
	"Q_c":                func(e *Encounter) *float64 { return &e.Qc },
	"delta_rho_over_rho": func(e *Encounter) *float64 { return &e.DeltaRhoOverRho },
	"beta":               func(e *Encounter) *float64 { return &e.Beta },
}

// FoamFactor returns (1 + delta)^beta with the base floored at zero.
func FoamFactor(deltaRhoOverRho, beta float64) float64 {
	return math.Pow(math.Max(0, 1+deltaRhoOverRho), beta)
}

// Q returns (hbar/m_eq) alpha G M / (r_p v_rel^2), amplified by the foam
// factor.
func (e Encounter) Q() (float64, error) {
	if e.Rp <= 0 || e.VRel <= 0 || e.MEq <= 0 {
		return 0, errors.New("r_p, v_rel, and m_eq must be positive")
	}
	base := (HBar / e.MEq) * e.Alpha * (G * e.M) / (e.Rp * e.VRel * e.VRel)
	return base * FoamFactor(e.DeltaRhoOverRho, e.Beta), nil
}

// CriticalPericenter returns the pericenter at which Q equals Q_c.
func (e Encounter) CriticalPericenter() (float64, error) {
	if e.VRel <= 0 || e.MEq <= 0 || e.Qc <= 0 {
		return 0, errors.New("v_rel, m_eq, and Q_c must be positive")
	}
	return (HBar * e.Alpha * G * e.M) / (e.MEq * e.Qc * e.VRel * e.VRel) * FoamFactor(e.DeltaRhoOverRho, e.Beta), nil
}

// Nucleates reports whether Q >= Q_c.
func (e Encounter) Nucleates() (bool, error) {
	q, err := e.Q()
	if err != nil {
		return false, err
	}
	return q >= e.Qc, nil
}

// PericenterObjective scores merger encounters against the lattice
// collapse threshold.
type PericenterObjective struct{}

func (PericenterObjective) Name() string {
	return PericenterObjectiveName
}

func (PericenterObjective) Observables() []string {
	return []string{ObsQ, ObsRCrit, ObsNucleates}
}

func (PericenterObjective) DefaultPriors() []scan.PriorSpec {
	return PericenterPriors()
}

func (PericenterObjective) Evaluate(params scan.ParameterSet) (scan.Observables, error) {
	e := DefaultEncounter()
	for name, v := range params {
		field, ok := encounterFields[name]
		if !ok {
			return nil, errors.New("unknown encounter parameter " + name)
		}
		*field(&e) = v
	}

	q, err := e.Q()
	if err != nil {
		return nil, err
	}
	rCrit, err := e.CriticalPericenter()
	if err != nil {
		return nil, err
	}
	ok, err := e.Nucleates()
	if err != nil {
		return nil, err
	}
	nucleates := 0.0
	if ok {
		nucleates = 1
	}
	return scan.Observables{
		ObsQ:         scan.Float(q),
		ObsRCrit:     scan.Float(rCrit),
		ObsNucleates: scan.Float(nucleates),
	}, nil
}

// PericenterPriors spans galaxy-scale encounters: enclosed masses of
// 1e6..1e12 solar masses, kpc-scale pericenters and 10..1000 km/s
// relative velocities.
func PericenterPriors() []scan.PriorSpec {
	return []scan.PriorSpec{
		scan.LogUniform("M", 2e36, 2e42),
		scan.LogUniform("r_p", 3e18, 3e21),
		scan.LogUniform("v_rel", 1e4, 1e6),
		scan.Uniform("alpha", 0.01, 1.0),
		scan.LogUniform("m_eq", 1e-60, 1e-50),
		scan.Uniform("delta_rho_over_rho", 0, 1),
	}
}
