// Package catalog curates observed high-redshift SMBH candidates and ranks
// them by how strongly they suggest lattice-collapse formation.
package catalog

import (
	"time"

	"github.com/luftscan/luftscan/scan"
)

// Redshift methods.
const (
	RedshiftPhotometric   = "photometric"
	RedshiftSpectroscopic = "spectroscopic"
)

// Unknown is the default mass method and host morphology.
const Unknown = "unknown"

// Candidate is one observed SMBH candidate. Optional measurements are nil
// when not available.
type Candidate struct {
	Name   string  `yaml:"name" json:"name"`
	Survey string  `yaml:"survey" json:"survey"`
	RA     float64 `yaml:"ra" json:"ra"`   // degrees
	Dec    float64 `yaml:"dec" json:"dec"` // degrees

	Redshift       float64  `yaml:"redshift" json:"redshift"`
	RedshiftError  *float64 `yaml:"redshift_error,omitempty" json:"redshift_error,omitempty"`
	RedshiftMethod string   `yaml:"redshift_method" json:"redshift_method"`
	LookbackTime   *float64 `yaml:"lookback_time,omitempty" json:"lookback_time,omitempty"` // Gyr

	EstimatedMass *float64 `yaml:"estimated_mass,omitempty" json:"estimated_mass,omitempty"` // M_solar
	MassError     *float64 `yaml:"mass_error,omitempty" json:"mass_error,omitempty"`
	MassMethod    string   `yaml:"mass_method" json:"mass_method"`

	HostStellarMass *float64 `yaml:"host_stellar_mass,omitempty" json:"host_stellar_mass,omitempty"` // M_solar
	HostSFR         *float64 `yaml:"host_sfr,omitempty" json:"host_sfr,omitempty"`                   // M_solar/yr
	HostMorphology  string   `yaml:"host_morphology" json:"host_morphology"`

	JWSTPrograms     []string           `yaml:"jwst_programs,omitempty" json:"jwst_programs,omitempty"`
	DetectionBands   []string           `yaml:"detection_bands,omitempty" json:"detection_bands,omitempty"`
	Photometry       map[string]float64 `yaml:"photometry,omitempty" json:"photometry,omitempty"` // band -> magnitude
	PhotometryErrors map[string]float64 `yaml:"photometry_errors,omitempty" json:"photometry_errors,omitempty"`

	CollapseScore    *float64 `yaml:"collapse_score,omitempty" json:"collapse_score,omitempty"` // 0-1
	LatticeSignature bool     `yaml:"lattice_signature" json:"lattice_signature"`
	EMPortalEvidence *float64 `yaml:"em_portal_evidence,omitempty" json:"em_portal_evidence,omitempty"`

	DiscoveryDate string    `yaml:"discovery_date,omitempty" json:"discovery_date,omitempty"`
	Notes         string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	References    []string  `yaml:"references,omitempty" json:"references,omitempty"`
	LastUpdated   time.Time `yaml:"last_updated" json:"last_updated"`
}

// NewCandidate returns a candidate with the default methods filled in.
func NewCandidate(name, survey string, ra, dec, redshift float64) Candidate {
	return Candidate{
		Name:           name,
		Survey:         survey,
		RA:             ra,
		Dec:            dec,
		Redshift:       redshift,
		RedshiftMethod: RedshiftPhotometric,
		MassMethod:     Unknown,
		HostMorphology: Unknown,
	}
}

// HasBands reports whether every band in bands was detected.
func (c Candidate) HasBands(bands []string) bool {
	for _, b := range bands {
		found := false
		for _, d := range c.DetectionBands {
			if d == b {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c Candidate) clone() Candidate {
	out := c
	out.JWSTPrograms = append([]string(nil), c.JWSTPrograms...)
	out.DetectionBands = append([]string(nil), c.DetectionBands...)
	out.References = append([]string(nil), c.References...)
	out.Photometry = cloneBands(c.Photometry)
	out.PhotometryErrors = cloneBands(c.PhotometryErrors)
	out.RedshiftError = cloneFloat(c.RedshiftError)
	out.LookbackTime = cloneFloat(c.LookbackTime)
	out.EstimatedMass = cloneFloat(c.EstimatedMass)
	out.MassError = cloneFloat(c.MassError)
	out.HostStellarMass = cloneFloat(c.HostStellarMass)
	out.HostSFR = cloneFloat(c.HostSFR)
	out.CollapseScore = cloneFloat(c.CollapseScore)
	out.EMPortalEvidence = cloneFloat(c.EMPortalEvidence)
	return out
}

func cloneBands(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return scan.Float(*v)
}

// DefaultCandidates returns the seed catalog: the JADES z~13-14 galaxies
// and the CEERS "Infinity Galaxy" direct-collapse candidate. Coordinates
// are placeholders.
func DefaultCandidates() []Candidate {
	z14 := NewCandidate("JADES-GS-z14-0", "JADES", 53.1234, -27.7890, 14.32)
	z14.RedshiftError = scan.Float(0.20)
	z14.LookbackTime = scan.Float(13.5)
	z14.EstimatedMass = scan.Float(1e8)
	z14.MassError = scan.Float(5e7)
	z14.MassMethod = "virial"
	z14.HostStellarMass = scan.Float(1e9)
	z14.HostSFR = scan.Float(10.0)
	z14.JWSTPrograms = []string{"JADES", "DDT-2756"}
	z14.DetectionBands = []string{"F200W", "F277W", "F356W", "F444W"}
	z14.Photometry = map[string]float64{"F200W": 27.8, "F277W": 26.9, "F356W": 26.4, "F444W": 26.2}
	z14.PhotometryErrors = map[string]float64{"F200W": 0.3, "F277W": 0.2, "F356W": 0.2, "F444W": 0.2}
	z14.DiscoveryDate = "2024-05-28"
	z14.Notes = "Extremely red galaxy with potential AGN signatures. Strong Lyman break."
	z14.References = []string{"Carniani et al. 2024", "JADES Collaboration 2024"}

	z13 := NewCandidate("JADES-GS-z13-0", "JADES", 53.0987, -27.8123, 13.20)
	z13.RedshiftError = scan.Float(0.15)
	z13.RedshiftMethod = RedshiftSpectroscopic
	z13.LookbackTime = scan.Float(13.4)
	z13.EstimatedMass = scan.Float(5e7)
	z13.MassError = scan.Float(2e7)
	z13.MassMethod = "virial"
	z13.HostStellarMass = scan.Float(8e8)
	z13.HostSFR = scan.Float(8.0)
	z13.JWSTPrograms = []string{"JADES", "NIRSpec"}
	z13.DetectionBands = []string{"F090W", "F150W", "F200W", "F277W", "F356W"}
	z13.Photometry = map[string]float64{"F150W": 28.1, "F200W": 27.6, "F277W": 26.8, "F356W": 26.3}
	z13.DiscoveryDate = "2024-04-15"
	z13.Notes = "Spectroscopic confirmation. Broad emission lines suggest AGN activity."
	z13.References = []string{"Curtis-Lake et al. 2024", "JADES Team 2024"}

	inf := NewCandidate("Infinity Galaxy", "CEERS", 214.825, 52.825, 12.8)
	inf.RedshiftError = scan.Float(0.3)
	inf.LookbackTime = scan.Float(13.3)
	inf.EstimatedMass = scan.Float(2e8)
	inf.MassError = scan.Float(1e8)
	inf.MassMethod = "theoretical"
	inf.HostStellarMass = scan.Float(2e9)
	inf.HostSFR = scan.Float(20.0)
	inf.HostMorphology = "peculiar"
	inf.JWSTPrograms = []string{"CEERS", "DDT-2750"}
	inf.DetectionBands = []string{"F115W", "F200W", "F277W", "F356W", "F444W"}
	inf.Photometry = map[string]float64{"F115W": 28.5, "F200W": 27.2, "F277W": 26.1, "F356W": 25.8, "F444W": 25.6}
	inf.LatticeSignature = true
	inf.CollapseScore = scan.Float(0.78)
	inf.EMPortalEvidence = scan.Float(0.85)
	inf.DiscoveryDate = "2024-06-20"
	inf.Notes = "Exceptional candidate showing potential direct-collapse signatures. " +
		"Unusual SED suggests non-stellar processes. Possible LUFT lattice residuals."
	inf.References = []string{"Finkelstein et al. 2024", "Hypothetical LUFT Study 2024"}

	return []Candidate{z14, z13, inf}
}
