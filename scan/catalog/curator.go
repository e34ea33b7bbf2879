package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/luftscan/luftscan/scan"
)

var (
	// ErrCandidateNotFound indicates a name with no catalog entry.
	ErrCandidateNotFound = errors.New("catalog: candidate not found")

	// ErrEmptyCatalog indicates a statistic requested on no candidates.
	ErrEmptyCatalog = errors.New("catalog: no candidates")
)

// HighScoreThreshold separates high-score candidates (strictly above).
const HighScoreThreshold = 0.5

// minCorrelationCandidates is the population size above which the
// signature report includes correlations.
const minCorrelationCandidates = 3

// Curator holds the candidate catalog in insertion order. Replacing a
// candidate keeps its position. A Curator is not safe for concurrent use.
type Curator struct {
	candidates map[string]*Candidate
	order      []string
	now        func() time.Time
}

// NewCurator returns an empty catalog.
func NewCurator() *Curator {
	return &Curator{
		candidates: make(map[string]*Candidate),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// DefaultCurator returns a catalog seeded with DefaultCandidates.
func DefaultCurator() *Curator {
	c := NewCurator()
	for _, cand := range DefaultCandidates() {
		c.Add(cand)
	}
	return c
}

// Len returns the number of candidates.
func (c *Curator) Len() int {
	return len(c.order)
}

// Add inserts or replaces cand, stamping LastUpdated.
func (c *Curator) Add(cand Candidate) {
	stored := cand.clone()
	stored.LastUpdated = c.now()
	if _, ok := c.candidates[stored.Name]; !ok {
		c.order = append(c.order, stored.Name)
	}
	c.candidates[stored.Name] = &stored
}

// Update applies fn to the named candidate and stamps LastUpdated.
// The candidate keeps its name even if fn changes it.
func (c *Curator) Update(name string, fn func(*Candidate)) error {
	cand, ok := c.candidates[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCandidateNotFound, name)
	}
	fn(cand)
	cand.Name = name
	cand.LastUpdated = c.now()
	return nil
}

// Get returns a copy of the named candidate.
func (c *Curator) Get(name string) (Candidate, bool) {
	cand, ok := c.candidates[name]
	if !ok {
		return Candidate{}, false
	}
	return cand.clone(), true
}

// Candidates returns copies of every candidate in catalog order.
func (c *Curator) Candidates() []Candidate {
	return c.filter(func(*Candidate) bool { return true })
}

// ByRedshift returns candidates with zMin <= z <= zMax.
func (c *Curator) ByRedshift(zMin, zMax float64) []Candidate {
	return c.filter(func(cand *Candidate) bool {
		return zMin <= cand.Redshift && cand.Redshift <= zMax
	})
}

// BySurvey returns candidates from survey, compared case-insensitively.
func (c *Curator) BySurvey(survey string) []Candidate {
	return c.filter(func(cand *Candidate) bool {
		return strings.EqualFold(cand.Survey, survey)
	})
}

func (c *Curator) filter(keep func(*Candidate) bool) []Candidate {
	out := make([]Candidate, 0, len(c.order))
	for _, name := range c.order {
		if cand := c.candidates[name]; keep(cand) {
			out = append(out, cand.clone())
		}
	}
	return out
}

// Score returns the lattice-collapse score of cand in [0, 1]. It rewards
// redshift above 10, BH mass above 1e7 M_solar, BH-to-stellar mass ratios
// above 0.01, spectroscopic redshifts and a detected lattice signature.
func Score(cand Candidate) float64 {
	score := 0.0

	if cand.Redshift > 10 {
		score += 0.3 * math.Min((cand.Redshift-10)/5, 1)
	}

	mass := valueOf(cand.EstimatedMass)
	if mass > 1e7 {
		score += 0.25 * math.Min(math.Log10(mass/1e7)/2, 1)
	}

	if host := valueOf(cand.HostStellarMass); host > 0 && mass > 0 {
		if ratio := mass / host; ratio > 0.01 {
			score += 0.2 * math.Min(ratio/0.1, 1)
		}
	}

	if cand.RedshiftMethod == RedshiftSpectroscopic {
		score += 0.1
	}
	if cand.LatticeSignature {
		score += 0.15
	}
	return math.Min(score, 1)
}

// valueOf returns *v, or 0 when v is nil.
func valueOf(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ensureScores fills in the score of every unscored candidate and returns
// the scored candidates in catalog order.
func (c *Curator) ensureScores() []*Candidate {
	out := make([]*Candidate, 0, len(c.order))
	for _, name := range c.order {
		cand := c.candidates[name]
		if cand.CollapseScore == nil {
			cand.CollapseScore = scan.Float(Score(*cand))
		}
		out = append(out, cand)
	}
	return out
}

// PopulationStats summarizes the catalog. Mass fields are zero when
// MassEstimates is zero.
type PopulationStats struct {
	Total             int
	RedshiftMin       float64
	RedshiftMax       float64
	MeanRedshift      float64
	Surveys           map[string]int
	MassEstimates     int
	MassMin           float64
	MassMax           float64
	MeanMass          float64
	MeanScore         float64
	HighScoreFraction float64
}

// PopulationStats scores unscored candidates and summarizes the catalog.
func (c *Curator) PopulationStats() (*PopulationStats, error) {
	cands := c.ensureScores()
	if len(cands) == 0 {
		return nil, ErrEmptyCatalog
	}

	redshifts := make([]float64, len(cands))
	scores := make([]float64, len(cands))
	var masses []float64
	s := &PopulationStats{Total: len(cands), Surveys: make(map[string]int)}
	high := 0
	for i, cand := range cands {
		redshifts[i] = cand.Redshift
		scores[i] = *cand.CollapseScore
		if scores[i] > HighScoreThreshold {
			high++
		}
		if m := valueOf(cand.EstimatedMass); m != 0 {
			masses = append(masses, m)
		}
		s.Surveys[cand.Survey]++
	}

	s.RedshiftMin = floats.Min(redshifts)
	s.RedshiftMax = floats.Max(redshifts)
	s.MeanRedshift = stat.Mean(redshifts, nil)
	s.MeanScore = stat.Mean(scores, nil)
	s.HighScoreFraction = float64(high) / float64(len(cands))
	s.MassEstimates = len(masses)
	if len(masses) > 0 {
		s.MassMin = floats.Min(masses)
		s.MassMax = floats.Max(masses)
		s.MeanMass = stat.Mean(masses, nil)
	}
	return s, nil
}

// DefaultMinScore is the default target-list score cut.
const DefaultMinScore = 0.5

// TargetFilter selects candidates for follow-up.
type TargetFilter struct {
	MinScore      float64
	MaxRedshift   float64  // 0 = no limit
	RequiredBands []string // every band must be detected
}

// Target is one prioritized follow-up target.
type Target struct {
	Name          string
	Survey        string
	RA            float64
	Dec           float64
	Redshift      float64
	EstimatedMass *float64
	Score         float64
	Priority      float64
	Notes         string
}

// Targets scores unscored candidates and returns those passing f, highest
// priority first. Priority is the score plus 0.1 for a spectroscopic
// redshift and 0.2 for a detected lattice signature. Ties keep catalog
// order.
func (c *Curator) Targets(f TargetFilter) []Target {
	var out []Target
	for _, cand := range c.ensureScores() {
		score := *cand.CollapseScore
		if score < f.MinScore {
			continue
		}
		if f.MaxRedshift > 0 && cand.Redshift > f.MaxRedshift {
			continue
		}
		if !cand.HasBands(f.RequiredBands) {
			continue
		}

		priority := score
		if cand.RedshiftMethod == RedshiftSpectroscopic {
			priority += 0.1
		}
		if cand.LatticeSignature {
			priority += 0.2
		}
		out = append(out, Target{
			Name:          cand.Name,
			Survey:        cand.Survey,
			RA:            cand.RA,
			Dec:           cand.Dec,
			Redshift:      cand.Redshift,
			EstimatedMass: cloneFloat(cand.EstimatedMass),
			Score:         score,
			Priority:      priority,
			Notes:         cand.Notes,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// SignatureReport describes collapse signatures across the catalog.
// Correlations are nil for populations of minCorrelationCandidates or
// fewer, or when either series is constant.
type SignatureReport struct {
	Total                 int
	HighScore             int
	HighScoreFraction     float64
	SignatureDetections   int
	MeanRedshiftHighScore float64 // 0 when HighScore is 0
	RedshiftCorrelation   *float64
	MassCorrelation       *float64
}

// SignatureAnalysis scores unscored candidates and correlates score with
// redshift and, over candidates with a mass estimate, with mass.
func (c *Curator) SignatureAnalysis() (*SignatureReport, error) {
	cands := c.ensureScores()
	if len(cands) == 0 {
		return nil, ErrEmptyCatalog
	}

	r := &SignatureReport{Total: len(cands)}
	var highRedshifts []float64
	for _, cand := range cands {
		if *cand.CollapseScore > HighScoreThreshold {
			highRedshifts = append(highRedshifts, cand.Redshift)
		}
		if cand.LatticeSignature {
			r.SignatureDetections++
		}
	}
	r.HighScore = len(highRedshifts)
	r.HighScoreFraction = float64(r.HighScore) / float64(r.Total)
	if r.HighScore > 0 {
		r.MeanRedshiftHighScore = stat.Mean(highRedshifts, nil)
	}

	if len(cands) <= minCorrelationCandidates {
		return r, nil
	}

	scores := make([]float64, len(cands))
	redshifts := make([]float64, len(cands))
	var massScores, masses []float64
	for i, cand := range cands {
		scores[i] = *cand.CollapseScore
		redshifts[i] = cand.Redshift
		if m := valueOf(cand.EstimatedMass); m != 0 {
			massScores = append(massScores, scores[i])
			masses = append(masses, m)
		}
	}
	r.RedshiftCorrelation = correlation(scores, redshifts)
	if len(masses) > 1 {
		r.MassCorrelation = correlation(massScores, masses)
	}
	return r, nil
}

func correlation(x, y []float64) *float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil
	}
	return scan.Float(r)
}
