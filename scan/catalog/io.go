package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a catalog file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat indicates a format other than json, csv or yaml.
var ErrUnsupportedFormat = errors.New("catalog: unsupported format")

// ParseFormat accepts a format name in any case.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatCSV, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Export writes the catalog to w. Exporting scores unscored candidates
// first so the file carries every score.
func (c *Curator) Export(w io.Writer, f Format) error {
	cands := c.ensureScores()
	switch f {
	case FormatJSON:
		return writeJSON(w, cands)
	case FormatCSV:
		return writeCSV(w, cands)
	case FormatYAML:
		return writeYAML(w, cands)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Import adds every candidate read from r and returns how many were read.
// Candidates already in the catalog are replaced.
func (c *Curator) Import(r io.Reader, f Format) (int, error) {
	var (
		cands []Candidate
		err   error
	)
	switch f {
	case FormatJSON:
		cands, err = readJSON(r)
	case FormatCSV:
		cands, err = readCSV(r)
	case FormatYAML:
		cands, err = readYAML(r)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return 0, err
	}
	for _, cand := range cands {
		c.Add(cand)
	}
	return len(cands), nil
}

// ExportFile writes the catalog to path.
func (c *Curator) ExportFile(path string, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating catalog file: %w", err)
	}
	if err := c.Export(file, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ImportFile reads candidates from path.
func (c *Curator) ImportFile(path string, f Format) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening catalog file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return c.Import(file, f)
}

// --- JSON: one nested record per candidate, keyed by name ---

type jsonRecord struct {
	BasicInfo struct {
		Name   string  `json:"name"`
		Survey string  `json:"survey"`
		RA     float64 `json:"ra"`
		Dec    float64 `json:"dec"`
	} `json:"basic_info"`
	Redshift struct {
		Value        float64  `json:"value"`
		Error        *float64 `json:"error"`
		Method       string   `json:"method"`
		LookbackTime *float64 `json:"lookback_time"`
	} `json:"redshift"`
	BlackHole struct {
		Mass       *float64 `json:"mass"`
		MassError  *float64 `json:"mass_error"`
		MassMethod string   `json:"mass_method"`
	} `json:"black_hole"`
	HostGalaxy struct {
		StellarMass *float64 `json:"stellar_mass"`
		SFR         *float64 `json:"sfr"`
		Morphology  string   `json:"morphology"`
	} `json:"host_galaxy"`
	Observations struct {
		JWSTPrograms     []string           `json:"jwst_programs"`
		DetectionBands   []string           `json:"detection_bands"`
		Photometry       map[string]float64 `json:"photometry"`
		PhotometryErrors map[string]float64 `json:"photometry_errors,omitempty"`
	} `json:"observations"`
	LUFTAnalysis struct {
		CollapseScore    *float64 `json:"collapse_score"`
		LatticeSignature bool     `json:"lattice_signature"`
		EMPortalEvidence *float64 `json:"em_portal_evidence"`
	} `json:"luft_analysis"`
	Metadata struct {
		DiscoveryDate string   `json:"discovery_date,omitempty"`
		Notes         string   `json:"notes"`
		References    []string `json:"references"`
		LastUpdated   string   `json:"last_updated"`
	} `json:"metadata"`
}

func toRecord(cand *Candidate) jsonRecord {
	var r jsonRecord
	r.BasicInfo.Name = cand.Name
	r.BasicInfo.Survey = cand.Survey
	r.BasicInfo.RA = cand.RA
	r.BasicInfo.Dec = cand.Dec
	r.Redshift.Value = cand.Redshift
	r.Redshift.Error = cand.RedshiftError
	r.Redshift.Method = cand.RedshiftMethod
	r.Redshift.LookbackTime = cand.LookbackTime
	r.BlackHole.Mass = cand.EstimatedMass
	r.BlackHole.MassError = cand.MassError
	r.BlackHole.MassMethod = cand.MassMethod
	r.HostGalaxy.StellarMass = cand.HostStellarMass
	r.HostGalaxy.SFR = cand.HostSFR
	r.HostGalaxy.Morphology = cand.HostMorphology
	r.Observations.JWSTPrograms = cand.JWSTPrograms
	r.Observations.DetectionBands = cand.DetectionBands
	r.Observations.Photometry = cand.Photometry
	r.Observations.PhotometryErrors = cand.PhotometryErrors
	r.LUFTAnalysis.CollapseScore = cand.CollapseScore
	r.LUFTAnalysis.LatticeSignature = cand.LatticeSignature
	r.LUFTAnalysis.EMPortalEvidence = cand.EMPortalEvidence
	r.Metadata.DiscoveryDate = cand.DiscoveryDate
	r.Metadata.Notes = cand.Notes
	r.Metadata.References = cand.References
	r.Metadata.LastUpdated = cand.LastUpdated.Format(time.RFC3339Nano)
	return r
}

func fromRecord(key string, r jsonRecord) Candidate {
	name := r.BasicInfo.Name
	if name == "" {
		name = key
	}
	cand := NewCandidate(name, r.BasicInfo.Survey, r.BasicInfo.RA, r.BasicInfo.Dec, r.Redshift.Value)
	cand.RedshiftError = r.Redshift.Error
	if r.Redshift.Method != "" {
		cand.RedshiftMethod = r.Redshift.Method
	}
	cand.LookbackTime = r.Redshift.LookbackTime
	cand.EstimatedMass = r.BlackHole.Mass
	cand.MassError = r.BlackHole.MassError
	if r.BlackHole.MassMethod != "" {
		cand.MassMethod = r.BlackHole.MassMethod
	}
	cand.HostStellarMass = r.HostGalaxy.StellarMass
	cand.HostSFR = r.HostGalaxy.SFR
	if r.HostGalaxy.Morphology != "" {
		cand.HostMorphology = r.HostGalaxy.Morphology
	}
	cand.JWSTPrograms = r.Observations.JWSTPrograms
	cand.DetectionBands = r.Observations.DetectionBands
	cand.Photometry = r.Observations.Photometry
	cand.PhotometryErrors = r.Observations.PhotometryErrors
	cand.CollapseScore = r.LUFTAnalysis.CollapseScore
	cand.LatticeSignature = r.LUFTAnalysis.LatticeSignature
	cand.EMPortalEvidence = r.LUFTAnalysis.EMPortalEvidence
	cand.DiscoveryDate = r.Metadata.DiscoveryDate
	cand.Notes = r.Metadata.Notes
	cand.References = r.Metadata.References
	return cand
}

func writeJSON(w io.Writer, cands []*Candidate) error {
	records := make(map[string]jsonRecord, len(cands))
	for _, cand := range cands {
		records[cand.Name] = toRecord(cand)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding catalog JSON: %w", err)
	}
	return nil
}

// readJSON returns the candidates sorted by key; JSON objects carry no order.
func readJSON(r io.Reader) ([]Candidate, error) {
	var records map[string]jsonRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding catalog JSON: %w", err)
	}
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		out = append(out, fromRecord(k, records[k]))
	}
	return out, nil
}

// --- YAML: a candidates list in catalog order ---

type yamlCatalog struct {
	Candidates []Candidate `yaml:"candidates"`
}

func writeYAML(w io.Writer, cands []*Candidate) error {
	doc := yamlCatalog{Candidates: make([]Candidate, len(cands))}
	for i, cand := range cands {
		doc.Candidates[i] = *cand
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling catalog YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// readYAML rejects unknown keys; missing methods take NewCandidate defaults.
func readYAML(r io.Reader) ([]Candidate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog YAML: %w", err)
	}
	var doc yamlCatalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	for i := range doc.Candidates {
		cand := &doc.Candidates[i]
		if cand.Name == "" {
			return nil, fmt.Errorf("catalog YAML entry %d: name is required", i)
		}
		if cand.RedshiftMethod == "" {
			cand.RedshiftMethod = RedshiftPhotometric
		}
		if cand.MassMethod == "" {
			cand.MassMethod = Unknown
		}
		if cand.HostMorphology == "" {
			cand.HostMorphology = Unknown
		}
	}
	return doc.Candidates, nil
}

// --- CSV: the flat summary columns ---

// CSV columns. The first five are required on import.
const (
	colName             = "name"
	colSurvey           = "survey"
	colRA               = "ra"
	colDec              = "dec"
	colRedshift         = "redshift"
	colRedshiftError    = "redshift_error"
	colEstimatedMass    = "estimated_mass"
	colHostStellarMass  = "host_stellar_mass"
	colScore            = "luft_score"
	colLatticeSignature = "lattice_signature"
	colDiscoveryDate    = "discovery_date"
	colNotes            = "notes"
)

// CSVColumns is the header row written by Export with FormatCSV.
var CSVColumns = []string{
	colName, colSurvey, colRA, colDec, colRedshift, colRedshiftError,
	colEstimatedMass, colHostStellarMass, colScore, colLatticeSignature,
	colDiscoveryDate, colNotes,
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func writeCSV(w io.Writer, cands []*Candidate) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, cand := range cands {
		row := []string{
			cand.Name,
			cand.Survey,
			strconv.FormatFloat(cand.RA, 'g', -1, 64),
			strconv.FormatFloat(cand.Dec, 'g', -1, 64),
			strconv.FormatFloat(cand.Redshift, 'g', -1, 64),
			formatOptional(cand.RedshiftError),
			formatOptional(cand.EstimatedMass),
			formatOptional(cand.HostStellarMass),
			formatOptional(cand.CollapseScore),
			strconv.FormatBool(cand.LatticeSignature),
			cand.DiscoveryDate,
			cand.Notes,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %q: %w", cand.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func readCSV(r io.Reader) ([]Candidate, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}
	for _, col := range CSVColumns[:5] {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	var out []Candidate
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		cand, err := parseCandidateRow(index, row)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		out = append(out, cand)
	}
	return out, nil
}

func parseCandidateRow(index map[string]int, row []string) (Candidate, error) {
	cell := func(col string) string {
		if i, ok := index[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	required := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(cell(col), 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", col, err)
		}
		return v, nil
	}
	optional := func(col string) (*float64, error) {
		s := cell(col)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		return &v, nil
	}

	name := cell(colName)
	if name == "" {
		return Candidate{}, errors.New("name is required")
	}
	ra, err := required(colRA)
	if err != nil {
		return Candidate{}, err
	}
	dec, err := required(colDec)
	if err != nil {
		return Candidate{}, err
	}
	z, err := required(colRedshift)
	if err != nil {
		return Candidate{}, err
	}
	cand := NewCandidate(name, cell(colSurvey), ra, dec, z)

	for col, dst := range map[string]**float64{
		colRedshiftError:   &cand.RedshiftError,
		colEstimatedMass:   &cand.EstimatedMass,
		colHostStellarMass: &cand.HostStellarMass,
		colScore:           &cand.CollapseScore,
	} {
		if *dst, err = optional(col); err != nil {
			return Candidate{}, err
		}
	}
	if s := cell(colLatticeSignature); s != "" {
		if cand.LatticeSignature, err = strconv.ParseBool(s); err != nil {
			return Candidate{}, fmt.Errorf("column %q: %w", colLatticeSignature, err)
		}
	}
	cand.DiscoveryDate = cell(colDiscoveryDate)
	cand.Notes = cell(colNotes)
	return cand, nil
}
