// Package export writes and reads scan results as a flat table: a YAML
// header describing the scan and a CSV file with one row per sample.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/luftscan/luftscan/scan"
)

// ParamPrefix distinguishes parameter columns from observable columns.
const ParamPrefix = "param_"

// Fixed trailing columns.
const (
	ColumnSuccess = "evaluation_success"
	ColumnError   = "error"
)

// ScanHeader captures metadata for an exported scan.
type ScanHeader struct {
	Version   int              `yaml:"export_version"`
	CreatedAt string           `yaml:"created_at,omitempty"`
	Objective string           `yaml:"objective"`
	Method    string           `yaml:"method"`
	Samples   int              `yaml:"samples"`
	Seed      int64            `yaml:"seed"`
	Priors    []scan.PriorSpec `yaml:"priors,omitempty"`
}

// HeaderFromSpec builds a ScanHeader from the spec that produced a scan.
func HeaderFromSpec(spec *scan.ScanSpec) *ScanHeader {
	return &ScanHeader{
		Version:   1,
		Objective: spec.Objective,
		Method:    spec.Method,
		Samples:   spec.Samples,
		Seed:      spec.Seed,
		Priors:    spec.Priors,
	}
}

// Columns returns the CSV header row for a ScanResult.
func Columns(result *scan.ScanResult) []string {
	cols := make([]string, 0, len(result.Parameters)+len(result.Observables)+2)
	for _, p := range result.Parameters {
		cols = append(cols, ParamPrefix+p)
	}
	cols = append(cols, result.Observables...)
	return append(cols, ColumnSuccess, ColumnError)
}

// WriteCSV writes result as CSV to w. Null observables are empty cells.
func WriteCSV(w io.Writer, result *scan.ScanResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns(result)); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range result.Rows {
		row := make([]string, 0, len(result.Parameters)+len(result.Observables)+2)
		for _, p := range result.Parameters {
			row = append(row, strconv.FormatFloat(r.Parameters[p], 'g', -1, 64))
		}
		for _, o := range result.Observables {
			if v, ok := r.Value(o); ok {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, strconv.FormatBool(r.Success), r.Error)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportCSV writes the header (YAML, skipped when headerPath is empty) and
// the data (CSV) to separate files.
func ExportCSV(header *ScanHeader, result *scan.ScanResult, headerPath, dataPath string) error {
	if headerPath != "" && header != nil {
		headerData, err := yaml.Marshal(header)
		if err != nil {
			return fmt.Errorf("marshaling scan header: %w", err)
		}
		if err := os.WriteFile(headerPath, headerData, 0644); err != nil {
			return fmt.Errorf("writing scan header: %w", err)
		}
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("creating scan data file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteCSV(file, result)
}

// ReadCSV parses a CSV table written by WriteCSV.
func ReadCSV(r io.Reader) (*scan.ScanResult, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) < 2 || header[len(header)-2] != ColumnSuccess || header[len(header)-1] != ColumnError {
		return nil, fmt.Errorf("CSV header must end with %q, %q", ColumnSuccess, ColumnError)
	}

	var params, observables []string
	for _, col := range header[:len(header)-2] {
		if name, ok := strings.CutPrefix(col, ParamPrefix); ok {
			params = append(params, name)
		} else {
			observables = append(observables, col)
		}
	}
	result := scan.NewScanResult(params, observables)

	for idx := 0; ; idx++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		r, err := parseRow(idx, header, row)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, r)
	}
	return result, nil
}

// LoadCSV reads the header (YAML, optional) and data (CSV) files.
func LoadCSV(headerPath, dataPath string) (*ScanHeader, *scan.ScanResult, error) {
	var header *ScanHeader
	if headerPath != "" {
		headerData, err := os.ReadFile(headerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading scan header: %w", err)
		}
		header = &ScanHeader{}
		if err := yaml.Unmarshal(headerData, header); err != nil {
			return nil, nil, fmt.Errorf("parsing scan header: %w", err)
		}
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening scan data: %w", err)
	}
	defer func() { _ = file.Close() }()

	result, err := ReadCSV(file)
	if err != nil {
		return nil, nil, err
	}
	return header, result, nil
}

func parseRow(idx int, header, row []string) (scan.EvaluationResult, error) {
	r := scan.EvaluationResult{
		Index:       idx,
		Parameters:  make(scan.ParameterSet),
		Observables: make(scan.Observables),
	}
	n := len(header)
	for c, col := range header[:n-2] {
		cell := row[c]
		name, isParam := strings.CutPrefix(col, ParamPrefix)
		if !isParam {
			if cell == "" {
				r.Observables[col] = nil
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return r, fmt.Errorf("row %d column %q: %w", idx, col, err)
			}
			r.Observables[col] = scan.Float(v)
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return r, fmt.Errorf("row %d column %q: %w", idx, col, err)
		}
		r.Parameters[name] = v
	}
	success, err := strconv.ParseBool(row[n-2])
	if err != nil {
		return r, fmt.Errorf("row %d column %q: %w", idx, ColumnSuccess, err)
	}
	r.Success = success
	r.Error = row[n-1]
	return r, nil
}
