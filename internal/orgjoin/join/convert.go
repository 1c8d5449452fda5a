package join

import (
	"io"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

// Stage is a checkpoint reported by Run before the work it names begins.
type Stage int

const (
	StageValidating Stage = iota
	StageResolving
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful Run.
type Result struct {
	Content        []byte
	Stats          Stats
	MappingEntries int
}

// Run parses, validates, resolves and encodes. onStage, when set, is called at
// each checkpoint; an error from it stops the run and is returned unchanged.
//
// Both tables are parsed and validated before any row is resolved, so a failure
// never yields partial output.
func Run(orgs, scan io.Reader, format entity.Format, onStage func(Stage) error) (Result, error) {
	enter := func(s Stage) error {
		if onStage == nil {
			return nil
		}
		return onStage(s)
	}

	if missing := MissingInputs(orgs, scan); len(missing) > 0 {
		return Result{}, &MissingInputError{Inputs: missing}
	}

	if err := enter(StageValidating); err != nil {
		return Result{}, err
	}

	orgTable, err := ReadTable(InputOrgMapping, orgs)
	if err != nil {
		return Result{}, err
	}
	scanTable, err := ReadTable(InputScanReport, scan)
	if err != nil {
		return Result{}, err
	}
	if err := Validate(orgTable, scanTable); err != nil {
		return Result{}, err
	}

	if err := enter(StageResolving); err != nil {
		return Result{}, err
	}

	mapping, err := BuildMapping(orgTable)
	if err != nil {
		return Result{}, err
	}
	augmented, stats, err := Augment(scanTable, mapping)
	if err != nil {
		return Result{}, err
	}

	out, err := Encode(augmented, format)
	if err != nil {
		return Result{}, err
	}

	return Result{Content: out, Stats: stats, MappingEntries: len(mapping)}, nil
}

// Convert is Run without checkpoints.
func Convert(orgs, scan io.Reader, format entity.Format) ([]byte, Stats, error) {
	res, err := Run(orgs, scan, format, nil)
	if err != nil {
		return nil, Stats{}, err
	}
	return res.Content, res.Stats, nil
}

// Validate checks both tables, reporting the org mapping first.
func Validate(orgs, scan Table) error {
	if err := ValidateMapping(orgs); err != nil {
		return err
	}
	return ValidateScan(scan)
}

// Encode serializes t in the requested format; unknown formats fall back to CSV.
func Encode(t Table, format entity.Format) ([]byte, error) {
	if format == entity.FormatXLSX {
		return EncodeXLSX(t)
	}
	return EncodeCSV(t)
}

// MissingInputs names the inputs that were not provided.
func MissingInputs(orgs, scan io.Reader) []string {
	var missing []string
	if orgs == nil {
		missing = append(missing, InputOrgMapping)
	}
	if scan == nil {
		missing = append(missing, InputScanReport)
	}
	return missing
}
