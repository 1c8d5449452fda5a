package join

import (
	"slices"
	"strings"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

// Columns of the scan report.
const (
	ColumnOrgID   = "org_id"
	ColumnOrgName = "OrgName"
)

// orgNamePosition is where OrgName is inserted (the second column).
const orgNamePosition = 1

// Stats summarizes one augmentation pass.
type Stats struct {
	Rows          int
	Resolved      int
	Unresolved    int
	UnresolvedIDs []string // distinct, sorted; null ids are not listed
}

// ValidateScan checks that the scan table has org_id and no OrgName yet.
func ValidateScan(t Table) error {
	if missing := t.Missing(ColumnOrgID); len(missing) > 0 {
		return &SchemaError{Input: InputScanReport, Missing: missing}
	}
	if t.Column(ColumnOrgName) >= 0 {
		return &SchemaError{Input: InputScanReport, Conflict: ColumnOrgName}
	}
	return nil
}

// Augment returns a copy of scan with an OrgName column at index 1.
//
// Each row's org_id is trimmed and looked up in mapping; rows without a match,
// including rows whose org_id is null, get entity.UnknownOrgName. Row order and
// every other cell are kept as they are. scan is not modified.
func Augment(scan Table, mapping entity.MappingTable) (Table, Stats, error) {
	if err := ValidateScan(scan); err != nil {
		return Table{}, Stats{}, err
	}

	idCol := scan.Column(ColumnOrgID)
	out := Table{
		Header: insertAt(scan.Header, orgNamePosition, ColumnOrgName),
		Rows:   make([][]string, 0, len(scan.Rows)),
	}

	stats := Stats{Rows: len(scan.Rows)}
	unresolved := make(map[string]struct{})

	for _, row := range scan.Rows {
		name, matched := entity.UnknownOrgName, false
		if raw := row[idCol]; !IsNull(raw) {
			key := strings.TrimSpace(raw)
			if name, matched = mapping.Resolve(key); !matched {
				unresolved[key] = struct{}{}
			}
		}

		if matched {
			stats.Resolved++
		} else {
			stats.Unresolved++
		}

		out.Rows = append(out.Rows, insertAt(row, orgNamePosition, name))
	}

	stats.UnresolvedIDs = make([]string, 0, len(unresolved))
	for id := range unresolved {
		stats.UnresolvedIDs = append(stats.UnresolvedIDs, id)
	}
	slices.Sort(stats.UnresolvedIDs)

	return out, stats, nil
}

// insertAt returns a new slice with v placed at index i (or appended when the
// slice is shorter).
func insertAt(s []string, i int, v string) []string {
	if i > len(s) {
		i = len(s)
	}
	out := make([]string, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	out = append(out, s[i:]...)
	return out
}
