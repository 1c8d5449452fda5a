package join

import (
	"strings"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

// Columns read from the org mapping file.
const (
	ColumnDistinctID = "$distinct_id"
	ColumnName       = "$name"
)

// ValidateMapping checks that the org mapping table has its required columns.
func ValidateMapping(t Table) error {
	if missing := t.Missing(ColumnDistinctID, ColumnName); len(missing) > 0 {
		return &SchemaError{Input: InputOrgMapping, Missing: missing}
	}
	return nil
}

// BuildMapping turns the org mapping table into a lookup from org id to name.
//
// Rows with a null id or a null name are skipped. Both values are trimmed, and
// a later row overwrites an earlier one with the same id.
func BuildMapping(t Table) (entity.MappingTable, error) {
	if err := ValidateMapping(t); err != nil {
		return nil, err
	}

	idCol := t.Column(ColumnDistinctID)
	nameCol := t.Column(ColumnName)

	mapping := make(entity.MappingTable, len(t.Rows))
	for _, row := range t.Rows {
		id, name := row[idCol], row[nameCol]
		if IsNull(id) || IsNull(name) {
			continue
		}
		mapping[strings.TrimSpace(id)] = strings.TrimSpace(name)
	}

	return mapping, nil
}
