package importer

import (
	"strings"

	"github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/sanitize"
)

// Table is the rectangular content an external spreadsheet reader supplies:
// one header row followed by string cells. File-format parsing happens
// upstream; this package only sees the already-extracted grid.
type Table struct {
	Headers []string   `json:"headers" validate:"required,min=1"`
	Rows    [][]string `json:"rows"`
}

// ManualResolver lets a caller assign a column when no alias matched. It
// receives the unmatched field and the still-available normalized headers and
// returns the chosen header, or "" to leave the field unmapped.
type ManualResolver func(field string, available []string) string

// ColumnMap is the outcome of header mapping: semantic field -> column index,
// plus the normalized headers and the columns left over for activity mapping.
type ColumnMap struct {
	Fields    map[string]int
	Headers   []string
	Remaining []int
}

// MapColumns assigns each semantic field to at most one column using three
// passes per field: exact match against the field name or an alias, substring
// containment, then the manual resolver. A column consumed by an earlier
// field is never reused. Mapping succeeds when at least the identifier field
// was assigned.
func MapColumns(rawHeaders []string, resolver ManualResolver) (*ColumnMap, error) {
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = sanitize.CleanText(h)
	}

	cm := &ColumnMap{Fields: make(map[string]int), Headers: headers}
	used := make(map[int]bool)

	for _, field := range fieldOrder {
		aliases := ColumnAliases[field]
		idx := matchExact(headers, used, field, aliases)
		if idx < 0 {
			idx = matchSubstring(headers, used, aliases)
		}
		if idx < 0 && resolver != nil {
			if chosen := resolver(field, availableHeaders(headers, used)); chosen != "" {
				idx = indexOf(headers, used, chosen)
			}
		}
		if idx >= 0 {
			cm.Fields[field] = idx
			used[idx] = true
		}
	}

	if _, ok := cm.Fields[FieldIdentifier]; !ok {
		return nil, errors.Clone(errors.ErrIdentifierColumn, "identifier column could not be mapped")
	}

	for i := range headers {
		if !used[i] {
			cm.Remaining = append(cm.Remaining, i)
		}
	}
	return cm, nil
}

// Column returns the mapped index for a field, or -1 when unmapped.
func (cm *ColumnMap) Column(field string) int {
	if idx, ok := cm.Fields[field]; ok {
		return idx
	}
	return -1
}

// RemainingHeaders names the columns not consumed by field mapping; these are
// the candidate activity columns for the evaluation-mapping step.
func (cm *ColumnMap) RemainingHeaders() []string {
	out := make([]string, 0, len(cm.Remaining))
	for _, idx := range cm.Remaining {
		out = append(out, cm.Headers[idx])
	}
	return out
}

func matchExact(headers []string, used map[int]bool, field string, aliases []string) int {
	target := sanitize.CleanText(field)
	for i, h := range headers {
		if used[i] {
			continue
		}
		if h == target {
			return i
		}
		for _, alias := range aliases {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

func matchSubstring(headers []string, used map[int]bool, aliases []string) int {
	for i, h := range headers {
		if used[i] || h == "" {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(h, alias) || strings.Contains(alias, h) {
				return i
			}
		}
	}
	return -1
}

func availableHeaders(headers []string, used map[int]bool) []string {
	out := make([]string, 0, len(headers))
	for i, h := range headers {
		if !used[i] {
			out = append(out, h)
		}
	}
	return out
}

func indexOf(headers []string, used map[int]bool, header string) int {
	for i, h := range headers {
		if !used[i] && h == header {
			return i
		}
	}
	return -1
}
