package table

import (
	"strings"
)

// Table is a composed, ordered set of rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Composed is a table together with the requested columns it had to drop.
type Composed struct {
	Table
	Missing []string
}

// Compose lays out rows using the requested columns. Names are matched
// case-insensitively and may be short aliases or a preset name; names
// absent for this shape are reported in Missing in request order and left
// out. An empty request selects every column.
func Compose(rows []Enriched, shape Shape, requested []string) *Composed {
	all := columns(shape)
	byName := make(map[string]column, len(all))
	for _, c := range all {
		byName[c.name] = c
	}

	var selected []column
	var missing []string
	if len(requested) == 0 {
		selected = all
	} else {
		requested = ExpandPresets(requested)
		seen := make(map[string]bool, len(requested))
		for _, name := range requested {
			key := strings.ToUpper(strings.TrimSpace(name))
			if canonical, ok := aliases[key]; ok {
				key = canonical
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if c, ok := byName[key]; ok {
				selected = append(selected, c)
			} else {
				missing = append(missing, name)
			}
		}
	}

	out := &Composed{Missing: missing}
	out.Columns = make([]string, len(selected))
	for i, c := range selected {
		out.Columns[i] = c.name
	}

	out.Rows = make([][]string, len(rows))
	for i := range rows {
		row := make([]string, len(selected))
		for j, c := range selected {
			row[j] = c.value(&rows[i])
		}
		out.Rows[i] = row
	}
	return out
}
