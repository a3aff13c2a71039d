package export

import "fmt"

// resolveColumns returns the output column order for records. Explicit
// columns are checked against the first record, or every record when strict.
func resolveColumns(records []Record, requested []string, strict bool) ([]string, error) {
	if dups := duplicateNames(requested); len(dups) > 0 {
		return nil, &ValidationError{Columns: dups, Reason: "duplicate columns requested"}
	}

	if len(records) == 0 {
		return requested, nil
	}

	if len(requested) == 0 {
		return records[0].Keys(), nil
	}

	if missing := missingColumns(records[0], requested); len(missing) > 0 {
		return nil, &ValidationError{Columns: missing}
	}
	if strict {
		for i := 1; i < len(records); i++ {
			if missing := missingColumns(records[i], requested); len(missing) > 0 {
				return nil, &ValidationError{
					Columns: missing,
					Reason:  fmt.Sprintf("columns not found in record %d", i),
				}
			}
		}
	}

	return requested, nil
}

func missingColumns(record Record, columns []string) []string {
	var missing []string
	for _, name := range columns {
		if !record.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func duplicateNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var dups []string
	for _, name := range names {
		if _, ok := seen[name]; ok {
			dups = append(dups, name)
			continue
		}
		seen[name] = struct{}{}
	}
	return dups
}

// projectRecords aligns records to columns; absent keys become null.
func projectRecords(records []Record, columns []string) []Row {
	rows := make([]Row, len(records))
	for i, record := range records {
		row := make(Row, len(columns))
		for j, name := range columns {
			if value, ok := record.Get(name); ok {
				row[j] = value
			}
		}
		rows[i] = row
	}
	return rows
}
