package teams

import "strconv"

// Entry is the value stored per team in the result table.
type Entry struct {
	Name string `json:"name"`
}

// Table maps the stringified team number to its entry.
type Table map[string]Entry

// Build reduces records into a Table. Records with a nil TeamNumber are
// skipped; duplicates overwrite earlier entries.
func Build(records []Record) Table {
	table := make(Table, len(records))
	for _, r := range records {
		if r.TeamNumber == nil {
			continue
		}
		table[strconv.FormatInt(*r.TeamNumber, 10)] = Entry{Name: DisplayName(r)}
	}
	return table
}
