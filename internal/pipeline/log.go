package pipeline

// Entry is one line of a cleaning log.
type Entry struct {
	Column      string `json:"column"`
	Description string `json:"description"`
}

// Log is an insertion-ordered mapping from column name to the action taken.
type Log []Entry

// Set records desc for column, replacing an earlier entry for the same column
// in place.
func (l *Log) Set(column, desc string) {
	for i := range *l {
		if (*l)[i].Column == column {
			(*l)[i].Description = desc
			return
		}
	}
	*l = append(*l, Entry{Column: column, Description: desc})
}

// Get returns the description recorded for column.
func (l Log) Get(column string) (string, bool) {
	for _, e := range l {
		if e.Column == column {
			return e.Description, true
		}
	}
	return "", false
}
