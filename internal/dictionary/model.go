package dictionary

// Entry is one dictionary row keyed by column name, as returned by the store.
type Entry map[string]any

// Head returns the value of the given lookup column as a string.
func (e Entry) Head(column string) string {
	switch v := e[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Column describes one column of a table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
}

// SchemaReport is the result of describing a table.
type SchemaReport struct {
	Success     bool     `json:"success"`
	Table       string   `json:"table"`
	Columns     []Column `json:"columns"`
	ColumnNames []string `json:"columnNames"`
	SampleRows  []Entry  `json:"sampleRows"`
	Error       string   `json:"error,omitempty"`
}

// FailedSchemaReport returns a report carrying only the error message.
func FailedSchemaReport(table string, err error) SchemaReport {
	return SchemaReport{
		Success:     false,
		Table:       table,
		Columns:     []Column{},
		ColumnNames: []string{},
		SampleRows:  []Entry{},
		Error:       err.Error(),
	}
}
