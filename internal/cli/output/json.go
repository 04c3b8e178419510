package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter outputs data in JSON format.
type JSONFormatter struct{}

// WriteParseSummary writes the parse outcome as JSON.
func (f *JSONFormatter) WriteParseSummary(w io.Writer, summary ParseSummary) error {
	return writeJSON(w, summary)
}

// WriteValidation writes a structure-check report as JSON.
func (f *JSONFormatter) WriteValidation(w io.Writer, summary ValidationSummary) error {
	return writeJSON(w, summary)
}

// WriteResolve writes the resolved backup file path as JSON.
func (f *JSONFormatter) WriteResolve(w io.Writer, summary ResolveSummary) error {
	return writeJSON(w, summary)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
