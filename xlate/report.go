package xlate

import (
	"encoding/json"
	"fmt"
)

// Report is what translation and validation tell the caller. The three
// lists are never nil, so the JSON always has arrays.
type Report struct {
	Info     []string `json:"info"`
	Warning  []string `json:"warning"`
	Error    []string `json:"error"`
	FileType string   `json:"file_type"`
}

func newReport() *Report {
	return &Report{Info: []string{}, Warning: []string{}, Error: []string{}, FileType: "unknown"}
}

func (r *Report) info(format string, a ...any) { r.Info = append(r.Info, fmt.Sprintf(format, a...)) }
func (r *Report) warn(format string, a ...any) { r.Warning = append(r.Warning, fmt.Sprintf(format, a...)) }
func (r *Report) fail(format string, a ...any) { r.Error = append(r.Error, fmt.Sprintf(format, a...)) }

// OK is true if nothing went into the error list.
func (r *Report) OK() bool { return len(r.Error) == 0 }

// JSON gives the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
