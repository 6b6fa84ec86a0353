package harness

import (
	"encoding/hex"
	"unicode"
	"unicode/utf8"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Target string `json:"target"`
	Data   string `json:"data,omitempty"`

	// Content is the result rendered by DisplayContent.
	Content string `json:"content,omitempty"`

	// Cached is whether target was resolved before the step ran.
	// Unset for remove and relate.
	Cached *bool `json:"cached,omitempty"`

	// Error is the engine error code, if the step failed.
	Error string `json:"error,omitempty"`

	// Unresolved names the missing expression of an UNRESOLVED_EXPRESSION
	// error; ids with no name in the scenario appear as "@<hex>".
	Unresolved string `json:"unresolved,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}

// DisplayContent renders blob bytes for traces and terminal output:
// printable UTF-8 as-is, anything else as "0x" followed by hex.
func DisplayContent(data []byte) string {
	if !utf8.Valid(data) {
		return "0x" + hex.EncodeToString(data)
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && r != '\n' && r != '\t' {
			return "0x" + hex.EncodeToString(data)
		}
	}
	return string(data)
}
