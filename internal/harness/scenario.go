package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/casmemo/internal/program"
)

// Scenario defines one harness run: a program, steps against it and
// assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Reducer selects the reducer by name. Default: concat.
	// Besides the built-in reducers the harness offers "sequence"
	// (non-deterministic) and "failing" (always errors).
	Reducer string `yaml:"reducer,omitempty"`

	// Normalize, Blobs and Exprs define the program installed before the
	// first step.
	Normalize *bool               `yaml:"normalize,omitempty"`
	Blobs     map[string]string   `yaml:"blobs,omitempty"`
	Exprs     map[string][]string `yaml:"exprs,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final store state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation against the store or evaluator.
type Step struct {
	// Op is one of eval, verify, lookup, remove, relate.
	Op string `yaml:"op"`

	// Target names the expression (or blob, for remove).
	Target string `yaml:"target"`

	// Data names the blob bound by relate.
	Data string `yaml:"data,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies expected step behavior. Unset fields are not checked.
type Expect struct {
	// Content is the expected result bytes, as text.
	Content *string `yaml:"content,omitempty"`

	// Cached is whether target was resolved before the step ran.
	Cached *bool `yaml:"cached,omitempty"`

	// Unresolved is the name of the expression reported missing.
	Unresolved string `yaml:"unresolved,omitempty"`

	// Error is the expected engine error code, e.g. EQUIVALENCE_CONFLICT.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": Check op appears exactly Count times
	// - "trace_order": Check Targets first appear in order
	// - "reductions": Check the reducer was called exactly Count times
	// - "final_state": Check store statistics
	Type string `yaml:"type"`

	// Op is the step operation (used by trace_count).
	Op string `yaml:"op,omitempty"`

	// Count is the expected number (used by trace_count, reductions).
	Count int `yaml:"count,omitempty"`

	// Targets is the expected order (used by trace_order).
	Targets []string `yaml:"targets,omitempty"`

	// Expect maps statistic names (blobs, expressions, equivalences,
	// classes) to values (used by final_state). Subset match.
	Expect map[string]int `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpEval   = "eval"
	OpVerify = "verify"
	OpLookup = "lookup"
	OpRemove = "remove"
	OpRelate = "relate"
)

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertReductions = "reductions"
	AssertFinalState = "final_state"
)

// Program returns the scenario's blobs and exprs as a program.
func (s *Scenario) Program() *program.Program {
	return &program.Program{
		Normalize: s.Normalize,
		Blobs:     s.Blobs,
		Exprs:     s.Exprs,
	}
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and the program.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	if _, err := reducerFor(s.Reducer); err != nil {
		return err
	}
	if err := s.Program().Validate(); err != nil {
		return err
	}

	for i, step := range s.Steps {
		if err := validateStep(s, i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s *Scenario, index int, step Step) error {
	if step.Target == "" {
		return fmt.Errorf("steps[%d]: target is required", index)
	}

	_, isBlob := s.Blobs[step.Target]
	_, isExpr := s.Exprs[step.Target]

	switch step.Op {
	case OpEval, OpVerify, OpLookup:
		if !isBlob && !isExpr {
			return fmt.Errorf("steps[%d]: unknown target %q", index, step.Target)
		}
	case OpRemove:
		if !isBlob {
			return fmt.Errorf("steps[%d]: remove target %q is not a blob", index, step.Target)
		}
	case OpRelate:
		if !isBlob && !isExpr {
			return fmt.Errorf("steps[%d]: unknown target %q", index, step.Target)
		}
		if _, ok := s.Blobs[step.Data]; !ok {
			return fmt.Errorf("steps[%d]: relate data %q is not a blob", index, step.Data)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Targets) == 0 {
			return fmt.Errorf("assertions[%d]: targets list is required for trace_order", index)
		}
	case AssertReductions:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for reductions", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key := range a.Expect {
			if !isStatName(key) {
				return fmt.Errorf("assertions[%d]: unknown statistic %q", index, key)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
