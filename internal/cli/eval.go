package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/casmemo/internal/engine"
	"github.com/roach88/casmemo/internal/harness"
	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/program"
	"github.com/roach88/casmemo/internal/reduce"
	"github.com/roach88/casmemo/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Reducer string
	Verify  bool // re-reduce each root after computing it
	Metrics bool // print Prometheus metrics to stderr
}

// EvalItem is the outcome for one requested name.
type EvalItem struct {
	Name       string     `json:"name"`
	Expr       ir.ExprID  `json:"expr"`
	Data       *ir.DataID `json:"data,omitempty"`
	Content    string     `json:"content,omitempty"`
	Error      string     `json:"error,omitempty"` // engine error code
	Message    string     `json:"message,omitempty"`
	Unresolved string     `json:"unresolved,omitempty"`
}

// EvalResult holds every evaluated name in request order.
type EvalResult struct {
	Items  []EvalItem `json:"items"`
	Failed int        `json:"failed"`
}

// String renders one line per item.
func (r EvalResult) String() string {
	var b strings.Builder
	for i, item := range r.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		if item.Error != "" {
			fmt.Fprintf(&b, "✗ %s %s %s", item.Name, item.Expr.Short(), item.Error)
			if item.Unresolved != "" {
				fmt.Fprintf(&b, " (missing %s)", item.Unresolved)
			}
			continue
		}
		fmt.Fprintf(&b, "✓ %s %s -> %s %q", item.Name, item.Expr.Short(), item.Data.Short(), item.Content)
	}
	return b.String()
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <program.cue> [name...]",
		Short: "Evaluate expressions from a program file",
		Long: `Load a CUE program, install it into a fresh store and evaluate names.

Without names, the program's eval list is used. Each result is printed with
its expression id, result id and content; content that is not printable text
is shown as hex.

Exit codes:
  0 - Every evaluation succeeded
  1 - One or more evaluations failed
  2 - Command error (missing file, invalid program, unknown name)

Examples:
  casmemo eval program.cue
  casmemo eval program.cue fx ffx --reducer concat
  casmemo eval program.cue --verify --metrics`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Reducer, "reducer", reduce.NamePlaceholder,
		fmt.Sprintf("reducer (%s)", strings.Join(reduce.Names(), "|")))
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "re-reduce each root and check it against the cache")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print evaluator metrics to stderr")

	return cmd
}

func runEval(opts *EvalOptions, path string, names []string, cmd *cobra.Command) error {
	runID := newRunID()
	formatter := newFormatter(opts.RootOptions, cmd, runID)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), runID)

	reducer, err := reduce.Lookup(opts.Reducer)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid reducer", err)
	}

	prog, err := loadProgram(path, formatter)
	if err != nil {
		return err
	}

	st := store.New()
	installed, err := prog.Install(st)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidProgram, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid program", err)
	}
	formatter.VerboseLog("installed %d names from %s", len(installed.Exprs), path)

	targets := prog.Targets(names)
	if len(targets) == 0 {
		_ = formatter.Error(ErrCodeUnknownName, "nothing to evaluate: pass names or set eval in the program", nil)
		return NewExitError(ExitCommandError, "nothing to evaluate")
	}
	for _, name := range targets {
		if _, err := installed.Lookup(name); err != nil {
			_ = formatter.Error(ErrCodeUnknownName, err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown name", err)
		}
	}

	reg := prometheus.NewRegistry()
	eng := engine.New(st, reducer,
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)

	ctx := commandContext(cmd)

	result := EvalResult{Items: make([]EvalItem, 0, len(targets))}
	reverse := reverseNames(installed)
	for _, name := range targets {
		item := evalOne(ctx, eng, st, installed, name, opts.Verify, reverse)
		if item.Error != "" {
			result.Failed++
		}
		result.Items = append(result.Items, item)
	}

	if opts.Metrics {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	if result.Failed > 0 {
		msg := fmt.Sprintf("%d evaluation(s) failed", result.Failed)
		if err := formatter.Failure(result, ErrCodeEvalFailed, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result)
}

func evalOne(ctx context.Context, eng *engine.Engine, st *store.Store, in *program.Installed, name string, verify bool, reverse map[ir.ExprID]string) EvalItem {
	id, _ := in.Lookup(name)
	item := EvalItem{Name: name, Expr: id}

	d, err := eng.ComputeData(ctx, id)
	if err == nil && verify {
		d, err = eng.Verify(ctx, id)
	}
	if err != nil {
		item.Message = err.Error()
		if code, ok := engine.CodeOf(err); ok {
			item.Error = string(code)
		} else {
			item.Error = ErrCodeGeneric
		}
		if missing, ok := engine.UnresolvedID(err); ok {
			if n, named := reverse[missing]; named {
				item.Unresolved = n
			} else {
				item.Unresolved = program.RefPrefix + missing.String()
			}
		}
		return item
	}

	item.Data = &d
	if data, ok := st.DataIDToData(d); ok {
		item.Content = harness.DisplayContent(data)
	}
	return item
}

func reverseNames(in *program.Installed) map[ir.ExprID]string {
	out := make(map[ir.ExprID]string, len(in.Exprs))
	for _, name := range in.Names() {
		if _, taken := out[in.Exprs[name]]; !taken {
			out[in.Exprs[name]] = name
		}
	}
	return out
}

// loadProgram loads and validates a program, reporting failures through
// the formatter.
func loadProgram(path string, formatter *OutputFormatter) (*program.Program, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		msg := fmt.Sprintf("program not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}

	prog, err := program.Load(path)
	if err == nil {
		err = prog.Validate()
	}
	if err != nil {
		var details interface{}
		var le *program.LoadError
		if errors.As(err, &le) && le.Pos.IsValid() {
			details = map[string]interface{}{
				"file":   le.Pos.Filename(),
				"line":   le.Pos.Line(),
				"column": le.Pos.Column(),
			}
		}
		_ = formatter.Error(ErrCodeInvalidProgram, err.Error(), details)
		return nil, WrapExitError(ExitCommandError, "invalid program", err)
	}
	return prog, nil
}

// writeMetrics prints every gathered family in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
