package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/casmemo/internal/engine"
	"github.com/roach88/casmemo/internal/harness"
	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/reduce"
	"github.com/roach88/casmemo/internal/store"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Reducer string
}

// DemoResult reports each stage of the demonstration.
type DemoResult struct {
	Reducer             string    `json:"reducer"`
	Function            ir.DataID `json:"function"`
	Argument            ir.DataID `json:"argument"`
	Expr                ir.ExprID `json:"expr"`
	InitiallyResolved   bool      `json:"initially_resolved"`
	IndependentIDsMatch bool      `json:"independent_ids_match"`
	Data                ir.DataID `json:"data"`
	Content             string    `json:"content"`
	SecondCallCached    bool      `json:"second_call_cached"`
}

// String renders the text layout.
func (r DemoResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reducer:             %s\n", r.Reducer)
	fmt.Fprintf(&b, "function  \"123\":     %s\n", r.Function)
	fmt.Fprintf(&b, "argument  \"x\":       %s\n", r.Argument)
	fmt.Fprintf(&b, "expr      (f x):     %s\n", r.Expr)
	fmt.Fprintf(&b, "initially resolved:  %t\n", r.InitiallyResolved)
	fmt.Fprintf(&b, "independent ids:     %s\n", matchWord(r.IndependentIDsMatch))
	fmt.Fprintf(&b, "result:              %s\n", r.Data)
	fmt.Fprintf(&b, "content:             %s\n", r.Content)
	fmt.Fprintf(&b, "second call cached:  %t", r.SecondCallCached)
	return b.String()
}

func matchWord(ok bool) string {
	if ok {
		return "match"
	}
	return "MISMATCH"
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Store and evaluate (f x) step by step",
		Long: `Walk through the basic lifecycle of an expression.

Stores the function blob "123" and the argument blob "x", builds the
expression (f x), shows that it starts unresolved, checks that a second
independent store derives the same identifiers, then computes it twice.

Example:
  casmemo demo
  casmemo demo --reducer concat --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Reducer, "reducer", reduce.NamePlaceholder,
		fmt.Sprintf("reducer (%s)", strings.Join(reduce.Names(), "|")))

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	runID := newRunID()
	formatter := newFormatter(opts.RootOptions, cmd, runID)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), runID)

	reducer, err := reduce.Lookup(opts.Reducer)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid reducer", err)
	}

	ctx := commandContext(cmd)

	st := store.New()
	result := DemoResult{Reducer: opts.Reducer}
	result.Function = st.StoreData([]byte("123"))
	result.Argument = st.StoreData([]byte("x"))
	result.Expr, err = st.StoreExpr(ir.Apply(result.Function, result.Argument))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to store expression", err)
	}
	formatter.VerboseLog("stored (f x) as %s", result.Expr.Short())

	eng := engine.New(st, reducer, engine.WithLogger(logger))
	_, result.InitiallyResolved = eng.Resolved(result.Expr)

	other := store.New()
	f2 := other.StoreData([]byte("123"))
	x2 := other.StoreData([]byte("x"))
	fx2, err := other.StoreExpr(ir.Apply(f2, x2))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to store expression", err)
	}
	result.IndependentIDsMatch = f2 == result.Function && x2 == result.Argument && fx2 == result.Expr

	result.Data, err = eng.ComputeData(ctx, result.Expr)
	if err != nil {
		_ = formatter.Error(ErrCodeEvalFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}
	if data, ok := st.DataIDToData(result.Data); ok {
		result.Content = harness.DisplayContent(data)
	}

	_, result.SecondCallCached = eng.Resolved(result.Expr)
	again, err := eng.ComputeData(ctx, result.Expr)
	if err != nil || again != result.Data {
		return WrapExitError(ExitFailure, "second evaluation disagreed", err)
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.IndependentIDsMatch || result.InitiallyResolved {
		return NewExitError(ExitFailure, "demo invariants violated")
	}
	return nil
}
