package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/casmemo/internal/store"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool        `json:"valid"`
	Blobs int         `json:"blobs"`
	Exprs int         `json:"exprs"`
	Eval  []string    `json:"eval,omitempty"`
	Store store.Stats `json:"store"`
}

// String renders the text layout.
func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ program valid: %d blobs, %d exprs, %d to evaluate (%d composites stored)",
		r.Blobs, r.Exprs, len(r.Eval), r.Store.Expressions)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program.cue>",
		Short: "Validate a program without evaluating it",
		Long: `Validate a CUE program and install it into a throwaway store.

Checks syntax, the program schema, name uniqueness, references and cycles,
then stores every blob and expression. Nothing is evaluated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd, newRunID())

	prog, err := loadProgram(path, formatter)
	if err != nil {
		return err
	}

	st := store.New()
	if _, err := prog.Install(st); err != nil {
		_ = formatter.Error(ErrCodeInvalidProgram, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid program", err)
	}

	return formatter.Success(ValidationResult{
		Valid: true,
		Blobs: len(prog.Blobs),
		Exprs: len(prog.Exprs),
		Eval:  prog.Eval,
		Store: st.Stats(),
	})
}
