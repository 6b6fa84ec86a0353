package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/casmemo/internal/ir"
)

// HashEntry is the identifier of one input.
type HashEntry struct {
	File string    `json:"file"`
	Data ir.DataID `json:"data"`
	Leaf ir.ExprID `json:"leaf"`
}

// HashResult lists every input in argument order.
type HashResult struct {
	Entries []HashEntry `json:"entries"`
}

// String renders one "<data id>  <file>" line per input.
func (r HashResult) String() string {
	lines := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		lines[i] = fmt.Sprintf("%s  %s", e.Data, e.File)
	}
	return strings.Join(lines, "\n")
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [file...]",
		Short: "Print the blob id of files",
		Long: `Print the DataID each file would be stored under.

Reads standard input when no files are given. JSON output also includes
the id of the leaf expression over each blob.

Examples:
  casmemo hash a.txt b.txt
  echo -n x | casmemo hash`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runHash(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd, newRunID())

	result := HashResult{}
	if len(files) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		result.Entries = append(result.Entries, hashEntry("-", data))
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read file", err)
		}
		result.Entries = append(result.Entries, hashEntry(file, data))
	}

	return formatter.Success(result)
}

func hashEntry(file string, data []byte) HashEntry {
	d := ir.DeriveDataID(data)
	return HashEntry{File: file, Data: d, Leaf: ir.DeriveLeafID(d)}
}
