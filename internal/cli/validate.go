package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/compiler"
	"github.com/roach88/graft/internal/schema"
)

// KindSummary describes one compiled entity kind.
type KindSummary struct {
	Name        string `json:"name"`
	Parent      string `json:"parent,omitempty"`
	IDAttribute string `json:"id_attribute"`
	Properties  int    `json:"properties"`
}

// ValidationResult holds validation output for JSON mode.
type ValidationResult struct {
	Valid bool          `json:"valid"`
	Kinds []KindSummary `json:"kinds,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Compile and validate entity schema declarations",
		Long: `Compile a directory of CUE entity declarations into a schema.

Checks property declarations, identifier attributes, relationship targets,
and inheritance chains without touching any store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	files, err := compiler.FindCUEFiles(schemaDir)
	if err == nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), schemaDir)
	}

	sch, err := compiler.LoadDir(schemaDir)
	if err != nil {
		_ = formatter.Error("SCHEMA_ERROR", err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("schema validation failed: %v", err))
	}

	return outputValidateSuccess(formatter, sch)
}

func outputValidateSuccess(formatter *OutputFormatter, sch *schema.Schema) error {
	kinds := summarizeKinds(sch)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Kinds: kinds})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d kind(s))\n", len(kinds))
	for _, k := range kinds {
		if k.Parent != "" {
			fmt.Fprintf(formatter.Writer, "  %s (parent %s): id=%s, %d propert(y/ies)\n", k.Name, k.Parent, k.IDAttribute, k.Properties)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: id=%s, %d propert(y/ies)\n", k.Name, k.IDAttribute, k.Properties)
	}
	return nil
}

func summarizeKinds(sch *schema.Schema) []KindSummary {
	names := sch.Kinds()
	out := make([]KindSummary, 0, len(names))
	for _, name := range names {
		k := sch.Entity(name)
		out = append(out, KindSummary{
			Name:        k.Name,
			Parent:      k.Parent,
			IDAttribute: k.IDAttribute,
			Properties:  len(sch.AllPropertyNames(name)),
		})
	}
	return out
}
