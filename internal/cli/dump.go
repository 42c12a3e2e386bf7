package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/compiler"
	"github.com/roach88/graft/internal/harness"
	"github.com/roach88/graft/internal/store"
)

// EntityDump describes one entity for JSON output.
type EntityDump struct {
	Kind       string              `json:"kind"`
	Identifier string              `json:"identifier"`
	Attributes map[string]string   `json:"attributes,omitempty"`
	Links      map[string][]string `json:"links,omitempty"`
}

// DumpResult holds dump output for JSON mode.
type DumpResult struct {
	Database string       `json:"database"`
	Entities []EntityDump `json:"entities"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		schemaDir string
		kind      string
	)

	cmd := &cobra.Command{
		Use:   "dump <store.db>",
		Short: "Dump the entity graph of a store",
		Long: `Print every entity in a store with its attributes and relationships.

The schema directory is required because relationship shapes and
attribute types are declared there, not in the database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, args[0], schemaDir, kind, cmd)
		},
	}

	cmd.Flags().StringVar(&schemaDir, "schema", "", "path to the CUE schema directory (required)")
	cmd.Flags().StringVar(&kind, "kind", "", "restrict JSON output to one entity kind")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runDump(opts *RootOptions, dbPath, schemaDir, kind string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error("STORE_ERROR", fmt.Sprintf("database not found: %s", dbPath), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))
	}

	sch, err := compiler.LoadDir(schemaDir)
	if err != nil {
		_ = formatter.Error("SCHEMA_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading schema", err)
	}

	st, err := store.Open(dbPath, sch)
	if err != nil {
		_ = formatter.Error("STORE_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if formatter.Format == "json" {
		result, err := dumpJSON(ctx, st, dbPath, kind)
		if err != nil {
			_ = formatter.Error("STORE_ERROR", err.Error(), nil)
			return WrapExitError(ExitCommandError, "dumping store", err)
		}
		return formatter.Success(result)
	}

	text, err := harness.DumpGraph(ctx, st)
	if err != nil {
		_ = formatter.Error("STORE_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "dumping store", err)
	}
	fmt.Fprint(formatter.Writer, text)
	return nil
}

func dumpJSON(ctx context.Context, st *store.Store, dbPath, kind string) (*DumpResult, error) {
	refs, err := st.ListEntities(ctx, kind)
	if err != nil {
		return nil, err
	}

	result := &DumpResult{Database: dbPath, Entities: []EntityDump{}}
	for _, ref := range refs {
		id, err := st.Identifier(ctx, ref)
		if err != nil {
			return nil, err
		}
		attrs, err := st.Attributes(ctx, ref)
		if err != nil {
			return nil, err
		}
		d := EntityDump{Kind: ref.Kind, Identifier: id}
		if len(attrs) > 0 {
			d.Attributes = map[string]string{}
			for name, raw := range attrs {
				d.Attributes[name] = attr.Text(raw.Attr)
			}
		}
		names, err := st.Links(ctx, ref)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			members, _, err := st.RelationshipMembers(ctx, ref, name)
			if err != nil {
				return nil, err
			}
			if d.Links == nil {
				d.Links = map[string][]string{}
			}
			targets := make([]string, 0, len(members))
			for _, m := range members {
				targets = append(targets, m.String())
			}
			d.Links[name] = targets
		}
		result.Entities = append(result.Entities, d)
	}
	return result, nil
}
