package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/graph"
	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
	"github.com/matzehuels/linkboard/pkg/session"
)

// newCommand creates the "new" command that writes an empty document.
func (c *CLI) newCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Create an empty diagram document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := errors.ValidateDocumentPath(path); err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}
			if err := lbio.ExportFile(graph.New(), path); err != nil {
				return err
			}
			printSuccess("Created %s", path)
			printNextStep("Edit it", fmt.Sprintf("%s edit %s", appName, path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// validateCommand creates the "validate" command. It fails when the
// document cannot be decoded or when anything had to be dropped.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a diagram document against the configured node types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			cfg, _ := c.loadConfig()
			mode, err := schema.ParseMode(cfg.Editor.DecodeMode)
			if err != nil {
				return err
			}
			if strict {
				mode = schema.Strict
			}

			g, report, err := lbio.ImportFile(args[0], cat, lbio.Options{Mode: mode, Logger: c.Logger})
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			printReport(report)
			if !report.OK() {
				return errors.New(errors.ErrCodeInvalidInput, "%s: %d problem(s) found", args[0], len(report.Diagnostics))
			}
			printSuccess("%s is valid", args[0])
			printStats(g.NodeCount(), g.LinkCount(), nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "reject attributes that do not fit the schema")
	return cmd
}

// setOpts holds the flags of the "set" command.
type setOpts struct {
	output  string
	appends []string
	deletes []string
}

// setCommand creates the "set" command that edits one entity's attributes.
func (c *CLI) setCommand() *cobra.Command {
	var opts setOpts

	cmd := &cobra.Command{
		Use:   "set FILE ENTITY [PATH=VALUE...]",
		Short: "Edit the attributes of a node or link",
		Long: `Edit the attributes of a node or link in place.

ENTITY is a node ID ("node-1") or a link written as "SOURCE->TARGET".
PATH uses dots for fields and brackets for array indices. VALUE is parsed
according to the schema at PATH: plain text for strings, numbers, true or
false, and JSON for structs and arrays.

Examples:
  linkboard set board.json node-1 label="Build pipeline" weight=3
  linkboard set board.json node-1 --append items items[0].field1=lint
  linkboard set board.json "node-1->node-2" priority=2`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSet(cmd.Context(), args[0], args[1], args[2:], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to this file instead of FILE")
	cmd.Flags().StringArrayVar(&opts.appends, "append", nil, "append a default element to the array at PATH (repeatable)")
	cmd.Flags().StringArrayVar(&opts.deletes, "delete", nil, "unset the field or remove the element at PATH (repeatable)")
	return cmd
}

func (c *CLI) runSet(ctx context.Context, file, entity string, assignments []string, opts setOpts) error {
	if len(assignments) == 0 && len(opts.appends) == 0 && len(opts.deletes) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "nothing to change")
	}
	ref, err := parseRef(entity)
	if err != nil {
		return err
	}

	s, report, err := c.openDocument(ctx, file)
	if err != nil {
		return err
	}
	defer s.Close()
	printReport(report)

	if err := applyEdits(ctx, s, ref, assignments, opts); err != nil {
		return err
	}

	data, err := s.Export(ctx)
	if err != nil {
		return err
	}
	out := opts.output
	if out == "" {
		out = file
	}
	if err := lbio.WriteFile(out, data); err != nil {
		return err
	}

	_, v, _ := s.Value(ref)
	printSuccess("Updated %s", ref)
	if raw, err := json.Marshal(schema.Flatten(v)); err == nil {
		printDetail("%s", raw)
	}
	printFile(out)
	return nil
}

// applyEdits runs appends, then assignments, then deletes, so that a new
// array element can be filled in by the same invocation.
func applyEdits(ctx context.Context, s *session.Session, ref selection.Ref, assignments []string, opts setOpts) error {
	for _, p := range opts.appends {
		path, err := schema.ParsePath(p)
		if err != nil {
			return err
		}
		if _, err := s.AppendItem(ctx, ref, path); err != nil {
			return err
		}
	}
	for _, a := range assignments {
		path, raw, err := parseAssignment(a)
		if err != nil {
			return err
		}
		sch, cur, err := s.Value(ref)
		if err != nil {
			return err
		}
		if sch == nil {
			return errors.New(errors.ErrCodeInvalidPath, "%s has no attributes", ref)
		}
		_, target, err := schema.Lookup(sch, cur, path)
		if err != nil {
			return err
		}
		leaf, err := parseLeaf(target, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if _, err := s.EditPath(ctx, ref, path, leaf); err != nil {
			return err
		}
	}
	for _, p := range opts.deletes {
		path, err := schema.ParsePath(p)
		if err != nil {
			return err
		}
		if _, err := s.RemoveItem(ctx, ref, path); err != nil {
			return err
		}
	}
	return nil
}

// parseRef reads "node-1" or "node-1->node-2".
func parseRef(s string) (selection.Ref, error) {
	if src, tgt, ok := strings.Cut(s, "->"); ok {
		src, tgt = strings.TrimSpace(src), strings.TrimSpace(tgt)
		if src == "" || tgt == "" {
			return selection.Ref{}, errors.New(errors.ErrCodeInvalidInput, "invalid link %q (want SOURCE->TARGET)", s)
		}
		return selection.Link(src, tgt), nil
	}
	if s == "" {
		return selection.Ref{}, errors.New(errors.ErrCodeInvalidInput, "empty entity")
	}
	return selection.Node(s), nil
}

// parseAssignment splits "PATH=VALUE" at the first '='.
func parseAssignment(s string) (schema.Path, string, error) {
	p, raw, ok := strings.Cut(s, "=")
	if !ok || p == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "invalid assignment %q (want PATH=VALUE)", s)
	}
	path, err := schema.ParsePath(p)
	if err != nil {
		return nil, "", err
	}
	return path, raw, nil
}

// parseLeaf converts command-line text to a value of schema s.
func parseLeaf(s *schema.Schema, raw string) (schema.Value, error) {
	switch s.Kind() {
	case schema.KindString:
		return schema.Str(raw), nil
	case schema.KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return schema.Value{}, errors.New(errors.ErrCodeInvalidValue, "%q is not a number", raw)
		}
		return schema.Num(f), nil
	case schema.KindBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return schema.Value{}, errors.New(errors.ErrCodeInvalidValue, "%q is not a boolean", raw)
		}
		return schema.Bool(b), nil
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return schema.Value{}, errors.Wrap(errors.ErrCodeInvalidValue, err, "%s value must be JSON", s.Kind())
	}
	v, _, err := schema.Unflatten(s, data, schema.Strict)
	return v, err
}
