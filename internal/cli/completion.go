package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/pipeline"
	"github.com/matzehuels/linkboard/pkg/schema"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for linkboard.

Besides subcommands and flags, the script completes:
  FILE arguments     JSON documents in the current directory
  render --format    svg, png, pdf and dot, also after a comma
  render --engine    native and graphviz
  set ENTITY         node IDs and SOURCE->TARGET links read from FILE
  set PATH=VALUE     attribute paths of the chosen node or link

Load completions for the current shell:
  $ source <(linkboard completion bash)
  $ linkboard completion fish | source
  PS> linkboard completion powershell | Out-String | Invoke-Expression

Install them permanently:
  $ linkboard completion bash > /etc/bash_completion.d/linkboard
  $ linkboard completion zsh > "${fpath[1]}/_linkboard"
  $ linkboard completion fish > ~/.config/fish/completions/linkboard.fish

Zsh needs compinit enabled ("autoload -U compinit; compinit" in ~/.zshrc).`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions attaches dynamic completions to the document commands.
func (c *CLI) registerCompletions(root *cobra.Command) {
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "new", "validate", "edit":
			sub.ValidArgsFunction = completeDocument
		case "render":
			sub.ValidArgsFunction = completeDocument
			_ = sub.RegisterFlagCompletionFunc("format", completeFormats)
			_ = sub.RegisterFlagCompletionFunc("engine", completeEngines)
		case "set":
			sub.ValidArgsFunction = c.completeSetArgs
			_ = sub.RegisterFlagCompletionFunc("append", c.completePaths(arrayPaths))
			_ = sub.RegisterFlagCompletionFunc("delete", c.completePaths(allPaths))
		}
	}
}

// completeDocument offers JSON files for the first positional argument.
func completeDocument(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats completes the last element of a comma-separated format list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndexByte(toComplete, ','); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	chosen := strings.Split(prefix, ",")
	var out []string
	for _, f := range sortedKeys(pipeline.ValidFormats) {
		if strings.HasPrefix(f, last) && !slices.Contains(chosen, f) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeEngines(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return sortedKeys(pipeline.ValidEngines), cobra.ShellCompDirectiveNoFileComp
}

// completeSetArgs completes FILE, then ENTITY, then PATH= for set.
func (c *CLI) completeSetArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completeDocument(cmd, args, toComplete)
	case 1:
		return c.completeEntities(args[0])
	}
	if strings.Contains(toComplete, "=") {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	paths, dir := c.completePaths(allPaths)(cmd, args, toComplete)
	for i := range paths {
		paths[i] += "="
	}
	return paths, dir | cobra.ShellCompDirectiveNoSpace
}

// completeEntities lists the nodes and links of the document at file in
// the forms parseRef accepts.
func (c *CLI) completeEntities(file string) ([]string, cobra.ShellCompDirective) {
	cat, err := c.catalog()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	g, _, err := lbio.ImportFile(file, cat, lbio.Options{})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.ID)
	}
	for _, l := range g.Links() {
		out = append(out, l.SourceID+"->"+l.TargetID)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

type pathFilter func(*schema.Schema) bool

func allPaths(*schema.Schema) bool { return true }

func arrayPaths(s *schema.Schema) bool { return s.Kind() == schema.KindArray }

// completePaths returns a completion func listing the attribute paths of
// the entity named by args[1] whose schema passes keep.
func (c *CLI) completePaths(keep pathFilter) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) < 2 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ref, err := parseRef(args[1])
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		cat, err := c.catalog()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		g, _, err := lbio.ImportFile(args[0], cat, lbio.Options{})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var sch *schema.Schema
		if ref.IsNode() {
			n, ok := g.Node(ref.NodeID)
			if !ok {
				return nil, cobra.ShellCompDirectiveError
			}
			sch = n.Schema
		} else {
			l, ok := g.Link(ref.Link.SourceID, ref.Link.TargetID)
			if !ok {
				return nil, cobra.ShellCompDirectiveError
			}
			sch = l.Schema
		}

		var out []string
		walkFields(sch, "", func(path string, s *schema.Schema) {
			if keep(s) {
				out = append(out, path)
			}
		})
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// walkFields visits every struct field path below s. Array elements are
// not descended into since their paths need an index.
func walkFields(s *schema.Schema, prefix string, fn func(string, *schema.Schema)) {
	for _, f := range s.Fields() {
		path := prefix + f.Name
		fn(path, f.Schema)
		walkFields(f.Schema, path+".", fn)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
