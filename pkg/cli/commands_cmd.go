package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandEntry describes one CLI command for introspection output.
type CommandEntry struct {
	Path  string      `json:"path"`
	Short string      `json:"short"`
	Args  string      `json:"args,omitempty"`
	Flags []FlagEntry `json:"flags,omitempty"`
}

// FlagEntry describes one CLI flag for introspection output.
type FlagEntry struct {
	Name    string `json:"name"`
	Short   string `json:"shorthand,omitempty"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

func newCommandsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List available commands with their flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := walkCommands(cmd.Root(), "")

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			for _, e := range entries {
				fmt.Fprintf(os.Stdout, "%-20s %s\n", e.Path, e.Short)
				for _, f := range e.Flags {
					fmt.Fprintf(os.Stdout, "  --%-17s %s\n", f.Name, f.Usage)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON")

	return cmd
}

// walkCommands recursively walks the command tree and collects leaf commands.
func walkCommands(cmd *cobra.Command, parentPath string) []CommandEntry {
	var entries []CommandEntry

	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}

		childPath := child.Name()
		if parentPath != "" {
			childPath = parentPath + " " + child.Name()
		}

		if child.HasSubCommands() {
			entries = append(entries, walkCommands(child, childPath)...)
			continue
		}

		args := ""
		if useParts := strings.Fields(child.Use); len(useParts) > 1 {
			args = strings.Join(useParts[1:], " ")
		}

		entries = append(entries, CommandEntry{
			Path:  childPath,
			Short: child.Short,
			Args:  args,
			Flags: collectFlags(child),
		})
	}

	return entries
}

// collectFlags gathers flag metadata from a command.
func collectFlags(cmd *cobra.Command) []FlagEntry {
	var flags []FlagEntry
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		flags = append(flags, FlagEntry{
			Name:    f.Name,
			Short:   f.Shorthand,
			Type:    f.Value.Type(),
			Default: f.DefValue,
			Usage:   f.Usage,
		})
	})
	return flags
}
