package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/tools"
)

type toolInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

func newToolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool [name] [json-args]",
		Short: "List or call the tool interface",
		Long: `Without arguments, list the tools. With a name, call the tool with the
given JSON arguments (default {}) and print its JSON result.

Examples:
  sonido-deck tool
  sonido-deck tool search_tracks '{"camelot": "8A"}'
  sonido-deck tool suggest_next_track '{"set_id": "...", "energy_direction": "up"}'`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, closeLib, err := a.openLibrary()
			if err != nil {
				return err
			}
			defer closeLib()

			reg, err := tools.NewRegistry(lib, a.analyzer(), a.logger)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				list := []toolInfo{}
				for _, t := range reg.List() {
					list = append(list, toolInfo{Name: t.Name, Description: t.Description})
				}
				return a.output(cmd.OutOrStdout(), list)
			}

			raw := "{}"
			if len(args) == 2 {
				raw = args[1]
			}
			fmt.Fprintln(cmd.OutOrStdout(), reg.Call(contextOf(cmd), args[0], []byte(raw)))
			return nil
		},
	}
	return cmd
}
