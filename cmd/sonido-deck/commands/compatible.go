package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/camelot"
)

type compatibleKey struct {
	Code         string           `json:"code" yaml:"code"`
	Key          string           `json:"key" yaml:"key"`
	OpenKey      string           `json:"open_key" yaml:"open_key"`
	Relationship camelot.Relation `json:"relationship" yaml:"relationship"`
}

func newCompatibleCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "compatible <code|key>",
		Short: "List the keys that mix harmonically with a Camelot code or key",
		Long: `List the keys that mix with the given Camelot code (8A) or key name (Am,
"A minor"): the same key, one step either way on the wheel and the relative
major or minor.

Examples:
  sonido-deck compatible 8A
  sonido-deck compatible "F# minor" --plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := resolveCode(args[0])
			if err != nil {
				return err
			}

			keys := []compatibleKey{}
			for _, c := range camelot.CompatibleCodes(code.String()) {
				parsed := camelot.MustParse(c)
				keys = append(keys, compatibleKey{
					Code:         c,
					Key:          parsed.Key(),
					OpenKey:      parsed.OpenKey(),
					Relationship: camelot.Relationship(code.String(), c),
				})
			}

			if !plain {
				return a.output(cmd.OutOrStdout(), keys)
			}

			w := cmd.OutOrStdout()
			heading(w, fmt.Sprintf("%s (%s) mixes with", code, code.Key()))
			for _, k := range keys {
				fmt.Fprintf(w, "  %-4s %-5s %s\n", k.Code, k.Key, qualityStyle(k.Relationship.Quality).Render(k.Relationship.Description))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a styled list instead of YAML/JSON")
	return cmd
}

// resolveCode accepts a Camelot code or a key name
func resolveCode(s string) (camelot.Code, error) {
	if c, err := camelot.ParseCode(s); err == nil {
		return c, nil
	}
	if code := camelot.KeyToCode(s); code != camelot.UnknownCode {
		return camelot.ParseCode(code)
	}
	return camelot.Code{}, fmt.Errorf("not a Camelot code or key: %q", strings.TrimSpace(s))
}
