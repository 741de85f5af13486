package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luhtaf/onlyonce/internal/data"
	"github.com/luhtaf/onlyonce/internal/identity"
	"github.com/luhtaf/onlyonce/internal/occurrence"
	"github.com/luhtaf/onlyonce/internal/value"
)

// NewKeyCommand creates the key command.
func NewKeyCommand(rootOpts *RootOptions) *cobra.Command {
	var canonical bool

	cmd := &cobra.Command{
		Use:   "key [json]",
		Short: "Print the identity key a JSON value is counted under",
		Long: `Key decodes one JSON value, from the argument or from stdin, and prints the
identity key onlyOnce would count it under. With --canonical the canonical
encoding hashed for lists and objects is printed on a second line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				in = strings.NewReader(args[0])
			}
			return runKey(cmd, in, canonical)
		},
	}

	cmd.Flags().BoolVar(&canonical, "canonical", false, "also print the canonical encoding")

	return cmd
}

func runKey(cmd *cobra.Command, in io.Reader, canonical bool) error {
	doc, err := data.Decode(cmd.Context(), in, data.FormatJSON)
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	v, err := value.From(doc)
	if err != nil {
		return err
	}
	key, err := occurrence.NewTracker().Key(v)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, key)
	if canonical {
		enc, err := identity.Canonical(v, identity.NewRegistry())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(enc))
	}
	return nil
}
