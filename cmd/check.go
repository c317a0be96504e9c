package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Report problems in a keymap file",
		Long: `Load a keymap file and list bindings that name unknown behaviors or
missing layers, layers of the wrong width, and combos with positions
outside the board. Defaults to the configured keymap.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := keymapArg(opts, args)
			if err != nil {
				return err
			}
			k, err := keymap.NewFileStore(path).Load()
			if err != nil {
				return err
			}

			issues := k.Validate()
			out := cmd.OutOrStdout()
			for _, issue := range issues {
				fmt.Fprintln(out, issue.String())
			}
			if len(issues) > 0 {
				return fmt.Errorf("%s: %d problem(s)", path, len(issues))
			}
			fmt.Fprintf(out, "%s: %d layers, %d combos, no problems\n", path, len(k.Layers), len(k.Combos))
			return nil
		},
	}
}

// keymapArg returns the file named on the command line, or the
// configured keymap when there is none.
func keymapArg(opts *options, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return "", err
	}
	return cfg.KeymapPath, nil
}
