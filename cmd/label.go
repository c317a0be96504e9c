package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

func newLabelCmd(opts *options) *cobra.Command {
	var noNames bool

	cmd := &cobra.Command{
		Use:   "label <binding>",
		Short: "Show the key cap text for a binding",
		Long: `Resolve a binding such as "lt 1 SPACE" to the text drawn on its key.
Layer references use the layer names of the configured keymap.`,
		Example: `  keysmith label "kp LC(C)"
  keysmith label "mt LSHFT A"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := keymap.ParseBinding(strings.Join(args, " "))
			if err != nil {
				return err
			}

			names := keymap.DefaultLayerNames
			if !noNames {
				names = layerNames(opts, names)
			}

			l := keymap.ResolveLabel(b, names)
			out := cmd.OutOrStdout()
			if l.Top != "" {
				fmt.Fprintln(out, l.Top)
			}
			fmt.Fprintln(out, l.Main)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noNames, "default-names", false, "use the built-in layer names instead of the keymap's")
	return cmd
}

// layerNames reads layer names from the configured keymap, falling back
// to fallback when it cannot be loaded.
func layerNames(opts *options, fallback []string) []string {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fallback
	}
	k, err := keymap.NewFileStore(cfg.KeymapPath).Load()
	if err != nil {
		return fallback
	}
	return k.LayerNames()
}

func newLabelsCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "labels [layer]",
		Short: "Print the key caps of one layer",
		Long: `Print every key of a layer with its binding and cap text. The layer is
given by index or name and defaults to the base layer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				path = cfg.KeymapPath
			}
			k, err := keymap.NewFileStore(path).Load()
			if err != nil {
				return err
			}

			ref := "0"
			if len(args) == 1 {
				ref = args[0]
			}
			layer, err := findLayer(k, ref)
			if err != nil {
				return err
			}
			return printLabels(cmd.OutOrStdout(), k, layer)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "keymap file (defaults to the configured keymap)")
	return cmd
}

// findLayer resolves a layer by index or case-insensitive name.
func findLayer(k keymap.Keymap, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(k.Layers) {
			return 0, fmt.Errorf("layer %d out of range (0-%d)", i, len(k.Layers)-1)
		}
		return i, nil
	}
	for i, l := range k.Layers {
		if strings.EqualFold(l.Name, ref) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no layer named %q", ref)
}

func printLabels(out io.Writer, k keymap.Keymap, layer int) error {
	names := k.LayerNames()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "# %s\n", k.Layers[layer].Name)
	for pos, b := range k.Layers[layer].Bindings {
		l := keymap.ResolveLabel(b, names)
		text := l.Main
		if l.Top != "" {
			text = l.Top + " / " + l.Main
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", pos, b.String(), text)
	}
	return w.Flush()
}
