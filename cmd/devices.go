package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keyring"
)

type deviceRow struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Transport     string    `json:"transport"`
	Online        bool      `json:"online"`
	LastConnected time.Time `json:"last_connected"`
}

func newDevicesCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List keyboards on the bridge and remembered ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			bridge := newBridge(cfg)
			defer bridge.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Device.CommandTimeout.Duration)
			defer cancel()
			online, err := bridge.ListDevices(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "bridge unavailable: %v\n", err)
			}
			known, err := keyring.ListKnownDevices()
			if err != nil {
				return err
			}

			rows := mergeDevices(online, known)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return printDevices(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// mergeDevices lists online devices first, then remembered devices that
// are not online.
func mergeDevices(online []device.Info, known []keyring.KnownDevice) []deviceRow {
	seen := make(map[string]int, len(online))
	rows := make([]deviceRow, 0, len(online)+len(known))
	for _, d := range online {
		seen[d.ID] = len(rows)
		rows = append(rows, deviceRow{ID: d.ID, Name: d.Name, Transport: string(d.Transport), Online: true})
	}
	for _, k := range known {
		if i, ok := seen[k.ID]; ok {
			rows[i].LastConnected = k.LastConnected
			continue
		}
		rows = append(rows, deviceRow{ID: k.ID, Name: k.Name, Transport: k.Transport, LastConnected: k.LastConnected})
	}
	return rows
}

func printDevices(out io.Writer, rows []deviceRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "no devices")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRANSPORT\tSTATUS\tLAST CONNECTED")
	for _, r := range rows {
		status := "offline"
		if r.Online {
			status = "online"
		}
		last := "-"
		if !r.LastConnected.IsZero() {
			last = r.LastConnected.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Transport, status, last)
	}
	return w.Flush()
}
