package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/m96-chan/Keysmith/internal/app"
	"github.com/m96-chan/Keysmith/internal/build"
	"github.com/m96-chan/Keysmith/internal/clipboard"
	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/consts"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/keyring"
	"github.com/m96-chan/Keysmith/internal/logger"
)

// Build metadata, set by main.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	logPath    string
	logLevel   string
	keymapPath string
}

// Run parses the command line and runs the selected command. Without a
// subcommand it starts the editor.
func Run() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   consts.Name,
		Short: "Edit ZMK keymaps in the terminal",
		Long: `Keysmith edits a ZMK keymap file, mirrors key edits to a connected
keyboard while it is unlocked, and runs the firmware build.

Run without arguments to start the editor.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config-path", config.DefaultPath(), "path to config file")
	flags.StringVar(&opts.logPath, "log-path", logger.DefaultPath(), "path to log file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.keymapPath, "keymap", "", "keymap file to edit (overrides keymap_path)")

	root.AddCommand(
		newBuildCmd(opts),
		newCheckCmd(opts),
		newLabelCmd(opts),
		newLabelsCmd(opts),
		newKeycodesCmd(),
		newDevicesCmd(opts),
	)
	return root
}

func setupLogging(opts *options) error {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	return logger.Setup(opts.logPath, level)
}

// loadConfig reads the config file and applies the --keymap override.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.keymapPath != "" {
		path, err := filepath.Abs(opts.keymapPath)
		if err != nil {
			return nil, err
		}
		cfg.KeymapPath = path
	}
	return cfg, nil
}

// newBridge connects to the device bridge named in the config, sending the
// stored access token when there is one.
func newBridge(cfg *config.Config) *device.Bridge {
	token, err := keyring.GetBridgeToken()
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Warn("error reading bridge token", "error", err)
	}
	return device.NewBridge(cfg.Device.BridgeURL,
		device.WithToken(token),
		device.WithHandshakeTimeout(cfg.Device.CommandTimeout.Duration),
	)
}

func newRunner(cfg *config.Config) build.ExecRunner {
	return build.ExecRunner{
		Command:    cfg.Build.Command,
		RootMarker: cfg.Build.RootMarker,
		Dir:        filepath.Dir(cfg.KeymapPath),
	}
}

func runEditor(opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	slog.Info("starting keysmith", "version", Version, "config", opts.configPath, "keymap", cfg.KeymapPath)

	bridge := newBridge(cfg)
	defer bridge.Close()

	return app.New(cfg, app.Deps{
		Store:           keymap.NewFileStore(cfg.KeymapPath),
		Device:          bridge,
		Builder:         newRunner(cfg),
		SystemClipboard: clipboard.Available(),
		WatchPath:       cfg.KeymapPath,
	}).Run()
}
