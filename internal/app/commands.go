package app

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
)

// Command is a command-bar command.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	run         func(c *Controller, args []string) (string, error)
}

// commands is the registry of command-bar commands.
var commands = []Command{
	{Name: "w", Aliases: []string{"write"}, Description: "Save the keymap", run: cmdWrite},
	{Name: "wq", Description: "Save and quit", run: cmdWriteQuit},
	{Name: "e", Aliases: []string{"edit"}, Description: "Reload the keymap (e! discards edits)", run: cmdEdit},
	{Name: "e!", Description: "Discard edits and reload", run: cmdEditForce},
	{Name: "q", Aliases: []string{"quit"}, Description: "Quit (q! discards edits)", run: cmdQuit},
	{Name: "q!", Description: "Quit without saving", run: cmdQuitForce},
	{Name: "u", Aliases: []string{"undo"}, Description: "Undo the last edit", run: cmdUndo},
	{Name: "bind", Usage: "<binding>", Description: "Assign a binding to the selected key", run: cmdBind},
	{Name: "layer", Usage: "add|delete|rename|dup|goto [n] [name]", Description: "Manage layers", run: cmdLayer},
	{Name: "combo", Usage: "add|delete|dup|pick|done|cancel|bind|timeout [n] [...]", Description: "Manage combos", run: cmdCombo},
	{Name: "mouse", Usage: "<setting> <value>", Description: "Tune mouse emulation", run: cmdMouse},
	{Name: "check", Description: "Validate the keymap", run: cmdCheck},
	{Name: "build", Aliases: []string{"make"}, Description: "Build the firmware", run: cmdBuild},
	{Name: "lock", Description: "Lock the device", run: cmdLock},
	{Name: "unlock", Description: "Unlock the device for live editing", run: cmdUnlock},
	{Name: "connect", Usage: "<device>", Description: "Connect to a discovered device", run: cmdConnect},
	{Name: "disconnect", Description: "Disconnect the device", run: cmdDisconnect},
	{Name: "reconnect", Description: "Disconnect and scan again", run: cmdReconnect},
	{Name: "devices", Description: "List discovered devices", run: cmdDevices},
	{Name: "device", Usage: "save|discard", Description: "Save or discard live edits on the device", run: cmdDevice},
	{Name: "set", Usage: "[option[=value|?]]", Description: "Change an option at runtime", run: cmdSet},
}

// Commands returns the command registry.
func Commands() []Command {
	return commands
}

// CommandNames returns every command name and alias, for completion.
func CommandNames() []string {
	var names []string
	for _, cmd := range commands {
		names = append(names, cmd.Name)
		names = append(names, cmd.Aliases...)
	}
	return names
}

// commandArgs returns first-argument completions per command name.
func commandArgs() map[string][]string {
	mouse := make([]string, 0, len(mouseSettings))
	for name := range mouseSettings {
		mouse = append(mouse, name)
	}
	slices.Sort(mouse)
	return map[string][]string{
		"layer":  {"add", "delete", "rename", "dup", "goto"},
		"combo":  {"add", "delete", "dup", "pick", "done", "cancel", "bind", "timeout"},
		"device": {"save", "discard"},
		"mouse":  mouse,
		"set":    RuntimeOptionNames(),
	}
}

// ResolveAlias maps command aliases to their canonical names.
func ResolveAlias(name string) string {
	for _, cmd := range commands {
		if cmd.Name == name || slices.Contains(cmd.Aliases, name) {
			return cmd.Name
		}
	}
	return name
}

func findCommand(name string) (Command, bool) {
	name = ResolveAlias(name)
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// Execute runs one command line, without the leading colon, and returns a
// message for the user.
func (c *Controller) Execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, ok := findCommand(strings.ToLower(fields[0]))
	if !ok {
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd.run(c, fields[1:])
}

func cmdWrite(c *Controller, _ []string) (string, error) {
	if err := c.Editor.Save(); err != nil {
		return "", err
	}
	return "Saved keymap", nil
}

func cmdWriteQuit(c *Controller, _ []string) (string, error) {
	if err := c.Editor.Save(); err != nil {
		return "", err
	}
	return "", c.Quit(false)
}

func cmdEdit(c *Controller, _ []string) (string, error) {
	if err := c.Reload(false); err != nil {
		return "", err
	}
	return "Reloaded keymap", nil
}

func cmdEditForce(c *Controller, _ []string) (string, error) {
	if err := c.Reload(true); err != nil {
		return "", err
	}
	return "Reloaded keymap", nil
}

func cmdQuit(c *Controller, _ []string) (string, error) {
	return "", c.Quit(false)
}

func cmdQuitForce(c *Controller, _ []string) (string, error) {
	return "", c.Quit(true)
}

func cmdUndo(c *Controller, _ []string) (string, error) {
	if !c.Editor.Undo() {
		return "", fmt.Errorf("nothing to undo")
	}
	return "", nil
}

func cmdBind(c *Controller, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: bind <action> [params...]")
	}
	layer := c.Editor.ActiveLayer()
	pos := c.Cursor()
	if err := c.SetBindingText(layer, pos, strings.Join(args, " ")); err != nil {
		return "", err
	}
	return "", nil
}

func cmdLayer(c *Controller, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: layer add|delete|rename|dup|goto [n] [name]")
	}
	sub, rest := args[0], args[1:]
	if sub == "add" {
		if !c.Editor.AddLayer() {
			return "", errNoDocument(c)
		}
		return "Added layer", nil
	}

	i := c.Editor.ActiveLayer()
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			i, rest = n, rest[1:]
		}
	}

	switch sub {
	case "delete", "rm":
		if i == 0 {
			return "", fmt.Errorf("the base layer cannot be deleted")
		}
		if !c.Editor.DeleteLayer(i) {
			return "", fmt.Errorf("no layer %d", i)
		}
		return fmt.Sprintf("Deleted layer %d", i), nil
	case "rename", "mv":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: layer rename [n] <name>")
		}
		if !c.Editor.RenameLayer(i, strings.Join(rest, " ")) {
			return "", fmt.Errorf("no layer %d", i)
		}
		return "", nil
	case "dup", "duplicate":
		if !c.Editor.DuplicateLayer(i) {
			return "", fmt.Errorf("no layer %d", i)
		}
		return fmt.Sprintf("Duplicated layer %d", i), nil
	case "goto":
		c.Editor.SetActiveLayer(i)
		return "", nil
	default:
		return "", fmt.Errorf("unknown layer command %q", sub)
	}
}

func cmdCombo(c *Controller, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: combo add|delete|dup|pick|done|cancel|bind|timeout [n]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		if !c.Editor.AddCombo() {
			return "", errNoDocument(c)
		}
		return "Select the combo's keys, then :combo done", nil
	case "done":
		if !c.Editor.FinishPicking() {
			return "", fmt.Errorf("not picking combo keys")
		}
		return "", nil
	case "cancel":
		if !c.Editor.CancelPicking() {
			return "", fmt.Errorf("not picking combo keys")
		}
		return "", nil
	}

	i := c.Editor.SelectedCombo()
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			i, rest = n, rest[1:]
		}
	}
	if i < 0 {
		return "", fmt.Errorf("no combo selected")
	}

	switch sub {
	case "delete", "rm":
		if !c.Editor.DeleteCombo(i) {
			return "", fmt.Errorf("no combo %d", i)
		}
		return "", nil
	case "dup", "duplicate":
		if !c.Editor.DuplicateCombo(i) {
			return "", fmt.Errorf("no combo %d", i)
		}
		return "", nil
	case "pick":
		if !c.Editor.StartPicking(i) {
			return "", fmt.Errorf("no combo %d", i)
		}
		return "Select the combo's keys, then :combo done", nil
	case "bind":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: combo bind [n] <binding>")
		}
		b, err := keymap.ParseBinding(strings.Join(rest, " "))
		if err != nil {
			return "", err
		}
		if !c.Editor.SetComboBinding(i, b) {
			return "", fmt.Errorf("no combo %d", i)
		}
		return "", nil
	case "timeout":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: combo timeout [n] <ms>")
		}
		ms, err := strconv.Atoi(rest[0])
		if err != nil || ms <= 0 {
			return "", fmt.Errorf("timeout must be a positive number of milliseconds")
		}
		k, ok := c.Editor.Keymap()
		if !ok || i >= len(k.Combos) {
			return "", fmt.Errorf("no combo %d", i)
		}
		combo := k.Combos[i].Clone()
		combo.TimeoutMS = ms
		c.Editor.UpdateCombo(i, combo)
		return "", nil
	default:
		return "", fmt.Errorf("unknown combo command %q", sub)
	}
}

// mouseSettings maps setting names to MouseConfig fields.
var mouseSettings = map[string]func(*keymap.MouseConfig) *int{
	"move_speed":            func(m *keymap.MouseConfig) *int { return &m.MoveSpeed },
	"scroll_speed":          func(m *keymap.MouseConfig) *int { return &m.ScrollSpeed },
	"move_time_to_max":      func(m *keymap.MouseConfig) *int { return &m.MoveTimeToMaxMS },
	"move_accel_exponent":   func(m *keymap.MouseConfig) *int { return &m.MoveAccelExponent },
	"scroll_time_to_max":    func(m *keymap.MouseConfig) *int { return &m.ScrollTimeToMaxMS },
	"scroll_accel_exponent": func(m *keymap.MouseConfig) *int { return &m.ScrollAccelExponent },
}

func cmdMouse(c *Controller, args []string) (string, error) {
	k, ok := c.Editor.Keymap()
	if !ok {
		return "", errNoDocument(c)
	}
	cfg := k.Mouse
	if len(args) == 0 {
		return fmt.Sprintf("move_speed=%d scroll_speed=%d move_time_to_max=%d move_accel_exponent=%d scroll_time_to_max=%d scroll_accel_exponent=%d",
			cfg.MoveSpeed, cfg.ScrollSpeed, cfg.MoveTimeToMaxMS, cfg.MoveAccelExponent,
			cfg.ScrollTimeToMaxMS, cfg.ScrollAccelExponent), nil
	}
	if len(args) != 2 {
		return "", fmt.Errorf("usage: mouse <setting> <value>")
	}
	field, ok := mouseSettings[args[0]]
	if !ok {
		return "", fmt.Errorf("unknown mouse setting %q", args[0])
	}
	v, err := strconv.Atoi(args[1])
	if err != nil || v < 0 {
		return "", fmt.Errorf("invalid value %q", args[1])
	}
	*field(&cfg) = v
	c.Editor.SetMouseConfig(cfg)
	return fmt.Sprintf("%s = %d", args[0], v), nil
}

func cmdCheck(c *Controller, _ []string) (string, error) {
	k, ok := c.Editor.Keymap()
	if !ok {
		return "", errNoDocument(c)
	}
	issues := k.Validate()
	switch len(issues) {
	case 0:
		return "No problems found", nil
	case 1:
		return issues[0].String(), nil
	default:
		return fmt.Sprintf("%s (and %d more)", issues[0], len(issues)-1), nil
	}
}

func cmdBuild(c *Controller, _ []string) (string, error) {
	if err := c.Build(); err != nil {
		return "", err
	}
	return "Build started", nil
}

func cmdLock(c *Controller, _ []string) (string, error) {
	return "", c.SetLocked(true)
}

func cmdUnlock(c *Controller, _ []string) (string, error) {
	return "", c.SetLocked(false)
}

func cmdConnect(c *Controller, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: connect <device>")
	}
	return "", c.Connect(strings.Join(args, " "))
}

func cmdDisconnect(c *Controller, _ []string) (string, error) {
	if _, ok := c.Session.Status().(device.Connected); !ok {
		return "", device.ErrNotConnected
	}
	go c.Disconnect()
	return "", nil
}

func cmdReconnect(c *Controller, _ []string) (string, error) {
	go c.Reconnect()
	return "Scanning for devices", nil
}

func cmdDevices(c *Controller, _ []string) (string, error) {
	ds := c.Session.Devices()
	if len(ds) == 0 {
		return "No devices found", nil
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = fmt.Sprintf("%s (%s)", d.Name, d.Transport)
	}
	return strings.Join(parts, ", "), nil
}

func cmdDevice(c *Controller, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: device save|discard")
	}
	switch args[0] {
	case "save":
		if err := c.SaveDevice(); err != nil {
			return "", err
		}
		return "Saved changes on the device", nil
	case "discard":
		if err := c.DiscardDevice(); err != nil {
			return "", err
		}
		return "Discarded changes on the device", nil
	default:
		return "", fmt.Errorf("unknown device command %q", args[0])
	}
}

func cmdSet(c *Controller, args []string) (string, error) {
	if len(args) == 0 {
		return ListRuntimeOptions(c.Config), nil
	}
	req, err := ParseSetCommand(strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	msg, err := ApplySetCommand(c.Config, req)
	if err != nil || req.Query {
		return msg, err
	}
	if req.Option == "auto_connect" {
		c.Session.SetAutoConnect(c.Config.Device.AutoConnect)
	}
	if h := c.callbacks(); h.OnOptionChanged != nil {
		h.OnOptionChanged(req.Option)
	}
	return msg, nil
}

func errNoDocument(c *Controller) error {
	if err := c.Editor.LoadError(); err != nil {
		return fmt.Errorf("no keymap loaded: %w", err)
	}
	return fmt.Errorf("no keymap loaded")
}
