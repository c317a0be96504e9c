package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/highlight"
)

// RuntimeOption is a config value that :set may change while running.
// Switches toggle when set without a value; other options need one.
type RuntimeOption struct {
	Name string
	// Choices, when set, lists the accepted values of a non-switch option.
	Choices func() []string

	get func(*config.Config) string
	set func(*config.Config, string) error
}

// IsSwitch reports whether the option is an on/off value.
func (o RuntimeOption) IsSwitch() bool {
	return o.Choices == nil
}

func switchOption(name string, field func(*config.Config) *bool) RuntimeOption {
	return RuntimeOption{
		Name: name,
		get:  func(c *config.Config) string { return onOff(*field(c)) },
		set: func(c *config.Config, v string) error {
			b, err := ParseBoolValue(v)
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
	}
}

var runtimeOptions = []RuntimeOption{
	switchOption("mouse", func(c *config.Config) *bool { return &c.Mouse }),
	switchOption("notify", func(c *config.Config) *bool { return &c.Build.Notify }),
	switchOption("adopt_live", func(c *config.Config) *bool { return &c.Device.AdoptLiveKeymap }),
	switchOption("auto_connect", func(c *config.Config) *bool { return &c.Device.AutoConnect }),
	{
		Name:    "syntax_theme",
		Choices: highlight.Themes,
		get:     func(c *config.Config) string { return c.UI.SyntaxTheme },
		set: func(c *config.Config, v string) error {
			if !slices.Contains(highlight.Themes(), v) {
				return fmt.Errorf("unknown syntax theme %q", v)
			}
			c.UI.SyntaxTheme = v
			return nil
		},
	},
}

func findOption(name string) (RuntimeOption, error) {
	for _, o := range runtimeOptions {
		if o.Name == name {
			return o, nil
		}
	}
	return RuntimeOption{}, fmt.Errorf("unknown option %q (available: %s)", name, strings.Join(RuntimeOptionNames(), ", "))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// ParseBoolValue accepts on/off, true/false and yes/no in any case.
func ParseBoolValue(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q: use on/off, true/false, or yes/no", s)
}

// SetRequest is a parsed :set argument.
type SetRequest struct {
	Option string
	// Value is empty for a toggle or a query.
	Value string
	Query bool
}

// ParseSetCommand parses "option", "option?", "option=value" and
// "option value". Values are checked when applied.
func ParseSetCommand(args string) (SetRequest, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return SetRequest{}, fmt.Errorf("no option specified")
	}
	if name, ok := strings.CutSuffix(args, "?"); ok {
		return SetRequest{Option: strings.TrimSpace(name), Query: true}, nil
	}
	if name, value, ok := strings.Cut(args, "="); ok {
		return SetRequest{Option: strings.TrimSpace(name), Value: strings.TrimSpace(value)}, nil
	}

	switch fields := strings.Fields(args); len(fields) {
	case 1:
		return SetRequest{Option: fields[0]}, nil
	case 2:
		return SetRequest{Option: fields[0], Value: fields[1]}, nil
	}
	return SetRequest{}, fmt.Errorf("invalid syntax: %q", args)
}

// ApplySetCommand carries out req against cfg and returns the resulting
// "name = value" line.
func ApplySetCommand(cfg *config.Config, req SetRequest) (string, error) {
	opt, err := findOption(req.Option)
	if err != nil {
		return "", err
	}
	if req.Query {
		return fmt.Sprintf("%s = %s", opt.Name, opt.get(cfg)), nil
	}

	value := req.Value
	if value == "" {
		if !opt.IsSwitch() {
			return "", fmt.Errorf("%s needs a value", opt.Name)
		}
		cur, _ := ParseBoolValue(opt.get(cfg))
		value = onOff(!cur)
	}
	if err := opt.set(cfg, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", opt.Name, opt.get(cfg)), nil
}

// ListRuntimeOptions renders every option with its current value.
func ListRuntimeOptions(cfg *config.Config) string {
	parts := make([]string, len(runtimeOptions))
	for i, o := range runtimeOptions {
		parts[i] = fmt.Sprintf("%s = %s", o.Name, o.get(cfg))
	}
	return "Options: " + strings.Join(parts, ", ")
}

// RuntimeOptionNames returns the option names in registry order.
func RuntimeOptionNames() []string {
	names := make([]string, len(runtimeOptions))
	for i, o := range runtimeOptions {
		names[i] = o.Name
	}
	return names
}
