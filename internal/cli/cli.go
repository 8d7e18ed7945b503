// Package cli parses pizoo command lines into an Invocation.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandCheck   Command = "check"
	CommandStatus  Command = "status"
	CommandSwitch  Command = "switch"
	CommandReload  Command = "reload"
	CommandPress   Command = "press"
	CommandStop    Command = "stop"
	CommandPlay    Command = "play"
	CommandDevices Command = "devices"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// Invocation is one parsed command line.
type Invocation struct {
	Command     Command
	ConfigPath  string
	ProfilesDir string
	Pin         int
	File        string
	ShowHelp    bool
	// Help is the rendered help text when ShowHelp is set.
	Help string
}

const binaryName = "pizoo"

// Parse runs args through the command tree without executing anything.
func Parse(args []string) (Invocation, error) {
	var inv Invocation
	var help bytes.Buffer

	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root := newRoot(&inv)
	root.SetArgs(args)
	root.SetOut(&help)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		return Invocation{}, err
	}
	if inv.Command == "" {
		inv.Command = CommandHelp
		inv.ShowHelp = true
		inv.Help = help.String()
	}
	return inv, nil
}

// HelpText renders top-level usage.
func HelpText() string {
	return newRoot(&Invocation{}).UsageString()
}

func newRoot(inv *Invocation) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:           binaryName + " [--config PATH] [--profiles DIR] <command>",
		Short:         "Animal soundboard for GPIO buttons",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				inv.Command = CommandVersion
				return nil
			}
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&inv.ConfigPath, "config", "", "settings file (default: $XDG_CONFIG_HOME/pizoo/pizoo.yaml)")
	flags.StringVar(&inv.ProfilesDir, "profiles", "", "profiles directory, overrides profiles_dir")
	root.Flags().BoolVar(&showVersion, "version", false, "show version")

	root.AddCommand(
		leaf(inv, CommandRun, "Boot and serve buttons until shutdown or termination"),
		leaf(inv, CommandCheck, "Load and validate every profile in the catalog"),
		leaf(inv, CommandStatus, "Print daemon state and active profile"),
		leaf(inv, CommandSwitch, "Advance the running daemon to the next profile"),
		leaf(inv, CommandReload, "Reload the active profile from disk"),
		leaf(inv, CommandStop, "Run the shutdown sequence on the running daemon"),
		leaf(inv, CommandDevices, "List audio output devices"),
		leaf(inv, CommandVersion, "Print version information"),
		&cobra.Command{
			Use:   "press PIN",
			Short: "Simulate a button press on the running daemon",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				pin, err := strconv.Atoi(args[0])
				if err != nil || pin < 0 {
					return fmt.Errorf("invalid pin %q", args[0])
				}
				inv.Command = CommandPress
				inv.Pin = pin
				return nil
			},
		},
		&cobra.Command{
			Use:   "play FILE",
			Short: "Decode and play one clip, waiting for it to finish",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				inv.Command = CommandPlay
				inv.File = args[0]
				return nil
			},
		},
	)
	return root
}

func leaf(inv *Invocation, command Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(command),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			inv.Command = command
			return nil
		},
	}
}
