package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command with every veil subcommand
// registered.
func NewRootCommand() *Command {
	root := &Command{
		Name:        "veil",
		Description: "Veil - PII detection and redaction CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("veil", flag.ExitOnError),
	}

	root.Subcommands["detect"] = newDetectCommand()
	root.Subcommands["redact"] = newRedactCommand()
	root.Subcommands["verify"] = newVerifyCommand()
	root.Subcommands["strategies"] = newStrategiesCommand()
	root.Subcommands["patterns"] = newPatternsCommand()

	return root
}

// Execute dispatches to the named subcommand.
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command list in stable order.
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
