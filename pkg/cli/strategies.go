package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/veil/pkg/api"
)

func newStrategiesCommand() *Command {
	cmd := &Command{
		Name:        "strategies",
		Description: "List the server's redaction strategies",
		Flags:       flag.NewFlagSet("strategies", flag.ExitOnError),
		Run:         runStrategies,
	}

	cmd.Flags.String("server", defaultServerURL, "Veil server URL")
	cmd.Flags.String("api-key", "", "API key")

	return cmd
}

func runStrategies(args []string) error {
	cmd := newStrategiesCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	client := NewClient(
		cmd.Flags.Lookup("server").Value.String(),
		cmd.Flags.Lookup("api-key").Value.String(),
	)

	var infos []api.StrategyInfo
	if err := client.GetJSON("/api/v1/strategies", &infos); err != nil {
		return err
	}

	for _, info := range infos {
		fmt.Printf("%-14s %s\n", info.Name, info.Description)
	}
	return nil
}
