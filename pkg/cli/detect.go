package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/platinummonkey/veil/pkg/api"
)

func newDetectCommand() *Command {
	cmd := &Command{
		Name:        "detect",
		Description: "Detect PII entities in text",
		Flags:       flag.NewFlagSet("detect", flag.ExitOnError),
		Run:         runDetect,
	}

	cmd.Flags.String("text", "", "Text to scan")
	cmd.Flags.String("file", "", "File to scan, - for stdin")
	cmd.Flags.String("server", defaultServerURL, "Veil server URL")
	cmd.Flags.String("api-key", "", "API key (id:secret pairs are configured server-side; pass the secret)")
	cmd.Flags.Bool("json", false, "Print the raw JSON response")

	return cmd
}

func runDetect(args []string) error {
	cmd := newDetectCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	text, err := readInput(
		cmd.Flags.Lookup("text").Value.String(),
		cmd.Flags.Lookup("file").Value.String(),
	)
	if err != nil {
		return err
	}

	client := NewClient(
		cmd.Flags.Lookup("server").Value.String(),
		cmd.Flags.Lookup("api-key").Value.String(),
	)

	var resp api.DetectResponse
	if err := client.PostJSON("/api/v1/detect", api.DetectRequest{Text: text}, &resp); err != nil {
		return err
	}

	if cmd.Flags.Lookup("json").Value.String() == "true" {
		return json.NewEncoder(os.Stdout).Encode(resp)
	}

	if len(resp.Entities) == 0 {
		fmt.Println("No PII detected")
		return nil
	}

	fmt.Printf("%-14s %-32s %-10s %s\n", "TYPE", "VALUE", "CONFIDENCE", "SOURCE")
	for _, e := range resp.Entities {
		fmt.Printf("%-14s %-32s %-10.2f %s\n", e.Type, e.Value, e.Confidence, e.Source)
	}
	fmt.Printf("\n%d entities in %dms\n", resp.Stats.Total, resp.ProcessingMS)
	return nil
}
