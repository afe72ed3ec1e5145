package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/platinummonkey/veil/pkg/api"
	"github.com/platinummonkey/veil/pkg/engine"
)

func newRedactCommand() *Command {
	cmd := &Command{
		Name:        "redact",
		Description: "Redact PII from text",
		Flags:       flag.NewFlagSet("redact", flag.ExitOnError),
		Run:         runRedact,
	}

	cmd.Flags.String("text", "", "Text to redact")
	cmd.Flags.String("file", "", "File to redact, - for stdin")
	cmd.Flags.String("strategy", "mask", "Redaction strategy: mask, tag_replace, anonymize, hash")
	cmd.Flags.Bool("audit", false, "Print audit records to stderr")
	cmd.Flags.String("server", defaultServerURL, "Veil server URL")
	cmd.Flags.String("api-key", "", "API key")
	cmd.Flags.Bool("json", false, "Print the raw JSON response")

	return cmd
}

func runRedact(args []string) error {
	cmd := newRedactCommand()
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

	req := api.RedactTextRequest{
		Text:     text,
		Strategy: cmd.Flags.Lookup("strategy").Value.String(),
	}
	var result engine.Result
	if err := client.PostJSON("/api/v1/redact/text", req, &result); err != nil {
		return err
	}

	if cmd.Flags.Lookup("json").Value.String() == "true" {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Println(result.RedactedText)

	if cmd.Flags.Lookup("audit").Value.String() == "true" {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Audit); err != nil {
			return err
		}
	}

	if !result.Verification.Passed {
		return fmt.Errorf("verification failed: %d residual entities remain",
			len(result.Verification.ResidualEntities))
	}
	return nil
}
