package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/platinummonkey/veil/pkg/api"
	"github.com/platinummonkey/veil/pkg/pii"
)

func newVerifyCommand() *Command {
	cmd := &Command{
		Name:        "verify",
		Description: "Verify that redacted text has no residual PII",
		Flags:       flag.NewFlagSet("verify", flag.ExitOnError),
		Run:         runVerify,
	}

	cmd.Flags.String("text", "", "Redacted text to verify")
	cmd.Flags.String("file", "", "File to verify, - for stdin")
	cmd.Flags.String("server", defaultServerURL, "Veil server URL")
	cmd.Flags.String("api-key", "", "API key")
	cmd.Flags.Bool("json", false, "Print the raw JSON response")

	return cmd
}

func runVerify(args []string) error {
	cmd := newVerifyCommand()
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

	var result pii.VerificationResult
	if err := client.PostJSON("/api/v1/verify", api.VerifyRequest{Text: text}, &result); err != nil {
		return err
	}

	if cmd.Flags.Lookup("json").Value.String() == "true" {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if result.Passed {
		fmt.Printf("PASSED (%d scans, confidence %.2f)\n", result.ScanCount, result.Confidence)
		return nil
	}

	fmt.Printf("FAILED (%d scans, confidence %.2f)\n", result.ScanCount, result.Confidence)
	for _, e := range result.ResidualEntities {
		fmt.Printf("  %-14s %s\n", e.Type, e.Value)
	}
	return fmt.Errorf("%d residual entities remain", len(result.ResidualEntities))
}
