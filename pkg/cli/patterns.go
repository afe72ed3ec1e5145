package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/platinummonkey/veil/pkg/detect/pattern"
)

func newPatternsCommand() *Command {
	cmd := &Command{
		Name:        "patterns",
		Description: "Work with custom rule packs (patterns validate <dir>)",
		Flags:       flag.NewFlagSet("patterns", flag.ExitOnError),
		Run:         runPatterns,
	}
	return cmd
}

func runPatterns(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: patterns validate <dir>")
	}
	switch args[0] {
	case "validate":
		if len(args) < 2 {
			return fmt.Errorf("usage: patterns validate <dir>")
		}
		return validatePackDir(args[1])
	default:
		return fmt.Errorf("unknown patterns subcommand: %s", args[0])
	}
}

// validatePackDir loads every manifest in dir itself rather than through
// pattern.LoadPackDir, which skips broken manifests; validation must report
// them instead.
func validatePackDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var manifests []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			manifests = append(manifests, filepath.Join(dir, entry.Name()))
		}
	}
	if len(manifests) == 0 {
		return fmt.Errorf("no pack manifests found in %s", dir)
	}

	failures := 0
	for _, path := range manifests {
		pack, err := pattern.LoadPack(path)
		if err != nil {
			failures++
			fmt.Printf("FAIL  %s: %v\n", path, err)
			continue
		}
		fmt.Printf("OK    %s: pack %q, %d rules\n", path, pack.Name, len(pack.Rules))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d manifests failed validation", failures, len(manifests))
	}
	return nil
}
