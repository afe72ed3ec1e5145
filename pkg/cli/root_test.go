package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "veil", root.Name)

	for _, name := range []string{"detect", "redact", "verify", "strategies", "patterns"} {
		cmd, ok := root.Subcommands[name]
		assert.True(t, ok, "missing subcommand %s", name)
		assert.NotNil(t, cmd.Run)
	}
}

func TestReadInput(t *testing.T) {
	text, err := readInput("inline text", "")
	assert.NoError(t, err)
	assert.Equal(t, "inline text", text)

	_, err = readInput("", "")
	assert.Error(t, err)

	_, err = readInput("", "/nonexistent/input.txt")
	assert.Error(t, err)
}
