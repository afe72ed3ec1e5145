package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPack = `
name: test-pack
version: "1.0"
rules:
  - type: EMPLOYEE_ID
    expr: "EMP-[0-9]{6}"
    confidence: 0.9
    description: internal employee IDs
`

const invalidPack = `
name: broken-pack
rules:
  - type: BAD_RULE
    expr: "[unclosed"
    confidence: 0.9
`

func TestPatternsValidate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(validPack), 0o644))

	assert.NoError(t, runPatterns([]string{"validate", dir}))
}

func TestPatternsValidate_InvalidPack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(validPack), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(invalidPack), 0o644))

	err := runPatterns([]string{"validate", dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestPatternsValidate_EmptyDir(t *testing.T) {
	err := runPatterns([]string{"validate", t.TempDir()})
	assert.Error(t, err)
}

func TestPatterns_UnknownSubcommand(t *testing.T) {
	err := runPatterns([]string{"push"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown patterns subcommand")

	err = runPatterns(nil)
	assert.Error(t, err)
}
