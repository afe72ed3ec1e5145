package pii

import (
	"errors"
	"fmt"
)

// Strategy selects the text redaction transform. Media redaction is
// content-blind and never consults the strategy.
type Strategy string

const (
	// StrategyMask replaces the value with a block character repeated to
	// the original length, preserving layout.
	StrategyMask Strategy = "mask"
	// StrategyTagReplace replaces the value with "[TYPE]".
	StrategyTagReplace Strategy = "tag_replace"
	// StrategyAnonymize replaces the value with a synthetic value that is
	// stable for identical (type, value) pairs within one applicator.
	StrategyAnonymize Strategy = "anonymize"
	// StrategyHash replaces the value with a truncated one-way digest
	// wrapped in '#' delimiters.
	StrategyHash Strategy = "hash"
)

// ErrUnknownStrategy is returned when a strategy name does not parse.
var ErrUnknownStrategy = errors.New("unknown redaction strategy")

// Strategies returns all supported strategies in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyMask, StrategyTagReplace, StrategyAnonymize, StrategyHash}
}

// Valid reports whether s is a supported strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyMask, StrategyTagReplace, StrategyAnonymize, StrategyHash:
		return true
	}
	return false
}

// Description returns a one-line human description used by the strategies
// listing endpoint and the CLI.
func (s Strategy) Description() string {
	switch s {
	case StrategyMask:
		return "replace each character with a block character, preserving length"
	case StrategyTagReplace:
		return "replace the value with its entity type tag, e.g. [EMAIL]"
	case StrategyAnonymize:
		return "replace the value with a consistent synthetic substitute"
	case StrategyHash:
		return "replace the value with a truncated SHA-256 digest"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name as used in API requests and CLI flags.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	return st, nil
}
