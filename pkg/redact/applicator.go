package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/platinummonkey/veil/pkg/pii"
)

const (
	// DefaultMaskRune is the block character used by the mask strategy.
	DefaultMaskRune = '█'
	// hashLength is the number of hex characters kept from the digest.
	hashLength = 16
)

// Applicator applies a redaction strategy to text at consolidated entity
// spans. The anonymization cache lives on the instance, so one long-lived
// Applicator yields consistent synthetic values across many calls; ClearCache
// resets it. Safe for concurrent use: a lost cache update can momentarily
// assign two synthetic values to the same original across racing callers, but
// the cache structure itself stays intact.
type Applicator struct {
	// MaskRune is the character repeated by the mask strategy.
	MaskRune rune

	mu        sync.Mutex
	anonCache map[string]string
	rng       *rand.Rand
}

// NewApplicator returns an Applicator with the default mask character and a
// time-seeded generator for synthetic values.
func NewApplicator() *Applicator {
	return NewApplicatorWithSeed(rand.Int63())
}

// NewApplicatorWithSeed returns an Applicator whose synthetic-value generator
// is seeded deterministically. Used by tests and by deployments that want
// reproducible anonymization within a run.
func NewApplicatorWithSeed(seed int64) *Applicator {
	return &Applicator{
		MaskRune:  DefaultMaskRune,
		anonCache: make(map[string]string),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Apply redacts text at the given entity spans using the strategy. Entities
// are processed right-to-left so replacements never shift the offsets of
// entities still to be processed; spans ending past the text after a
// shrinking replacement are truncated. The returned slice is a fresh copy sorted
// by start offset with RedactedValue attached; the input is not mutated. An
// unknown strategy falls back to mask.
func (a *Applicator) Apply(text string, entities []pii.Entity, strategy pii.Strategy) (string, []pii.Entity) {
	if len(entities) == 0 {
		return text, pii.CloneEntities(entities)
	}

	replace := a.replacementFunc(strategy)

	updated := pii.CloneEntities(entities)
	sort.SliceStable(updated, func(i, j int) bool {
		return updated[i].Start > updated[j].Start
	})

	redacted := text
	for i := range updated {
		replacement := replace(updated[i])
		updated[i].RedactedValue = replacement

		// Partially overlapping spans survive consolidation when their
		// overlap ratio stays at or below the threshold, so a shrinking
		// replacement at a higher offset can leave an earlier span ending
		// past the current text. Clamp both indices to the text we have.
		start, end := updated[i].Start, updated[i].End
		if start > len(redacted) {
			start = len(redacted)
		}
		if end > len(redacted) {
			end = len(redacted)
		}
		redacted = redacted[:start] + replacement + redacted[end:]
	}

	sort.SliceStable(updated, func(i, j int) bool {
		return updated[i].Start < updated[j].Start
	})
	return redacted, updated
}

// ClearCache drops all memoized synthetic values.
func (a *Applicator) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.anonCache = make(map[string]string)
}

func (a *Applicator) replacementFunc(strategy pii.Strategy) func(pii.Entity) string {
	switch strategy {
	case pii.StrategyTagReplace:
		return a.tagReplace
	case pii.StrategyAnonymize:
		return a.anonymize
	case pii.StrategyHash:
		return a.hash
	case pii.StrategyMask:
		return a.mask
	default:
		return a.mask
	}
}

// mask preserves layout per character: the replacement has exactly as many
// runes as the original value. Entity offsets are byte offsets, so for
// multibyte values the masked text's byte length can differ from the span it
// replaces even though the visible width matches.
func (a *Applicator) mask(e pii.Entity) string {
	maskRune := a.MaskRune
	if maskRune == 0 {
		maskRune = DefaultMaskRune
	}
	return strings.Repeat(string(maskRune), utf8.RuneCountInString(e.Value))
}

func (a *Applicator) tagReplace(e pii.Entity) string {
	return "[" + string(e.Type) + "]"
}

// hash wraps the truncated digest in '#' so the verifier can tell it apart
// from real content.
func (a *Applicator) hash(e pii.Entity) string {
	sum := sha256.Sum256([]byte(e.Value))
	return "#" + hex.EncodeToString(sum[:])[:hashLength] + "#"
}
