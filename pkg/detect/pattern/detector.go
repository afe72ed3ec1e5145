package pattern

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/veil/pkg/pii"
)

// Detector is the regex-based structured-identifier detector. It is safe for
// concurrent use; SetPacks swaps the custom rule set atomically under the
// lock while detection holds a read lock.
type Detector struct {
	mu        sync.RWMutex
	builtins  []Rule
	packRules []Rule
	log       *logrus.Logger
}

// New creates a Detector with the built-in rule set.
func New(log *logrus.Logger) *Detector {
	if log == nil {
		log = logrus.New()
	}
	return &Detector{
		builtins: builtinRules(),
		log:      log,
	}
}

// Name implements pii.Detector.
func (d *Detector) Name() string { return pii.SourcePattern }

// Detect implements pii.Detector. It runs every rule over the text, uses the
// first capture group's span when a rule has one, and resolves overlapping
// matches within this detector by keeping the higher-confidence one.
func (d *Detector) Detect(ctx context.Context, text string) ([]pii.Entity, error) {
	d.mu.RLock()
	rules := make([]Rule, 0, len(d.builtins)+len(d.packRules))
	rules = append(rules, d.builtins...)
	rules = append(rules, d.packRules...)
	d.mu.RUnlock()

	var entities []pii.Entity
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range rule.Expr.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if rule.Expr.NumSubexp() >= 1 && len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			value := strings.TrimSpace(text[start:end])
			if value == "" {
				continue
			}
			if rule.validate != nil && !rule.validate(value) {
				continue
			}
			entities = append(entities, pii.Entity{
				Type:       rule.Type,
				Value:      text[start:end],
				Start:      start,
				End:        end,
				Confidence: rule.Confidence,
				Source:     pii.SourcePattern,
			})
		}
	}

	return resolveOverlaps(entities), nil
}

// SupportedTypes lists the entity types the current rule set can produce.
func (d *Detector) SupportedTypes() []pii.EntityType {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[pii.EntityType]bool)
	var types []pii.EntityType
	for _, rule := range append(append([]Rule{}, d.builtins...), d.packRules...) {
		if !seen[rule.Type] {
			seen[rule.Type] = true
			types = append(types, rule.Type)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SetPacks replaces the custom rule packs layered over the built-ins.
func (d *Detector) SetPacks(packs []Pack) {
	var rules []Rule
	for _, pack := range packs {
		compiled, err := pack.Compile()
		if err != nil {
			d.log.Warnf("Skipping rule pack %s: %v", pack.Name, err)
			continue
		}
		rules = append(rules, compiled...)
		d.log.Infof("Loaded rule pack: %s v%s (%d rules)", pack.Name, pack.Version, len(compiled))
	}

	d.mu.Lock()
	d.packRules = rules
	d.mu.Unlock()
}

// resolveOverlaps removes overlapping detections within this detector,
// keeping the higher-confidence match.
func resolveOverlaps(entities []pii.Entity) []pii.Entity {
	if len(entities) == 0 {
		return entities
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].Confidence > entities[j].Confidence
	})

	var resolved []pii.Entity
	for _, e := range entities {
		overlapped := false
		for i, existing := range resolved {
			if e.Start < existing.End && e.End > existing.Start {
				if e.Confidence > existing.Confidence {
					resolved[i] = e
				}
				overlapped = true
				break
			}
		}
		if !overlapped {
			resolved = append(resolved, e)
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Start < resolved[j].Start })
	return resolved
}
