package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/veil/pkg/pii"
)

// Pack is a custom rule manifest layered over the built-in rules.
type Pack struct {
	Name    string     `yaml:"name"`
	Version string     `yaml:"version"`
	Rules   []PackRule `yaml:"rules"`
}

// PackRule is one rule in a pack manifest.
type PackRule struct {
	Type        string  `yaml:"type"`
	Expr        string  `yaml:"expr"`
	Confidence  float64 `yaml:"confidence"`
	Description string  `yaml:"description,omitempty"`
}

// Validate checks the manifest: a name, at least one rule, and for every
// rule a non-empty type, a compilable expression and a confidence in (0, 1].
func (p *Pack) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pack name is required")
	}
	if len(p.Rules) == 0 {
		return fmt.Errorf("pack %s has no rules", p.Name)
	}
	for i, r := range p.Rules {
		if r.Type == "" {
			return fmt.Errorf("pack %s rule %d: type is required", p.Name, i)
		}
		if _, err := regexp.Compile(r.Expr); err != nil {
			return fmt.Errorf("pack %s rule %d (%s): invalid expression: %w", p.Name, i, r.Type, err)
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			return fmt.Errorf("pack %s rule %d (%s): confidence %v outside (0,1]", p.Name, i, r.Type, r.Confidence)
		}
	}
	return nil
}

// Compile validates the pack and compiles its rules.
func (p *Pack) Compile() ([]Rule, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rules := make([]Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, Rule{
			Type:        pii.EntityType(r.Type),
			Expr:        regexp.MustCompile(r.Expr),
			Confidence:  r.Confidence,
			Description: r.Description,
		})
	}
	return rules, nil
}

// LoadPack reads and validates one pack manifest.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack manifest: %w", err)
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack manifest %s: %w", path, err)
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// LoadPackDir loads every .yaml/.yml manifest in dir. Invalid manifests are
// logged and skipped; a missing directory yields no packs and no error so
// deployments without custom rules run on the built-ins alone.
func LoadPackDir(dir string, log *logrus.Logger) ([]Pack, error) {
	if log == nil {
		log = logrus.New()
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Debugf("Rule pack directory does not exist: %s", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var packs []Pack
	for _, name := range names {
		path := filepath.Join(dir, name)
		pack, err := LoadPack(path)
		if err != nil {
			log.Warnf("Failed to load rule pack from %s: %v", path, err)
			continue
		}
		packs = append(packs, *pack)
	}
	return packs, nil
}
