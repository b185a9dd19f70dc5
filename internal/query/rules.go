package query

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the shape of an invalidation override file:
//
//	rules:
//	  - event: email:flagged
//	    keys: [emails]
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads extra invalidation rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for i, rule := range rf.Rules {
		if rule.Event == "" {
			return nil, fmt.Errorf("rules file: rule %d has no event", i)
		}
		if len(rule.Keys) == 0 {
			return nil, fmt.Errorf("rules file: rule for %q has no keys", rule.Event)
		}
	}
	return rf.Rules, nil
}

// MergeRules overlays overrides onto base. An override for an event already
// in base replaces it; duplicates within one source are dropped with a
// warning, matching the registry's own duplicate policy.
func MergeRules(base, overrides []Rule, logger *log.Logger) []Rule {
	if logger == nil {
		logger = log.Default()
	}
	index := map[string]int{}
	merged := make([]Rule, 0, len(base)+len(overrides))
	for _, rule := range base {
		if _, dup := index[rule.Event]; dup {
			logger.Printf("invalidation: duplicate base rule for %q dropped", rule.Event)
			continue
		}
		index[rule.Event] = len(merged)
		merged = append(merged, rule)
	}
	seen := map[string]bool{}
	for _, rule := range overrides {
		if seen[rule.Event] {
			logger.Printf("invalidation: duplicate override rule for %q dropped", rule.Event)
			continue
		}
		seen[rule.Event] = true
		if i, ok := index[rule.Event]; ok {
			merged[i] = rule
			continue
		}
		index[rule.Event] = len(merged)
		merged = append(merged, rule)
	}
	return merged
}
