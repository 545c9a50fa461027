package report

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules holds the keyword tables the parser matches against. Defaults cover
// the report format we receive today; operators can extend them with a YAML
// file without a rebuild.
type Rules struct {
	// ProtectiveKeywords classify a level as downside when any of them
	// appears in the level name or action.
	ProtectiveKeywords []string `yaml:"protective_keywords"`
	// RegimeVocabulary maps each mode to the terms that declare it.
	RegimeVocabulary map[RegimeMode][]string `yaml:"regime_vocabulary"`
}

func DefaultRules() Rules {
	return Rules{
		ProtectiveKeywords: []string{
			"support", "eject", "stop", "floor", "protect", "exit", "cut",
		},
		RegimeVocabulary: map[RegimeMode][]string{
			RegimeCalm:      {"calm", "constructive", "risk-on"},
			RegimeCaution:   {"caution", "cautious", "choppy"},
			RegimeElevated:  {"elevated risk", "elevated", "high risk"},
			RegimeDefensive: {"defensive", "defense", "risk-off", "capital preservation"},
		},
	}
}

// LoadRules reads a YAML rules file and merges it over the defaults. Empty
// sections keep their default tables.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("reading parser rules: %w", err)
	}
	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return rules, fmt.Errorf("parsing parser rules: %w", err)
	}
	if len(loaded.ProtectiveKeywords) > 0 {
		rules.ProtectiveKeywords = normalizeTerms(loaded.ProtectiveKeywords)
	}
	for mode, terms := range loaded.RegimeVocabulary {
		if len(terms) > 0 {
			rules.RegimeVocabulary[mode] = normalizeTerms(terms)
		}
	}
	return rules, nil
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
