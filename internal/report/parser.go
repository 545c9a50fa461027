package report

import "fmt"

// Parser turns a loosely-structured daily report into ExtractedFields plus a
// warning list. Parsing is pure: no I/O, identical input yields identical
// output. Every sub-extractor is best-effort; a field that cannot be located
// becomes a zero value and, where it matters downstream, a warning.
type Parser struct {
	rules Rules
}

func NewParser() *Parser {
	return &Parser{rules: DefaultRules()}
}

func NewParserWithRules(rules Rules) *Parser {
	if len(rules.ProtectiveKeywords) == 0 {
		rules.ProtectiveKeywords = DefaultRules().ProtectiveKeywords
	}
	if len(rules.RegimeVocabulary) == 0 {
		rules.RegimeVocabulary = DefaultRules().RegimeVocabulary
	}
	return &Parser{rules: rules}
}

// Parse never fails. Warnings accumulate in extractor order so the output is
// deterministic and safe to diff across re-parses.
func (p *Parser) Parse(raw string) (ExtractedFields, []string) {
	w := &warningList{}
	var out ExtractedFields
	out.KeyMetrics = extractKeyMetrics(raw, w)
	out.Regime = p.extractRegime(raw, w)
	out.EntryQuality = extractEntryQuality(raw, w)
	out.AlertLevels = p.extractAlertLevels(raw, w)
	validateLevels(out.AlertLevels, out.KeyMetrics.Close, w)
	out.PositionGuidance = extractGuidance(raw, w)
	out.Scenarios = extractScenarios(raw)
	out.PerformanceReview = extractPerformanceReview(raw)
	return out, w.items()
}

// warningList is a per-call collector; each Parse threads its own so
// concurrent parses never share state.
type warningList struct {
	list []string
}

func (w *warningList) addf(format string, v ...any) {
	w.list = append(w.list, fmt.Sprintf(format, v...))
}

func (w *warningList) items() []string {
	return w.list
}
