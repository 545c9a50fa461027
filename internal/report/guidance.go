package report

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	stancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*(?:[-*•]\s*)?stance\s*[:=]\s*(.+)$`),
		regexp.MustCompile(`(?im)^\s*(?:[-*•]\s*)?position(?:ing)?\s*[:=]\s*(.+)$`),
	}
	allocationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\b(?:max(?:imum)?|daily)\s+allocation(?:\s+cap)?\s*[:=]?\s*(\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(?im)\ballocation(?:\s+cap)?\s*[:=]?\s*(\d+(?:\.\d+)?)\s*%`),
	}
	sizingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*(?:[-*•]\s*)?siz(?:e|ing)\s*[:=]\s*(.+)$`),
	}
)

func extractGuidance(text string, w *warningList) PositionGuidance {
	var pg PositionGuidance
	if m, ok := firstMatch(stancePatterns, text); ok {
		pg.Stance = strings.TrimSpace(m[1])
	}
	if m, ok := firstMatch(allocationPatterns, text); ok {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 100 {
			pg.MaxAllocationPct = &v
		}
	}
	if m, ok := firstMatch(sizingPatterns, text); ok {
		pg.Sizing = strings.TrimSpace(m[1])
	}
	if pg.Stance == "" && pg.MaxAllocationPct == nil && pg.Sizing == "" {
		w.addf("position guidance: not found")
	}
	return pg
}

var scenarioPattern = regexp.MustCompile(
	`(?im)^\s*(?:[-*•]\s*)?if\s+(.+?)\s*(?:->|→|=>|,\s*then\s+|\bthen\b)\s*(.+)$`)

// extractScenarios picks up conditional game-plan branches. A report without
// any is acceptable, so no warning accrues here.
func extractScenarios(text string) []Scenario {
	var out []Scenario
	for _, m := range scenarioPattern.FindAllStringSubmatch(text, -1) {
		cond := strings.TrimRight(strings.TrimSpace(m[1]), ",:")
		action := strings.TrimSpace(m[2])
		if cond == "" || action == "" {
			continue
		}
		out = append(out, Scenario{Condition: cond, Action: action})
	}
	return out
}
