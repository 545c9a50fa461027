package report

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Primary format is a pipe-delimited table:
//
//	| Master Eject | $380.00 | Exit all positions | structure broken |
//
// If no table row parses, a line-oriented fallback is tried:
//
//	Master Eject: $380.00 - Exit all positions
func (p *Parser) extractAlertLevels(text string, w *warningList) []AlertLevelSpec {
	specs := p.parseLevelTable(text)
	if len(specs) == 0 {
		specs = p.parseLevelLines(text)
	}
	if len(specs) == 0 {
		w.addf("alert levels: no levels found")
	}
	return specs
}

func (p *Parser) parseLevelTable(text string) []AlertLevelSpec {
	var out []AlertLevelSpec
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitTableRow(line)
		if len(cells) < 3 {
			continue
		}
		// Header and separator rows are discarded silently, not warned.
		if isHeaderRow(cells) {
			continue
		}
		price := parsePriceString(cells[1])
		if price == nil {
			continue
		}
		reason := ""
		if len(cells) > 3 {
			reason = cells[3]
		}
		out = append(out, AlertLevelSpec{
			LevelName: cells[0],
			Price:     *price,
			Direction: p.classifyDirection(cells[0], cells[2]),
			Action:    cells[2],
			Reason:    reason,
		})
	}
	return out
}

var levelLinePattern = regexp.MustCompile(
	`(?m)^\s*(?:[-*•]\s*)?([A-Za-z][A-Za-z0-9 /'()-]{1,48}?)\s*:\s*\$\s*([0-9][\d,]*(?:\.\d+)?)\s*(?:[-–—]\s*(.+))?\s*$`)

// metricLabels are line prefixes that belong to the key-metrics block, not
// the level list. parseLevelLines must not swallow "Close: $432.10".
var metricLabels = map[string]struct{}{
	"close": {}, "closed": {}, "closing": {}, "open": {}, "opened": {},
	"high": {}, "low": {}, "last": {}, "volume": {}, "vol": {},
}

func (p *Parser) parseLevelLines(text string) []AlertLevelSpec {
	var out []AlertLevelSpec
	for _, m := range levelLinePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if _, isMetric := metricLabels[strings.ToLower(name)]; isMetric {
			continue
		}
		price := parsePriceString(m[2])
		if price == nil {
			continue
		}
		action := strings.TrimSpace(m[3])
		out = append(out, AlertLevelSpec{
			LevelName: name,
			Price:     *price,
			Direction: p.classifyDirection(name, action),
			Action:    action,
		})
	}
	return out
}

// classifyDirection marks a level downside when the name or action carries
// protective language; everything else is an upside target.
func (p *Parser) classifyDirection(name, action string) Direction {
	haystack := strings.ToLower(name + " " + action)
	for _, kw := range p.rules.ProtectiveKeywords {
		if strings.Contains(haystack, kw) {
			return DirectionDownside
		}
	}
	return DirectionUpside
}

func splitTableRow(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for i, part := range parts {
		cell := strings.TrimSpace(part)
		// Leading and trailing pipes produce empty edge fields.
		if (i == 0 || i == len(parts)-1) && cell == "" {
			continue
		}
		cells = append(cells, cell)
	}
	return cells
}

var headerWords = map[string]struct{}{
	"level": {}, "name": {}, "price": {}, "action": {}, "reason": {}, "trigger": {},
}

func isHeaderRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Contains(cell, "---") {
			return true
		}
		if _, ok := headerWords[strings.ToLower(cell)]; ok {
			return true
		}
	}
	return false
}

// validateLevels flags levels that look implausible next to the close price.
// A wrong price silently monitored is the worst failure mode this parser has.
func validateLevels(specs []AlertLevelSpec, close *decimal.Decimal, w *warningList) {
	if close == nil || close.IsZero() {
		return
	}
	for _, spec := range specs {
		ratio := spec.Price.Div(*close)
		if ratio.LessThan(decimal.NewFromFloat(0.5)) || ratio.GreaterThan(decimal.NewFromFloat(2)) {
			w.addf("alert levels: %q price %s is far from close %s", spec.LevelName, spec.Price, close)
		}
	}
}
