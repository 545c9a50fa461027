package report

import (
	"regexp"
	"strings"
)

var bulletPrefix = regexp.MustCompile(`^\s*[-*•]\s+`)

// extractRegime matches the report against the regime vocabulary, most
// conservative mode first. Matching is case-insensitive via regex so the
// offsets are valid byte positions in the original text; lowering a copy
// can change UTF-8 lengths and misalign the slice. No match means we cannot
// trust the report's read of the market, so the policy is to fail safe:
// default to defensive and warn.
func (p *Parser) extractRegime(text string, w *warningList) Regime {
	for _, mode := range regimeSeverity {
		for _, term := range p.rules.RegimeVocabulary[mode] {
			re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
			if err != nil {
				continue
			}
			loc := re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			return Regime{
				Mode:    mode,
				Label:   text[loc[0]:loc[1]],
				Reasons: regimeReasons(text, loc[0]),
			}
		}
	}
	w.addf("regime: no vocabulary term matched, defaulting to defensive")
	return Regime{Mode: RegimeDefensive, Label: "Defensive (assumed)"}
}

// regimeReasons collects bullet lines in the few lines following the matched
// term. Reports typically justify the regime call right under it.
func regimeReasons(text string, matchIdx int) []string {
	rest := text[matchIdx:]
	lines := strings.Split(rest, "\n")
	var reasons []string
	for i := 1; i < len(lines) && i <= 8; i++ {
		line := lines[i]
		if !bulletPrefix.MatchString(line) {
			if strings.TrimSpace(line) == "" && len(reasons) > 0 {
				break
			}
			continue
		}
		reason := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if reason != "" {
			reasons = append(reasons, reason)
		}
		if len(reasons) == 5 {
			break
		}
	}
	return reasons
}

var entryQualityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)\bentry\s+quality\s*[:=]?\s*([1-5])\s*(?:/\s*5)?(?:\s*[-–(]\s*([A-Za-z][A-Za-z ]*[A-Za-z])\)?)?`),
	regexp.MustCompile(`(?im)\bsetup\s+(?:score|quality)\s*[:=]?\s*([1-5])\s*(?:/\s*5)?`),
}

var entryQualityLabels = map[int]string{
	1: "poor",
	2: "weak",
	3: "average",
	4: "good",
	5: "excellent",
}

func extractEntryQuality(text string, w *warningList) EntryQuality {
	m, ok := firstMatch(entryQualityPatterns, text)
	if !ok {
		w.addf("entry quality: score not found")
		return EntryQuality{}
	}
	score := int(m[1][0] - '0')
	label := ""
	if len(m) > 2 {
		label = strings.TrimSpace(m[2])
	}
	if label == "" {
		label = entryQualityLabels[score]
	}
	return EntryQuality{Score: score, Label: label}
}
