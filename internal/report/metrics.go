package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Each metric has an ordered cascade of label-adjacent patterns; the first
// one that matches wins.
var (
	closePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^.*?\bclos(?:e|ed|ing)(?:\s+price)?\s*[:=@]?\s*\$?\s*([0-9][\d,]*(?:\.\d+)?)`),
		regexp.MustCompile(`(?im)^.*?\blast(?:\s+price)?\s*[:=@]?\s*\$?\s*([0-9][\d,]*(?:\.\d+)?)`),
	}
	openPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^.*?\bopen(?:ed)?(?:\s+price)?\s*[:=@]?\s*\$?\s*([0-9][\d,]*(?:\.\d+)?)`),
	}
	highPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^.*?\b(?:high|intraday\s+high)\s*[:=@]?\s*\$?\s*([0-9][\d,]*(?:\.\d+)?)`),
	}
	lowPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^.*?\b(?:low|intraday\s+low)\s*[:=@]?\s*\$?\s*([0-9][\d,]*(?:\.\d+)?)`),
	}
	changePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\b(?:change|chg)\s*[:=]?\s*([+-]?\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(?im)\(?\s*([+-]\d+(?:\.\d+)?)\s*%\s*\)?\s*(?:on the day|today)`),
	}
	volumePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\bvol(?:ume)?\s*[:=]?\s*([0-9][\d,]*(?:\.\d+)?)\s*([KMBkmb])?\b`),
	}
)

func extractKeyMetrics(text string, w *warningList) KeyMetrics {
	km := KeyMetrics{
		Close: matchPrice(closePatterns, text),
		Open:  matchPrice(openPatterns, text),
		High:  matchPrice(highPatterns, text),
		Low:   matchPrice(lowPatterns, text),
	}
	if m, ok := firstMatch(changePatterns, text); ok {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			km.ChangePct = &v
		}
	}
	if m, ok := firstMatch(volumePatterns, text); ok {
		if v, ok := parseVolume(m[1], m[2]); ok {
			km.Volume = &v
		}
	}
	// Close feeds alert-level sanity checks downstream, so its absence is the
	// one metric worth flagging.
	if km.Close == nil {
		w.addf("key metrics: close price not found")
	}
	return km
}

func firstMatch(patterns []*regexp.Regexp, text string) ([]string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m, true
		}
	}
	return nil, false
}

func matchPrice(patterns []*regexp.Regexp, text string) *decimal.Decimal {
	m, ok := firstMatch(patterns, text)
	if !ok {
		return nil
	}
	return parsePriceString(m[1])
}

// parsePriceString accepts table-cell style values: "$380.00", "$ 1,234.50",
// "380.00". The metric regexes capture bare digits, but table cells arrive
// verbatim with the currency sign attached.
func parsePriceString(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

func parseVolume(num, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	switch strings.ToUpper(suffix) {
	case "K":
		v *= 1e3
	case "M":
		v *= 1e6
	case "B":
		v *= 1e9
	}
	return v, true
}
