package report

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\b(?:scored?|went)\s*[:=]?\s*(\d+)\s*(?:/|of|out of)\s*(\d+)`),
		regexp.MustCompile(`(?im)\byesterday(?:'s)?\s+(?:forecasts?|calls?)\s*[:=]?\s*(\d+)\s*/\s*(\d+)`),
	}
	outcomePattern = regexp.MustCompile(`(?im)^\s*(?:[-*•]\s*)?(✓|✗|x|hit|miss)\s*[:.]?\s+(.+)$`)
)

// extractPerformanceReview looks for a prior-day scorecard. Most reports do
// not reference the previous day, so a nil return is the normal case and is
// never a warning.
func extractPerformanceReview(text string) *PerformanceReview {
	m, ok := firstMatch(scorePatterns, text)
	if !ok {
		return nil
	}
	correct, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || total == 0 || correct > total {
		return nil
	}
	review := &PerformanceReview{Correct: correct, Total: total}
	for _, om := range outcomePattern.FindAllStringSubmatch(text, -1) {
		marker := strings.ToLower(om[1])
		review.Outcomes = append(review.Outcomes, ForecastOutcome{
			Forecast: strings.TrimSpace(om[2]),
			Correct:  marker == "✓" || marker == "hit",
		})
	}
	return review
}
