package usecases

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/safestreets/safestreets/internal/core/domain"
)

const topStreetLimit = 5

// Aggregate computes a CrimeSummary from a deduplicated record set. It is a
// pure function; the input is never mutated.
func Aggregate(records []domain.IncidentRecord) domain.CrimeSummary {
	summary := domain.CrimeSummary{
		TotalCrimes:    len(records),
		DateRange:      "N/A",
		CategoryCounts: make(map[string]int),
		TopStreets:     []domain.StreetCount{},
		Temporal:       domain.TemporalDistribution{ByMonth: make(map[string]int)},
	}
	if len(records) == 0 {
		return summary
	}

	streetCounts := make(map[string]int)
	minMonth, maxMonth := records[0].Month, records[0].Month

	for _, r := range records {
		summary.CategoryCounts[r.Category]++
		streetCounts[r.Street]++
		summary.Temporal.ByMonth[r.Month]++

		// Zero-padded YYYY-MM: lexicographic order is chronological order.
		if r.Month < minMonth {
			minMonth = r.Month
		}
		if r.Month > maxMonth {
			maxMonth = r.Month
		}
	}

	summary.DateRange = fmt.Sprintf("%s to %s", minMonth, maxMonth)
	summary.TopStreets = rankStreets(streetCounts)
	return summary
}

// rankStreets sorts streets by descending count, ties by name, and keeps
// the top five.
func rankStreets(counts map[string]int) []domain.StreetCount {
	ranked := make([]domain.StreetCount, 0, len(counts))
	for street, count := range counts {
		ranked = append(ranked, domain.StreetCount{Street: street, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Street < ranked[j].Street
	})
	if len(ranked) > topStreetLimit {
		ranked = ranked[:topStreetLimit]
	}
	return ranked
}

// CategoryPercentage returns the rounded share of a category in the
// summary, as a whole percentage. Returns 0 for an empty summary or an
// absent category.
func CategoryPercentage(summary domain.CrimeSummary, category string) int {
	if summary.TotalCrimes == 0 {
		return 0
	}
	count, ok := summary.CategoryCounts[category]
	if !ok {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(summary.TotalCrimes)))
}

// RenderSummary produces the deterministic plain-text rendering of a
// summary consumed by the narrative provider: totals, date range, category
// counts sorted by count descending (ties by name), and top streets.
func RenderSummary(locationName string, summary domain.CrimeSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Crime summary for %s\n", locationName)
	fmt.Fprintf(&b, "Total crimes: %d\n", summary.TotalCrimes)
	fmt.Fprintf(&b, "Date range: %s\n", summary.DateRange)

	if len(summary.CategoryCounts) > 0 {
		b.WriteString("Categories:\n")
		for _, c := range sortedCategories(summary.CategoryCounts) {
			fmt.Fprintf(&b, "  - %s: %d (%d%%)\n", c, summary.CategoryCounts[c], CategoryPercentage(summary, c))
		}
	}

	if len(summary.TopStreets) > 0 {
		b.WriteString("Top streets:\n")
		for _, s := range summary.TopStreets {
			fmt.Fprintf(&b, "  - %s: %d\n", s.Street, s.Count)
		}
	}

	return b.String()
}

func sortedCategories(counts map[string]int) []string {
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	return categories
}
