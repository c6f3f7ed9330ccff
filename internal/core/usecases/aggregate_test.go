package usecases_test

import (
	"strings"
	"testing"

	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/usecases"
)

func record(id, category, street, month string) domain.IncidentRecord {
	return domain.IncidentRecord{PersistentID: id, Category: category, Street: street, Month: month}
}

func TestAggregate_CategoryCounts(t *testing.T) {
	records := []domain.IncidentRecord{
		record("1", "burglary", "High Street", "2024-01"),
		record("2", "burglary", "High Street", "2024-01"),
		record("3", "robbery", "Mill Lane", "2024-01"),
		record("4", "violent-crime", "Mill Lane", "2024-02"),
	}

	summary := usecases.Aggregate(records)

	if summary.TotalCrimes != 4 {
		t.Errorf("total = %d, want 4", summary.TotalCrimes)
	}
	want := map[string]int{"burglary": 2, "robbery": 1, "violent-crime": 1}
	for category, count := range want {
		if summary.CategoryCounts[category] != count {
			t.Errorf("category %s = %d, want %d", category, summary.CategoryCounts[category], count)
		}
	}
	if len(summary.CategoryCounts) != len(want) {
		t.Errorf("got %d categories, want %d", len(summary.CategoryCounts), len(want))
	}
}

func TestAggregate_TopStreetsCappedAndOrdered(t *testing.T) {
	var records []domain.IncidentRecord
	id := 0
	add := func(street string, n int) {
		for i := 0; i < n; i++ {
			id++
			records = append(records, record(string(rune('a'+id)), "burglary", street, "2024-01"))
		}
	}
	add("Alpha Road", 4)
	add("Bravo Road", 3)
	add("Charlie Road", 2)
	add("Delta Road", 1)
	add("Echo Road", 1)
	add("Foxtrot Road", 1)
	add("Golf Road", 1)

	summary := usecases.Aggregate(records)

	if len(summary.TopStreets) != 5 {
		t.Fatalf("got %d top streets, want 5", len(summary.TopStreets))
	}
	wantStreets := []string{"Alpha Road", "Bravo Road", "Charlie Road", "Delta Road", "Echo Road"}
	wantCounts := []int{4, 3, 2, 1, 1}
	for i, s := range summary.TopStreets {
		if s.Street != wantStreets[i] || s.Count != wantCounts[i] {
			t.Errorf("rank %d = %s/%d, want %s/%d", i, s.Street, s.Count, wantStreets[i], wantCounts[i])
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	summary := usecases.Aggregate(nil)

	if summary.TotalCrimes != 0 {
		t.Errorf("total = %d, want 0", summary.TotalCrimes)
	}
	if summary.DateRange != "N/A" {
		t.Errorf("date range = %q, want N/A", summary.DateRange)
	}
	if summary.CategoryCounts == nil || len(summary.CategoryCounts) != 0 {
		t.Errorf("category counts = %v, want empty non-nil map", summary.CategoryCounts)
	}
	if summary.TopStreets == nil || len(summary.TopStreets) != 0 {
		t.Errorf("top streets = %v, want empty non-nil slice", summary.TopStreets)
	}
}

func TestAggregate_DateRangeAndMonthlyDistribution(t *testing.T) {
	records := []domain.IncidentRecord{
		record("1", "burglary", "High Street", "2023-11"),
		record("2", "burglary", "High Street", "2024-02"),
		record("3", "robbery", "Mill Lane", "2023-12"),
		record("4", "robbery", "Mill Lane", "2023-12"),
	}

	summary := usecases.Aggregate(records)

	if summary.DateRange != "2023-11 to 2024-02" {
		t.Errorf("date range = %q", summary.DateRange)
	}
	if summary.Temporal.ByMonth["2023-12"] != 2 {
		t.Errorf("2023-12 = %d, want 2", summary.Temporal.ByMonth["2023-12"])
	}
	if summary.Temporal.ByMonth["2023-11"] != 1 || summary.Temporal.ByMonth["2024-02"] != 1 {
		t.Errorf("monthly distribution = %v", summary.Temporal.ByMonth)
	}
}

func TestCategoryPercentage(t *testing.T) {
	summary := usecases.Aggregate([]domain.IncidentRecord{
		record("1", "burglary", "High Street", "2024-01"),
		record("2", "robbery", "High Street", "2024-01"),
		record("3", "drugs", "High Street", "2024-01"),
	})

	// 1/3 rounds half away from zero: 33.33 -> 33.
	if got := usecases.CategoryPercentage(summary, "burglary"); got != 33 {
		t.Errorf("burglary = %d%%, want 33%%", got)
	}
	if got := usecases.CategoryPercentage(summary, "arson"); got != 0 {
		t.Errorf("absent category = %d%%, want 0%%", got)
	}
	if got := usecases.CategoryPercentage(domain.CrimeSummary{}, "burglary"); got != 0 {
		t.Errorf("empty summary = %d%%, want 0%%", got)
	}
}

func TestCategoryPercentage_RoundsHalfUp(t *testing.T) {
	records := make([]domain.IncidentRecord, 0, 8)
	for i := 0; i < 7; i++ {
		records = append(records, record(string(rune('a'+i)), "burglary", "High Street", "2024-01"))
	}
	records = append(records, record("z", "robbery", "High Street", "2024-01"))

	summary := usecases.Aggregate(records)

	// 1/8 = 12.5%, rounds up to 13.
	if got := usecases.CategoryPercentage(summary, "robbery"); got != 13 {
		t.Errorf("robbery = %d%%, want 13%%", got)
	}
}

func TestRenderSummary_Deterministic(t *testing.T) {
	records := []domain.IncidentRecord{
		record("1", "burglary", "High Street", "2024-01"),
		record("2", "burglary", "Mill Lane", "2024-01"),
		record("3", "robbery", "High Street", "2024-02"),
	}
	summary := usecases.Aggregate(records)

	first := usecases.RenderSummary("Camden", summary)
	for i := 0; i < 10; i++ {
		if got := usecases.RenderSummary("Camden", summary); got != first {
			t.Fatal("render output is not deterministic")
		}
	}

	for _, line := range []string{
		"Crime summary for Camden",
		"Total crimes: 3",
		"Date range: 2024-01 to 2024-02",
		"burglary: 2 (67%)",
		"robbery: 1 (33%)",
		"High Street: 2",
	} {
		if !strings.Contains(first, line) {
			t.Errorf("rendered summary missing %q:\n%s", line, first)
		}
	}
}
