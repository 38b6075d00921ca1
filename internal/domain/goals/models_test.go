package goals

import "testing"

func TestBuildStats(t *testing.T) {
	stats := buildStats(map[string]int{
		StatusNotStarted: 2,
		StatusInProgress: 3,
		StatusCompleted:  5,
	})
	if stats.Total != 10 {
		t.Fatalf("expected total 10, got %d", stats.Total)
	}
	if stats.NotStarted != 2 || stats.InProgress != 3 || stats.Completed != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBuildStatsCountsUnknownStatusInTotal(t *testing.T) {
	stats := buildStats(map[string]int{"Archived": 1, StatusCompleted: 1})
	if stats.Total != 2 {
		t.Fatalf("expected total 2, got %d", stats.Total)
	}
	if stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
