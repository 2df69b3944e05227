package main

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/model"
)

// TestNewCompareCmd tests the compare command creation.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "compare [host]" {
			t.Errorf("expected use 'compare [host]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has list-hosts flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list-hosts")
		if flag == nil {
			t.Fatal("expected list-hosts flag")
		}
		if flag.Shorthand != "L" {
			t.Errorf("expected shorthand 'L', got %q", flag.Shorthand)
		}
	})

	t.Run("has with-run-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("with-run-id")
		if flag == nil {
			t.Fatal("expected with-run-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has since flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("since")
		if flag == nil {
			t.Fatal("expected since flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has output format flags", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("json") == nil {
			t.Error("expected json flag")
		}
		if cmd.Flags().Lookup("markdown") == nil {
			t.Error("expected markdown flag")
		}
	})
}

// comparisonReport builds a report with the given per-page scores and
// broken URLs for comparison tests.
func comparisonReport(scores map[string]int, broken []string) *model.CrawlReport {
	report := model.NewCrawlReport("https://example.com/")
	report.Host = "example.com"

	for url, score := range scores {
		report.Records = append(report.Records, &model.CrawlRecord{
			URL: url, State: model.StateAnalyzed, StatusCode: 200, Score: score,
		})
	}
	for _, url := range broken {
		report.Records = append(report.Records, &model.CrawlRecord{
			URL: url, State: model.StateFailed, StatusCode: 404,
		})
	}
	report.Summarize()
	return report
}

// TestCompareRuns tests per-page classification between two runs.
func TestCompareRuns(t *testing.T) {
	t.Parallel()

	previous := comparisonReport(map[string]int{
		"https://example.com/":        3,
		"https://example.com/up":      1,
		"https://example.com/down":    5,
		"https://example.com/removed": 2,
	}, []string{"https://example.com/fixed"})

	current := comparisonReport(map[string]int{
		"https://example.com/":     3,
		"https://example.com/up":   4,
		"https://example.com/down": 2,
		"https://example.com/new":  6,
	}, []string{"https://example.com/broke"})

	prevTime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	curTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	result := compareRuns(previous, current, prevTime, curTime)

	if result.Host != "example.com" {
		t.Errorf("Host = %q", result.Host)
	}
	if result.UnchangedCount != 1 {
		t.Errorf("UnchangedCount = %d, want 1", result.UnchangedCount)
	}

	if len(result.ImprovedPages) != 1 || result.ImprovedPages[0].URL != "https://example.com/up" {
		t.Errorf("ImprovedPages = %+v", result.ImprovedPages)
	} else if result.ImprovedPages[0].Delta != 3 {
		t.Errorf("improved delta = %d, want 3", result.ImprovedPages[0].Delta)
	}

	if len(result.WorsenedPages) != 1 || result.WorsenedPages[0].URL != "https://example.com/down" {
		t.Errorf("WorsenedPages = %+v", result.WorsenedPages)
	} else if result.WorsenedPages[0].Delta != -3 {
		t.Errorf("worsened delta = %d, want -3", result.WorsenedPages[0].Delta)
	}

	if len(result.NewPages) != 1 || result.NewPages[0].URL != "https://example.com/new" {
		t.Errorf("NewPages = %+v", result.NewPages)
	}
	if len(result.RemovedPages) != 1 || result.RemovedPages[0].URL != "https://example.com/removed" {
		t.Errorf("RemovedPages = %+v", result.RemovedPages)
	}

	if len(result.NewBroken) != 1 || result.NewBroken[0] != "https://example.com/broke" {
		t.Errorf("NewBroken = %v", result.NewBroken)
	}
	if len(result.FixedBroken) != 1 || result.FixedBroken[0] != "https://example.com/fixed" {
		t.Errorf("FixedBroken = %v", result.FixedBroken)
	}

	if result.PreviousRun.DateCrawled != prevTime || result.CurrentRun.DateCrawled != curTime {
		t.Errorf("run timestamps = %v / %v", result.PreviousRun.DateCrawled, result.CurrentRun.DateCrawled)
	}
}

// TestCalculateScoreChange tests the overall direction calculation.
func TestCalculateScoreChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous RunSummary
		current  RunSummary
		want     string
	}{
		{
			name:     "higher average improves",
			previous: RunSummary{AverageScore: 2.0},
			current:  RunSummary{AverageScore: 3.5},
			want:     scoreDirectionImproved,
		},
		{
			name:     "lower average worsens",
			previous: RunSummary{AverageScore: 3.5},
			current:  RunSummary{AverageScore: 2.0},
			want:     scoreDirectionWorsened,
		},
		{
			name:     "same average, fewer broken links improves",
			previous: RunSummary{AverageScore: 2.0, BrokenLinks: 3},
			current:  RunSummary{AverageScore: 2.0, BrokenLinks: 1},
			want:     scoreDirectionImproved,
		},
		{
			name:     "same average, more broken links worsens",
			previous: RunSummary{AverageScore: 2.0, BrokenLinks: 1},
			current:  RunSummary{AverageScore: 2.0, BrokenLinks: 3},
			want:     scoreDirectionWorsened,
		},
		{
			name:     "identical runs unchanged",
			previous: RunSummary{AverageScore: 2.0, BrokenLinks: 1},
			current:  RunSummary{AverageScore: 2.0, BrokenLinks: 1},
			want:     scoreDirectionUnchanged,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			change := calculateScoreChange(tt.previous, tt.current)
			if change.Direction != tt.want {
				t.Errorf("Direction = %q, want %q", change.Direction, tt.want)
			}
		})
	}
}

// TestFormatDelta tests delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{3, "+3"},
		{-2, "-2"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestRunComparison tests comparison against the saved run history.
func TestRunComparison(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	}()

	ctx := context.Background()

	first := comparisonReport(map[string]int{"https://example.com/": 2}, nil)
	second := comparisonReport(map[string]int{"https://example.com/": 5}, nil)

	if _, err := db.SaveCrawlReport(ctx, first); err != nil {
		t.Fatalf("SaveCrawlReport() error: %v", err)
	}
	if _, err := db.SaveCrawlReport(ctx, second); err != nil {
		t.Fatalf("SaveCrawlReport() error: %v", err)
	}

	t.Run("compares the latest two runs", func(t *testing.T) {
		if err := runComparison(ctx, db, "example.com", 0, "", false, false); err != nil {
			t.Fatalf("runComparison() error: %v", err)
		}
	})

	t.Run("compares against a specific run", func(t *testing.T) {
		runs, err := db.GetRunHistory(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetRunHistory() error: %v", err)
		}
		oldest := runs[len(runs)-1].ID

		if err := runComparison(ctx, db, "example.com", oldest, "", true, false); err != nil {
			t.Fatalf("runComparison() error: %v", err)
		}
	})

	t.Run("rejects a run from another host", func(t *testing.T) {
		other := comparisonReport(nil, nil)
		other.Host = "other.example.com"
		id, err := db.SaveCrawlReport(ctx, other)
		if err != nil {
			t.Fatalf("SaveCrawlReport() error: %v", err)
		}

		if err := runComparison(ctx, db, "example.com", id, "", false, false); err == nil {
			t.Error("expected error for cross-host comparison")
		}
	})

	t.Run("fails with a single run", func(t *testing.T) {
		single := comparisonReport(nil, nil)
		single.Host = "lonely.example.com"
		if _, err := db.SaveCrawlReport(ctx, single); err != nil {
			t.Fatalf("SaveCrawlReport() error: %v", err)
		}

		if err := runComparison(ctx, db, "lonely.example.com", 0, "", false, false); err == nil {
			t.Error("expected error when only one run exists")
		}
	})

	t.Run("fails for unknown host", func(t *testing.T) {
		if err := runComparison(ctx, db, "unknown.example.com", 0, "", false, false); err == nil {
			t.Error("expected error for unknown host")
		}
	})

	t.Run("rejects a bad since date", func(t *testing.T) {
		if err := runComparison(ctx, db, "example.com", 0, "not-a-date", false, false); err == nil {
			t.Error("expected error for malformed date")
		}
	})
}
