package model

import "testing"

// TestStateString tests state name formatting.
func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "pending"},
		{StateFetched, "fetched"},
		{StateAnalyzed, "analyzed"},
		{StateProbedOnly, "probed"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// TestStateTerminal tests which states allow no further transition.
func TestStateTerminal(t *testing.T) {
	t.Parallel()

	if StatePending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if StateFetched.Terminal() {
		t.Error("fetched must not be terminal")
	}
	for _, s := range []State{StateAnalyzed, StateProbedOnly, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}

// TestModeString tests mode name formatting.
func TestModeString(t *testing.T) {
	t.Parallel()

	if ModeAnalyze.String() != "analyze" {
		t.Errorf("ModeAnalyze.String() = %q", ModeAnalyze.String())
	}
	if ModeProbeOnly.String() != "probe" {
		t.Errorf("ModeProbeOnly.String() = %q", ModeProbeOnly.String())
	}
}

// TestCrawlRecordPredicates tests Visited, Analyzed, and Broken.
func TestCrawlRecordPredicates(t *testing.T) {
	t.Parallel()

	t.Run("unvisited record", func(t *testing.T) {
		t.Parallel()

		rec := &CrawlRecord{URL: "https://example.com/", State: StatePending}
		if rec.Visited() {
			t.Error("record without status must not be visited")
		}
		if rec.Broken() {
			t.Error("pending record must not be broken")
		}
	})

	t.Run("analyzed record", func(t *testing.T) {
		t.Parallel()

		rec := &CrawlRecord{URL: "https://example.com/", State: StateAnalyzed, StatusCode: 200}
		if !rec.Visited() || !rec.Analyzed() {
			t.Error("analyzed record with status must be visited and analyzed")
		}
	})

	t.Run("broken by status", func(t *testing.T) {
		t.Parallel()

		rec := &CrawlRecord{URL: "https://example.com/missing", State: StateProbedOnly, StatusCode: 404}
		if !rec.Broken() {
			t.Error("404 record must be broken")
		}
	})

	t.Run("broken by transport failure", func(t *testing.T) {
		t.Parallel()

		rec := &CrawlRecord{URL: "https://example.com/down", State: StateFailed}
		if !rec.Broken() {
			t.Error("failed record must be broken")
		}
	})
}
