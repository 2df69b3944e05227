package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/seoscan/internal/model"
)

// countingStep tracks concurrent executions.
type countingStep struct {
	mu      sync.Mutex
	current int
	peak    int
	total   atomic.Int32
	fail    map[string]error
}

func (s *countingStep) Do(_ context.Context, report *model.CrawlReport) error {
	s.mu.Lock()
	s.current++
	if s.current > s.peak {
		s.peak = s.current
	}
	s.mu.Unlock()

	s.total.Add(1)

	s.mu.Lock()
	s.current--
	s.mu.Unlock()

	if err, ok := s.fail[report.StartURL]; ok {
		return err
	}
	return nil
}

func (s *countingStep) Name() string {
	return "counting"
}

// TestProcessBatch tests concurrent multi-target crawling.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("one report per target in input order", func(t *testing.T) {
		t.Parallel()

		step := &countingStep{}
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(step)
			return p
		}, WithConcurrency(2))

		targets := []string{
			"https://a.example.com/",
			"https://b.example.com/",
			"https://c.example.com/",
		}

		reports, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("ProcessBatch() error: %v", err)
		}

		if len(reports) != 3 {
			t.Fatalf("report count = %d, want 3", len(reports))
		}
		for i, target := range targets {
			if reports[i] == nil || reports[i].StartURL != target {
				t.Errorf("reports[%d] = %+v, want %q", i, reports[i], target)
			}
		}
		if got := step.total.Load(); got != 3 {
			t.Errorf("step ran %d times, want 3", got)
		}
		if step.peak > 2 {
			t.Errorf("peak concurrency = %d, want at most 2", step.peak)
		}
	})

	t.Run("failed target does not abort the batch", func(t *testing.T) {
		t.Parallel()

		step := &countingStep{fail: map[string]error{
			"https://bad.example.com/": errors.New("no route"),
		}}
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(step)
			return p
		})

		reports, err := bp.ProcessBatch(context.Background(), []string{
			"https://bad.example.com/",
			"https://good.example.com/",
		})
		if err != nil {
			t.Fatalf("ProcessBatch() error: %v", err)
		}

		if reports[0].Error == nil {
			t.Error("failed target's report has no error recorded")
		}
		if reports[1].Error != nil {
			t.Errorf("healthy target's report has error: %v", reports[1].Error)
		}
	})

	t.Run("cancelled context aborts remaining targets", func(t *testing.T) {
		t.Parallel()

		step := &countingStep{}
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(step)
			return p
		}, WithConcurrency(1))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := bp.ProcessBatch(ctx, []string{"https://a.example.com/", "https://b.example.com/"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("ProcessBatch() = %v, want context.Canceled", err)
		}
	})
}
