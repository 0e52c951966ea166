package ai

import "testing"

func TestApplyOptions(t *testing.T) {
	defaults := GenerateOptions{Model: "main", Temperature: 0.5, MaxTokens: 1024}

	got := ApplyOptions(defaults,
		WithModel("low"),
		WithSystemPrompts("be brief"),
		WithTemperature(0.1),
		WithMaxTokens(64),
		WithStop("\n\n"),
		nil,
	)

	if got.Model != "low" || got.Temperature != 0.1 || got.MaxTokens != 64 {
		t.Fatalf("options not applied: %+v", got)
	}
	if len(got.SystemPrompts) != 1 || got.SystemPrompts[0] != "be brief" {
		t.Fatalf("unexpected system prompts %v", got.SystemPrompts)
	}
	if len(got.Stop) != 1 || got.Stop[0] != "\n\n" {
		t.Fatalf("unexpected stop %v", got.Stop)
	}
	if defaults.Model != "main" {
		t.Fatal("defaults must not be modified")
	}
}

func TestMetricsRecorder(t *testing.T) {
	var r MetricsRecorder
	r.Record(ModelMetrics{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, DurationMs: 500})
	r.Record(ModelMetrics{InputTokens: 20, OutputTokens: 10, TotalTokens: 30, DurationMs: 500})

	m := r.GetMetrics()
	if m.InputTokens != 30 || m.OutputTokens != 15 || m.TotalTokens != 45 || m.DurationMs != 1000 {
		t.Fatalf("unexpected totals %+v", m)
	}
	if m.TokenPerSecond != 45 {
		t.Fatalf("expected 45 tokens/s, got %v", m.TokenPerSecond)
	}

	r.ResetMetrics()
	if r.GetMetrics() != (ModelMetrics{}) {
		t.Fatalf("expected zero metrics after reset, got %+v", r.GetMetrics())
	}
}
