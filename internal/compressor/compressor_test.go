package compressor

import "testing"

func sampleContext() IntelligenceContext {
	return IntelligenceContext{
		Micro: map[string]any{
			"primaryEmotion":     "sad",
			"emotionalIntensity": 6.0,
			"messageComplexity":  4.0,
		},
		Medium: map[string]any{
			"interactionCount": 12.0,
			"trendDirection":   "increasing",
		},
		Macro: map[string]any{
			"personalityType": "introvert",
			"cognitiveStyle":  "visual",
		},
		Synthesis: map[string]any{
			"currentMood": "neutral",
		},
	}
}

func TestBudgetHonored(t *testing.T) {
	res := Compress(sampleContext(), Options{Model: "gpt-4o-mini", Complexity: 5, MessageType: "standard", HistoryLen: 4})
	if res.Fallback {
		t.Fatalf("expected non-fallback result")
	}
	if got := EstimateTokens(res.Text); got > res.Budget {
		t.Fatalf("estimated tokens %d exceed budget %d (text=%q)", got, res.Budget, res.Text)
	}
}

func TestCompressIsDeterministic(t *testing.T) {
	opts := Options{Model: "gpt-4o-mini", Complexity: 5, MessageType: "standard", HistoryLen: 4}
	a := Compress(sampleContext(), opts)
	b := Compress(sampleContext(), opts)
	if a.Text != b.Text {
		t.Fatalf("expected deterministic output, got %q vs %q", a.Text, b.Text)
	}
}

func TestSelectStrategyThresholds(t *testing.T) {
	if SelectStrategy(10, "") != StrategyMinimal {
		t.Fatal("expected minimal at budget 10")
	}
	if SelectStrategy(100, "") != StrategyBalanced {
		t.Fatal("expected balanced at budget 100")
	}
	if SelectStrategy(200, "") != StrategyComprehensive {
		t.Fatal("expected comprehensive at budget 200")
	}
	if SelectStrategy(10, StrategyComprehensive) != StrategyComprehensive {
		t.Fatal("expected forced strategy to override threshold")
	}
}

func TestEmptyContextProducesEmptyText(t *testing.T) {
	res := Compress(IntelligenceContext{}, Options{Model: "unknown-model", Complexity: 0, MessageType: "greeting", HistoryLen: 0})
	if res.Fallback {
		t.Fatalf("empty input should not trigger fallback")
	}
	if res.Text != "" {
		t.Fatalf("expected empty text for empty context, got %q", res.Text)
	}
}
