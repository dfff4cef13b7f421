// Package compressor implements C5: it compresses a nested intelligence
// context into a compact tagged string within a computed token budget.
package compressor

// Cluster names, fixed per spec.md §4.5 step 2.
const (
	ClusterCore       = "core"
	ClusterDynamic     = "dynamic"
	ClusterContextual  = "contextual"
	ClusterPredictive  = "predictive"
	ClusterBehavioral  = "behavioral"
	ClusterEmotional   = "emotional"
	ClusterCognitive   = "cognitive"
)

var allClusters = []string{
	ClusterCore, ClusterDynamic, ClusterContextual, ClusterPredictive,
	ClusterBehavioral, ClusterCognitive, ClusterEmotional,
}

// Strategy is one of minimal, balanced, comprehensive (spec.md §4.5 step 3).
type Strategy string

const (
	StrategyMinimal       Strategy = "minimal"
	StrategyBalanced      Strategy = "balanced"
	StrategyComprehensive Strategy = "comprehensive"
)

// IntelligenceContext is the opaque, four-layer input to the compressor.
// Everything outside this package treats it as opaque, per spec.md §3.
type IntelligenceContext struct {
	Micro     map[string]any
	Medium    map[string]any
	Macro     map[string]any
	Synthesis map[string]any
}

// ModelProfile carries the per-model budget inputs named in spec.md §6.
type ModelProfile struct {
	MaxContextTokens        int
	OptimalIntelligenceTokens int
	CompressionTolerance    float64
}

var defaultProfile = ModelProfile{
	MaxContextTokens:          8192,
	OptimalIntelligenceTokens: 120,
	CompressionTolerance:      0.2,
}

// ModelProfiles maps recognized model names to their profile; unknown
// models fall back to defaultProfile.
var ModelProfiles = map[string]ModelProfile{
	"gpt-4o-mini": {MaxContextTokens: 128000, OptimalIntelligenceTokens: 150, CompressionTolerance: 0.2},
	"gpt-4o":      {MaxContextTokens: 128000, OptimalIntelligenceTokens: 200, CompressionTolerance: 0.15},
	"gpt-3.5":     {MaxContextTokens: 16000, OptimalIntelligenceTokens: 80, CompressionTolerance: 0.25},
}

func ProfileFor(model string) ModelProfile {
	if p, ok := ModelProfiles[model]; ok {
		return p
	}
	return defaultProfile
}

// messageTypeFactors maps recognized messageType values to their budget
// multiplier, per spec.md §6.
var messageTypeFactors = map[string]float64{
	"greeting":  0.3,
	"standard":  1.0,
	"question":  1.2,
	"technical": 1.5,
	"analysis":  1.8,
	"emotional": 1.3,
	"creative":  1.4,
}

func messageTypeFactor(messageType string) float64 {
	if f, ok := messageTypeFactors[messageType]; ok {
		return f
	}
	return 1.0
}

// Result is the compressor's output: the tagged string and whether the
// fallback path was taken.
type Result struct {
	Text     string
	Fallback bool
	Strategy Strategy
	Budget   int
}
