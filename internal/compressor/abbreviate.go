package compressor

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// keyAbbreviations is the fixed abbreviation dictionary from spec.md §6.
// It is part of the wire contract with the downstream prompt: frozen as
// v1, changes require a new version tag rather than silent edits.
const abbreviationDictVersion = "v1"

var keyAbbreviations = map[string]string{
	"messageComplexity":  "mc",
	"primaryEmotion":     "e",
	"emotionalIntensity": "ei",
	"interactionCount":   "ic",
	"sessionDuration":    "sd",
	"topicDrift":         "td",
	"engagementScore":    "es",
	"personalityType":    "pt",
	"cognitiveStyle":     "cs",
	"learningStyle":      "ls",
	"currentMood":        "cm",
	"trendDirection":     "tr",
	"confidenceLevel":    "cl",
	"responseLatency":    "rl",
	"riskLevel":          "rk",
}

var valueAbbreviations = map[string]string{
	"increasing": "inc",
	"decreasing": "dec",
	"neutral":    "neu",
	"stable":     "stb",
	"positive":   "pos",
	"negative":   "neg",
	"high":       "hi",
	"medium":     "med",
	"low":        "lo",
}

// abbreviateKey looks up the fixed dictionary, falling back to the first 3
// lowercase characters for an unrecognized key so output stays deterministic.
func abbreviateKey(key string) string {
	if a, ok := keyAbbreviations[key]; ok {
		return a
	}
	lower := strings.ToLower(key)
	if len(lower) <= 3 {
		return lower
	}
	return lower[:3]
}

// abbreviateValue implements spec.md §4.5 step 6's recursive value
// compression.
func abbreviateValue(v any) string {
	switch val := v.(type) {
	case string:
		return abbreviateString(val)
	case float64:
		return abbreviateNumber(val)
	case int:
		return abbreviateNumber(float64(val))
	case bool:
		if val {
			return "t"
		}
		return "f"
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, abbreviateValue(item))
		}
		return strings.Join(parts, "/")
	case map[string]any:
		return abbreviateObject(val)
	default:
		return fmt.Sprint(val)
	}
}

func abbreviateString(s string) string {
	if a, ok := valueAbbreviations[strings.ToLower(s)]; ok {
		return a
	}
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}

func abbreviateNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.1f", f)
}

// abbreviateObject special-cases the two shapes named in spec.md §4.5 step
// 6 ({trend,current} and {emotion,intensity}); anything else falls back to
// the first key (alphabetically, for determinism) and its value.
func abbreviateObject(m map[string]any) string {
	_, hasTrend := m["trend"]
	_, hasCurrent := m["current"]
	if hasTrend && hasCurrent {
		return fmt.Sprintf("%s>%s", abbreviateValue(m["trend"]), abbreviateValue(m["current"]))
	}
	_, hasEmotion := m["emotion"]
	_, hasIntensity := m["intensity"]
	if hasEmotion && hasIntensity {
		return fmt.Sprintf("%s:%s", abbreviateValue(m["emotion"]), abbreviateValue(m["intensity"]))
	}
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return abbreviateValue(m[keys[0]])
}
