package compressor

import "strings"

// Cluster holds the raw key/value pairs routed to one semantic cluster,
// plus the two scalars the priority step (spec.md §4.5 step 4) consumes.
type Cluster struct {
	Name        string
	Data        map[string]any
	Reliability float64
	Richness    float64
}

// layerDefaults routes a whole layer to a cluster when none of its keys
// match a more specific keyword below. This keeps clustering deterministic
// without requiring every caller to know the keyword table.
var layerDefaults = map[string]string{
	"micro":     ClusterContextual,
	"medium":    ClusterDynamic,
	"macro":     ClusterCore,
	"synthesis": ClusterPredictive,
}

// keyword -> cluster routes specific well-known keys to a more precise
// cluster than their layer's default, e.g. an emotion key living in the
// micro layer still lands in the emotional cluster.
var keywordClusters = []struct {
	keyword string
	cluster string
}{
	{"emotion", ClusterEmotional},
	{"mood", ClusterEmotional},
	{"sentiment", ClusterEmotional},
	{"cognitive", ClusterCognitive},
	{"cognition", ClusterCognitive},
	{"learningstyle", ClusterCognitive},
	{"behavior", ClusterBehavioral},
	{"interaction", ClusterBehavioral},
	{"habit", ClusterBehavioral},
	{"trend", ClusterDynamic},
	{"predict", ClusterPredictive},
	{"forecast", ClusterPredictive},
	{"personality", ClusterCore},
	{"identity", ClusterCore},
}

func classify(layer, key string) string {
	lower := strings.ToLower(key)
	for _, kc := range keywordClusters {
		if strings.Contains(lower, kc.keyword) {
			return kc.cluster
		}
	}
	if c, ok := layerDefaults[layer]; ok {
		return c
	}
	return ClusterCore
}

// BuildClusters partitions the four analytical layers into the seven fixed
// clusters (spec.md §4.5 step 2), then computes each cluster's reliability
// (an optional "confidence"/"reliability" key in the source data, default
// 0.7 when absent) and richness = min(1, keyCount/10).
func BuildClusters(ic IntelligenceContext) map[string]*Cluster {
	out := make(map[string]*Cluster, len(allClusters))
	for _, name := range allClusters {
		out[name] = &Cluster{Name: name, Data: map[string]any{}}
	}

	route := func(layer string, data map[string]any) {
		for k, v := range data {
			cname := classify(layer, k)
			out[cname].Data[k] = v
		}
	}
	route("micro", ic.Micro)
	route("medium", ic.Medium)
	route("macro", ic.Macro)
	route("synthesis", ic.Synthesis)

	for _, c := range out {
		c.Reliability = reliabilityOf(c.Data)
		c.Richness = clamp(float64(len(c.Data))/10, 0, 1)
	}
	return out
}

// reliabilityOf reads an explicit "reliability" or "confidence" key when
// present, defaulting to 0.7 — the clusters don't universally carry one.
func reliabilityOf(data map[string]any) float64 {
	for _, key := range []string{"reliability", "confidence"} {
		if v, ok := data[key]; ok {
			if f, ok := toFloat(v); ok {
				return clamp(f, 0, 1)
			}
		}
	}
	return 0.7
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
