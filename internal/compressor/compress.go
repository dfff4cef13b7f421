package compressor

import (
	"sort"
	"strings"
)

// detailTier is chosen per cluster by its allocated token budget, per
// spec.md §4.5 step 6.
type detailTier string

const (
	tierUltra    detailTier = "ultra"
	tierStandard detailTier = "standard"
	tierDetailed detailTier = "detailed"
)

func selectTier(allocated int) detailTier {
	switch {
	case allocated < 20:
		return tierUltra
	case allocated <= 50:
		return tierStandard
	default:
		return tierDetailed
	}
}

// maxKeys bounds how many k:v pairs a tier contributes before the global
// assembly-time truncation pass (step 7) runs.
func (t detailTier) maxKeys() int {
	switch t {
	case tierUltra:
		return 3
	case tierStandard:
		return 6
	default:
		return 1 << 30
	}
}

// CompressCluster implements step 6: produces the cluster's comma-separated
// k:v string, keys looked up in the abbreviation dictionary, values
// recursively compressed. Key order is alphabetical for determinism.
func CompressCluster(c *Cluster, allocatedTokens int) string {
	if len(c.Data) == 0 || allocatedTokens <= 0 {
		return ""
	}
	tier := selectTier(allocatedTokens)

	keys := make([]string, 0, len(c.Data))
	for k := range c.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if max := tier.maxKeys(); len(keys) > max {
		keys = keys[:max]
	}

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, abbreviateKey(k)+":"+abbreviateValue(c.Data[k]))
	}
	return strings.Join(pairs, ",")
}
