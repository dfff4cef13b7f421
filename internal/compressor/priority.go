package compressor

// basePriority is the fixed strategy×cluster matrix from spec.md §4.5 step
// 4. Emotional and dynamic are always >= core at every strategy.
var basePriority = map[Strategy]map[string]float64{
	StrategyMinimal: {
		ClusterCore: 0.5, ClusterDynamic: 0.6, ClusterContextual: 0.4,
		ClusterPredictive: 0.3, ClusterBehavioral: 0.3, ClusterEmotional: 0.7, ClusterCognitive: 0.3,
	},
	StrategyBalanced: {
		ClusterCore: 0.6, ClusterDynamic: 0.7, ClusterContextual: 0.6,
		ClusterPredictive: 0.5, ClusterBehavioral: 0.5, ClusterEmotional: 0.8, ClusterCognitive: 0.5,
	},
	StrategyComprehensive: {
		ClusterCore: 0.7, ClusterDynamic: 0.8, ClusterContextual: 0.7,
		ClusterPredictive: 0.7, ClusterBehavioral: 0.7, ClusterEmotional: 0.9, ClusterCognitive: 0.7,
	},
}

// adjustedPriority implements step 4: adjusted = base * reliability * richness.
func adjustedPriority(strategy Strategy, c *Cluster) float64 {
	base := basePriority[strategy][c.Name]
	return base * c.Reliability * c.Richness
}

// Allocate implements step 5: distribute budget across clusters proportional
// to adjusted priority. Clusters with zero adjusted priority (e.g. empty
// data) receive zero tokens.
func Allocate(strategy Strategy, clusters map[string]*Cluster, budget int) map[string]int {
	priorities := make(map[string]float64, len(clusters))
	var total float64
	for name, c := range clusters {
		p := adjustedPriority(strategy, c)
		priorities[name] = p
		total += p
	}
	out := make(map[string]int, len(clusters))
	if total <= 0 || budget <= 0 {
		for name := range clusters {
			out[name] = 0
		}
		return out
	}
	for _, name := range allClusters {
		share := priorities[name] / total
		out[name] = int(share * float64(budget))
	}
	return out
}
