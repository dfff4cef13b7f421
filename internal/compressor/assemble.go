package compressor

import "strings"

// section is one tagged block of the assembled output, in priority order
// per spec.md §4.5 step 7. Two clusters (contextual, dynamic) share the
// TOPIC tag since the spec names six tags for seven clusters; this
// pairing is the implementation's documented choice, not drawn from the
// spec text itself.
var sectionOrder = []struct {
	tag      string
	clusters []string
}{
	{"MICRO", []string{ClusterEmotional}},
	{"TOPIC", []string{ClusterContextual, ClusterDynamic}},
	{"CORE", []string{ClusterCore}},
	{"BEHAV", []string{ClusterBehavioral}},
	{"COG", []string{ClusterCognitive}},
	{"PRED", []string{ClusterPredictive}},
}

type assembledBlock struct {
	tag   string
	pairs []string
}

// assemble concatenates tagged sections, omits empties, and truncates by
// dropping trailing k:v pairs (from the least-priority section backward)
// until the token estimate fits budget.
func assemble(compressed map[string]string, budget int) string {
	blocks := make([]assembledBlock, 0, len(sectionOrder))
	for _, sec := range sectionOrder {
		var parts []string
		for _, cname := range sec.clusters {
			if s := compressed[cname]; s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			continue
		}
		combined := strings.Join(parts, ",")
		blocks = append(blocks, assembledBlock{tag: sec.tag, pairs: strings.Split(combined, ",")})
	}

	render := func() string {
		var b strings.Builder
		for _, blk := range blocks {
			if len(blk.pairs) == 0 {
				continue
			}
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(blk.tag)
			b.WriteString("{")
			b.WriteString(strings.Join(blk.pairs, ","))
			b.WriteString("}")
		}
		return b.String()
	}

	out := render()
	for EstimateTokens(out) > budget && budget > 0 {
		if !dropLastPair(blocks) {
			break
		}
		out = render()
	}
	return out
}

// dropLastPair removes one k:v pair from the lowest-priority non-empty
// block (scanning from the end of the section order). Returns false when
// there is nothing left to drop.
func dropLastPair(blocks []assembledBlock) bool {
	for i := len(blocks) - 1; i >= 0; i-- {
		if len(blocks[i].pairs) > 0 {
			blocks[i].pairs = blocks[i].pairs[:len(blocks[i].pairs)-1]
			return true
		}
	}
	return false
}
